package cli

import _ "embed"

// defaultConfigurationYAML seeds the configuration loader so a run without a
// config file still has complete defaults.
//
//go:embed default_config.yaml
var defaultConfigurationYAML []byte
