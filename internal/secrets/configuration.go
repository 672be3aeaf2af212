package secrets

// Configuration captures persisted settings for the secrets migration command.
type Configuration struct {
	InputFile           string `mapstructure:"input_file"`
	DiscoveryOutputFile string `mapstructure:"discovery_output_file"`
}
