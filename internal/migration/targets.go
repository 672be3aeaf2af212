package migration

import (
	"errors"

	"github.com/orgmigrate/orgmigrate/internal/githubapi"
)

const (
	sourceClientMissingMessageConstant = "source client not configured"
	targetClientMissingMessageConstant = "target client not configured"
)

// Sentinel errors for incomplete target wiring.
var (
	// ErrSourceClientMissing indicates the source instance client was not supplied.
	ErrSourceClientMissing = errors.New(sourceClientMissingMessageConstant)
	// ErrTargetClientMissing indicates the target instance client was not supplied.
	ErrTargetClientMissing = errors.New(targetClientMissingMessageConstant)
)

// Targets carries the resolved source and target clients plus the run mode.
// The two credentials are never interchanged: the source client only reads,
// the target client receives every mutation.
type Targets struct {
	Source *githubapi.Client
	Target *githubapi.Client
	DryRun bool
}

// Validate confirms both clients are present.
func (targets Targets) Validate() error {
	if targets.Source == nil {
		return ErrSourceClientMissing
	}
	if targets.Target == nil {
		return ErrTargetClientMissing
	}
	return nil
}

// EndpointSettings captures the persisted configuration for one instance.
type EndpointSettings struct {
	Organization string `mapstructure:"organization"`
	Host         string `mapstructure:"host"`
	TokenSource  string `mapstructure:"token_source"`
	ProxyURL     string `mapstructure:"proxy_url"`
}
