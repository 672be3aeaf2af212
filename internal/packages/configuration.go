package packages

const (
	// DefaultConcurrency bounds simultaneous asset downloads per batch wave.
	DefaultConcurrency = 5
	// DefaultStagingDirectory is the local tree recreated per live run.
	DefaultStagingDirectory = "packages"
)

// Configuration captures persisted settings for the packages migration command.
type Configuration struct {
	Type             string `mapstructure:"type"`
	Concurrency      int    `mapstructure:"concurrency"`
	StagingDirectory string `mapstructure:"staging_directory"`
}
