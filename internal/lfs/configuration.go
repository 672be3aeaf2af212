package lfs

// Configuration captures persisted settings for the LFS migration command.
type Configuration struct {
	Repositories []string `mapstructure:"repositories"`
}
