package teams

// Configuration captures persisted settings for the teams migration command.
type Configuration struct {
	UserMappingsFile     string `mapstructure:"user_mappings_file"`
	IdPGroupMappingsFile string `mapstructure:"idp_group_mappings_file"`
}
