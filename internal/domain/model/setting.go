package model

// Setting keys understood by `adoctl config`.
const (
	SettingOrganization = "organization"
	SettingProject      = "project"
	SettingProvider     = "provider"
	SettingGitHubRepo   = "github-repo"
	SettingDefaultTeam  = "default-team"
)

// SettingKeys lists every valid setting key in display order.
var SettingKeys = []string{
	SettingOrganization,
	SettingProject,
	SettingProvider,
	SettingGitHubRepo,
	SettingDefaultTeam,
}

// IsSettingKey reports whether key is a known setting.
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}
