package model

import "strings"

// TeamMember is a roster entry. Email is the primary matching key; Aliases
// holds alternate emails or display names.
type TeamMember struct {
	Name    string   `json:"name" yaml:"name"`
	Email   string   `json:"email" yaml:"email"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Matches reports whether the identity refers to this member. The comparison is
// case-insensitive on unique name vs email, display name vs name, and either of
// them vs any alias.
func (m TeamMember) Matches(id *Identity) bool {
	if id == nil {
		return false
	}
	if id.UniqueName != "" && strings.EqualFold(id.UniqueName, m.Email) {
		return true
	}
	if id.DisplayName != "" && strings.EqualFold(id.DisplayName, m.Name) {
		return true
	}
	for _, alias := range m.Aliases {
		if alias == "" {
			continue
		}
		if strings.EqualFold(id.UniqueName, alias) || strings.EqualFold(id.DisplayName, alias) {
			return true
		}
	}
	return false
}

// TeamConfig is a named roster. Member order only matters for display.
type TeamConfig struct {
	Name    string       `json:"name" yaml:"name"`
	Members []TeamMember `json:"members" yaml:"members"`
}

// Emails returns the member emails in roster order.
func (t TeamConfig) Emails() []string {
	emails := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		emails = append(emails, m.Email)
	}
	return emails
}
