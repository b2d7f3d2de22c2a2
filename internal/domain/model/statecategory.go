package model

import "strings"

// StateCategories groups free-form work item states. Matching is a
// case-insensitive exact comparison. A state may appear in none of the lists.
type StateCategories struct {
	Active    []string `json:"active" yaml:"active"`
	Blocked   []string `json:"blocked" yaml:"blocked"`
	Completed []string `json:"completed" yaml:"completed"`
}

// DefaultStateCategories returns the state names used when a team has not
// configured its own.
func DefaultStateCategories() StateCategories {
	return StateCategories{
		Active:    []string{"New", "Active", "In Progress", "Committed", "Doing"},
		Blocked:   []string{"Blocked", "On Hold", "Waiting"},
		Completed: []string{"Closed", "Done", "Resolved", "Removed"},
	}
}

// IsActive reports whether state is in the active category.
func (c StateCategories) IsActive(state string) bool {
	return containsFold(c.Active, state)
}

// IsBlocked reports whether state is in the blocked category.
func (c StateCategories) IsBlocked(state string) bool {
	return containsFold(c.Blocked, state)
}

// IsCompleted reports whether state is in the completed category.
func (c StateCategories) IsCompleted(state string) bool {
	return containsFold(c.Completed, state)
}

// IsEmpty reports whether no category has any state configured.
func (c StateCategories) IsEmpty() bool {
	return len(c.Active) == 0 && len(c.Blocked) == 0 && len(c.Completed) == 0
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
