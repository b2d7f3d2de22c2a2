package model

// HealthThresholds holds the numeric knobs of the health rules.
type HealthThresholds struct {
	StaleDays         int `json:"staleDays" yaml:"staleDays"`
	StuckInStateDays  int `json:"stuckInStateDays" yaml:"stuckInStateDays"` // Reserved; no rule reads it yet.
	MaxItemsPerPerson int `json:"maxItemsPerPerson" yaml:"maxItemsPerPerson"`
	MinItemsPerPerson int `json:"minItemsPerPerson" yaml:"minItemsPerPerson"`
	HighPriorityDays  int `json:"highPriorityDays" yaml:"highPriorityDays"`
}

const (
	defaultStaleDays         = 14
	defaultStuckInStateDays  = 7
	defaultMaxItemsPerPerson = 10
	defaultMinItemsPerPerson = 2
	defaultHighPriorityDays  = 3
)

// DefaultHealthThresholds returns the hard-coded defaults used when no global
// thresholds row exists in the database.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		StaleDays:         defaultStaleDays,
		StuckInStateDays:  defaultStuckInStateDays,
		MaxItemsPerPerson: defaultMaxItemsPerPerson,
		MinItemsPerPerson: defaultMinItemsPerPerson,
		HighPriorityDays:  defaultHighPriorityDays,
	}
}

// ThresholdOverrides holds partial threshold settings. Nil pointer fields mean
// "inherit" for that setting.
type ThresholdOverrides struct {
	StaleDays         *int `json:"staleDays,omitempty" yaml:"staleDays,omitempty"`
	StuckInStateDays  *int `json:"stuckInStateDays,omitempty" yaml:"stuckInStateDays,omitempty"`
	MaxItemsPerPerson *int `json:"maxItemsPerPerson,omitempty" yaml:"maxItemsPerPerson,omitempty"`
	MinItemsPerPerson *int `json:"minItemsPerPerson,omitempty" yaml:"minItemsPerPerson,omitempty"`
	HighPriorityDays  *int `json:"highPriorityDays,omitempty" yaml:"highPriorityDays,omitempty"`
}

// IsZero reports whether no override is set.
func (o ThresholdOverrides) IsZero() bool {
	return o.StaleDays == nil && o.StuckInStateDays == nil && o.MaxItemsPerPerson == nil &&
		o.MinItemsPerPerson == nil && o.HighPriorityDays == nil
}

// Apply returns a copy of t with every non-nil override applied. Negative
// values are ignored.
func (t HealthThresholds) Apply(o ThresholdOverrides) HealthThresholds {
	set := func(dst *int, v *int) {
		if v != nil && *v >= 0 {
			*dst = *v
		}
	}
	set(&t.StaleDays, o.StaleDays)
	set(&t.StuckInStateDays, o.StuckInStateDays)
	set(&t.MaxItemsPerPerson, o.MaxItemsPerPerson)
	set(&t.MinItemsPerPerson, o.MinItemsPerPerson)
	set(&t.HighPriorityDays, o.HighPriorityDays)
	return t
}
