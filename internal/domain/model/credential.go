package model

import "time"

// Credential holds a service credential. Service identifies the external
// system ("azdo", "github").
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
