package model

// PRStatus represents the state of a pull request.
type PRStatus string

const (
	PRStatusActive    PRStatus = "active"
	PRStatusCompleted PRStatus = "completed"
	PRStatusAbandoned PRStatus = "abandoned"
	PRStatusAll       PRStatus = "all" // Filter value only.
)

// Provider identifies the remote work tracking backend.
type Provider string

const (
	ProviderAzureDevOps Provider = "azdo"
	ProviderGitHub      Provider = "github"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderAzureDevOps || p == ProviderGitHub
}
