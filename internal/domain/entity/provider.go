// Package entity contains the core business objects of the project.
package entity

// ProviderType identifies an external identity provider.
type ProviderType string

const (
	// ProviderTypeGoogle indicates a Google Sign-In identity.
	ProviderTypeGoogle ProviderType = "google"
)

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}
