package models

// ProviderType identifies a supported third-party identity provider.
type ProviderType string

const (
	ProviderGoogle   ProviderType = "Google"
	ProviderFacebook ProviderType = "Facebook"
)

// Valid reports whether the provider type is one of the supported values.
func (p ProviderType) Valid() bool {
	return p == ProviderGoogle || p == ProviderFacebook
}

// AuthenticationProvider links a third-party identity to a local user. Its ID
// is the deterministic composite of provider type and the provider-supplied
// key, so one external identity maps to exactly one link row.
type AuthenticationProvider struct {
	ID           string
	ProviderType ProviderType
	KeyProvided  string
	UserID       string
}

// ProviderID builds the composite id for a (provider type, external key) pair.
func ProviderID(providerType ProviderType, keyProvided string) string {
	return string(providerType) + keyProvided
}
