package model

import "time"

// Provider identifies an external platform a credential belongs to.
type Provider string

const (
	ProviderVercel  Provider = "vercel"
	ProviderWebflow Provider = "webflow"
)

// Providers lists every supported provider, in display order.
var Providers = []Provider{ProviderVercel, ProviderWebflow}

// Valid reports whether p names a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderVercel, ProviderWebflow:
		return true
	}
	return false
}

// Credential is one stored provider token for one user. The Value column is
// encrypted at rest; this struct carries only row bookkeeping, never the
// plaintext (plaintext is returned separately by the store's Get).
type Credential struct {
	UserID    string
	Provider  Provider
	Metadata  map[string]string
	CreatedAt time.Time
}

// Integration is the connection status of one provider for one user, as
// rendered by the listIntegrations procedure.
type Integration struct {
	Provider  Provider
	Connected bool
}
