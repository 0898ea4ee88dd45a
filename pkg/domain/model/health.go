package model

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status      string `json:"status"`
	ProviderKey string `json:"providerKey"`
	StoreStatus string `json:"storeStatus"`
}

const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"

	ProviderKeyValid   = "valid"
	ProviderKeyInvalid = "invalid"

	StoreConnected    = "connected"
	StoreDisconnected = "disconnected"
)
