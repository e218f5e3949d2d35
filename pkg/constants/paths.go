package constants

// Пути health, ready и заголовок тенанта (остальные API — через handler).
const (
	PathHealth = "/health"
	PathReady  = "/ready"

	HeaderTenantID = "X-Tenant-ID"
	HeaderBranchID = "X-Branch-ID"
)
