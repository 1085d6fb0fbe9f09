package model

// VendorRole is a named role scoped to a single portal, using the vendor's
// literal label. Unique per (portal, name).
type VendorRole struct {
	ID          int64
	PortalID    int64
	Name        string
	Category    RoleCategory
	Description string
}
