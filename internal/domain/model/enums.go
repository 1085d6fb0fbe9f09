package model

// RoleCategory classifies what a vendor role lets its holder do.
type RoleCategory string

const (
	RoleCategoryPortalAdmin RoleCategory = "PORTAL_ADMIN"
	RoleCategoryReadOnly    RoleCategory = "READ_ONLY"
	RoleCategoryTicketing   RoleCategory = "TICKETING"
	RoleCategoryOrdering    RoleCategory = "ORDERING"
	RoleCategoryLOAApprover RoleCategory = "LOA_APPROVER"
	RoleCategoryBilling     RoleCategory = "BILLING"
	RoleCategoryReports     RoleCategory = "REPORTS"
)

// ValidRoleCategory reports whether c is one of the known categories.
func ValidRoleCategory(c RoleCategory) bool {
	switch c {
	case RoleCategoryPortalAdmin, RoleCategoryReadOnly, RoleCategoryTicketing,
		RoleCategoryOrdering, RoleCategoryLOAApprover, RoleCategoryBilling,
		RoleCategoryReports:
		return true
	}
	return false
}

// PushStatus is the recorded outcome of the most recent push attempt.
// The empty string means no push has been recorded yet.
type PushStatus string

const (
	PushStatusPending PushStatus = "PENDING"
	PushStatusSuccess PushStatus = "SUCCESS"
	PushStatusFailed  PushStatus = "FAILED"
)

// TestStatus is the recorded outcome of the most recent credential
// connection test. The empty string means never tested.
type TestStatus string

const (
	TestStatusOK     TestStatus = "OK"
	TestStatusFailed TestStatus = "Failed"
)

// Push actions understood by the push pipeline. Anything else falls
// through to upsert.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDeactivate = "deactivate"
	ActionDelete     = "delete"
	ActionUpsert     = "upsert"
)
