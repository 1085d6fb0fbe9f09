package model

import (
	"errors"
	"time"
)

// ErrNoSubject is returned by Validate when neither or both of the
// user/contact subject fields are set.
var ErrNoSubject = errors.New("assignment must reference exactly one of user or contact")

// AccessAssignment links one person (an internal user or an external
// contact, never both) to a role on a vendor portal. It is the unit the
// push pipeline operates on: the pipeline reads the assignment and writes
// back only the four last-push fields.
type AccessAssignment struct {
	ID int64

	// Exactly one of UserName and ContactName must be set.
	UserName    string
	ContactName string

	PortalID int64
	RoleID   int64

	AccountIdentifier string
	UsernameOnPortal  string
	Active            bool
	MFAType           string // e.g. TOTP, SMS, Duo, Okta
	SSOProvider       string // e.g. Okta, AzureAD
	LastVerified      *time.Time
	ExpiresOn         *time.Time
	Notes             string

	// RemoteID is the vendor-side identifier once access exists remotely.
	RemoteID string

	// Push result fields, written only by the push pipeline.
	LastPushStatus  PushStatus
	LastPushAt      *time.Time
	LastPushMessage string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Eagerly loaded relations; populated by store reads that declare so.
	Portal *Portal
	Role   *VendorRole
}

// Validate checks the exactly-one-subject invariant. The storage layer
// mirrors it with a CHECK constraint.
func (a AccessAssignment) Validate() error {
	if (a.UserName == "") == (a.ContactName == "") {
		return ErrNoSubject
	}
	return nil
}

// SubjectName returns whichever of the user or contact reference is set.
func (a AccessAssignment) SubjectName() string {
	if a.UserName != "" {
		return a.UserName
	}
	return a.ContactName
}

// NeedsPush reports whether local state has changed since the last push
// attempt. It is derived on read, never stored: true when no push has been
// recorded, or when the record was modified strictly after the last push.
func (a AccessAssignment) NeedsPush() bool {
	if a.LastPushAt == nil {
		return true
	}
	return a.UpdatedAt.After(*a.LastPushAt)
}
