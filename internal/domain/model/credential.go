package model

import "time"

// PortalCredential holds the encrypted credential bundle for one portal.
// DataEncrypted is opaque ciphertext produced by the secrets codec; the
// plaintext is a key-value mapping (username, password, api_key, ...).
// One-to-one with Portal.
type PortalCredential struct {
	PortalID        int64
	DataEncrypted   string
	LastTestAt      *time.Time
	LastTestStatus  TestStatus
	LastTestMessage string
}
