// Package user defines the user model shared by the user directory,
// authentication, and the service layer.
package user

// User represents a registered account.
type User struct {
	// ID is the opaque identifier links are owned by. It is allocated at
	// registration and never changes.
	ID string `json:"id"`

	// Email is unique across the directory and compared case-sensitively.
	Email string `json:"email"`

	// CredentialHash is the bcrypt digest of the password. The plaintext
	// password is never stored.
	CredentialHash string `json:"credential_hash"`
}
