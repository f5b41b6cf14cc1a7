// Package link defines the shortened link model.
package link

// Link maps a short code to its target URL and records the owning user.
type Link struct {
	// Code is the public short identifier and the unique key of the store.
	Code string `json:"code"`

	// TargetURL is stored verbatim; this layer performs no URL validation.
	TargetURL string `json:"target_url"`

	// OwnerID references the user the link was created by. Only the owner
	// may read it through the API, update it, or delete it; following the
	// redirect needs no identity at all.
	OwnerID string `json:"owner_id"`
}
