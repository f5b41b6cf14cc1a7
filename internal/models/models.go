// Package models contains the JSON request and response shapes of the HTTP
// API.
package models

// RegisterRequest is the body of POST /api/user/register and
// POST /api/user/login.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ShortenRequest is the body of POST /api/shorten.
type ShortenRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ShortenResponse carries the resulting short URL.
type ShortenResponse struct {
	Result string `json:"result"`
}

// UserURL describes one link owned by the caller.
type UserURL struct {
	Code        string `json:"code"`
	ShortURL    string `json:"short_url" validate:"required,url"`
	OriginalURL string `json:"original_url" validate:"required,url"`
}

// UserUrls is the caller's dashboard listing. It is always present in a
// response, possibly empty, never null.
type UserUrls []UserURL

// UpdateURLRequest is the body of PUT /api/user/urls/{code}.
type UpdateURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// InternalStatsResponse reports store totals for the trusted-subnet
// statistics endpoint.
type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

// Storage backend kinds selected from the configuration.
const (
	StorageTypeUnknown = iota
	StorageTypeFile
	StorageTypeMemory
)
