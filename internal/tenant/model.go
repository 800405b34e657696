// Package tenant holds the community registry and the isolation guard
// applied to every request.
package tenant

import (
	"errors"
	"time"
)

// Tenant identifies one HOA community. Tenants are soft-disabled, never
// hard-deleted.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the tenant does not exist.
	ErrNotFound = errors.New("tenant: not found")
	// ErrDisabled indicates the tenant has been soft-disabled.
	ErrDisabled = errors.New("tenant: disabled")
)
