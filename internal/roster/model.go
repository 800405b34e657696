// Package roster adapts the resident directory maintained by the wider
// application. The ledger core only reads it.
package roster

import "context"

// Member is one resident as the roster service reports it.
type Member struct {
	ID          int64
	TenantID    int64
	DisplayName string
	Unit        string
	IsOwner     bool
	Active      bool
}

// Port is the external roster collaborator consumed by billing and
// delinquency queries.
type Port interface {
	// ListOwners returns active owner members for a tenant, ordered by id.
	ListOwners(ctx context.Context, tenantID int64) ([]Member, error)
	// GetMembers resolves display data for the given resident ids.
	// Unknown ids are simply absent from the result.
	GetMembers(ctx context.Context, tenantID int64, ids []int64) (map[int64]Member, error)
}
