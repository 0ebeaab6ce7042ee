package db

import (
	"context"
	"fmt"
)

// TenantCounts holds the row counts exported by the metrics collector.
type TenantCounts struct {
	Users                int64
	Organisations        int64
	DeletedOrganisations int64
	Establishments       int64
	OrganisationMembers  int64
}

// GetTenantCounts returns the current row counts in a single round trip.
func (db *DB) GetTenantCounts(ctx context.Context) (*TenantCounts, error) {
	var c TenantCounts
	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM organisations WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM organisations WHERE deleted_at IS NOT NULL),
			(SELECT COUNT(*) FROM establishments),
			(SELECT COUNT(*) FROM organisation_user)
	`).Scan(&c.Users, &c.Organisations, &c.DeletedOrganisations, &c.Establishments, &c.OrganisationMembers)
	if err != nil {
		return nil, fmt.Errorf("get tenant counts: %w", err)
	}
	return &c, nil
}
