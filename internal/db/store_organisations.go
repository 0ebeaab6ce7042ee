package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talentandco/recrutia/internal/models"
)

// Organisation methods. All reads exclude soft-deleted rows; a soft-deleted
// organisation behaves as if it does not exist.

const organisationColumns = `
	o.id, o.name, o.slug, o.description, o.logo, o.email, o.phone, o.website,
	o.address, o.owner_id, o.created_at, o.updated_at, o.deleted_at`

func scanOrganisation(row pgx.Row, org *models.Organisation) error {
	return row.Scan(
		&org.ID, &org.Name, &org.Slug, &org.Description, &org.Logo, &org.Email,
		&org.Phone, &org.Website, &org.Address, &org.OwnerID, &org.CreatedAt,
		&org.UpdatedAt, &org.DeletedAt,
	)
}

// GetOrganisationBySlug returns a non-deleted organisation by its slug.
func (db *DB) GetOrganisationBySlug(ctx context.Context, slug string) (*models.Organisation, error) {
	var org models.Organisation
	err := scanOrganisation(db.Pool.QueryRow(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		WHERE o.slug = $1 AND o.deleted_at IS NULL
	`, slug), &org)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get organisation by slug: %w", err)
	}
	return &org, nil
}

// GetOrganisationByID returns a non-deleted organisation by its ID.
func (db *DB) GetOrganisationByID(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	var org models.Organisation
	err := scanOrganisation(db.Pool.QueryRow(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		WHERE o.id = $1 AND o.deleted_at IS NULL
	`, id), &org)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get organisation by ID: %w", err)
	}
	return &org, nil
}

// ListOrganisationsForUser returns one page of the non-deleted organisations
// the user is a member of, newest first, with owner profiles and
// establishment counts, plus the total count for pagination.
func (db *DB) ListOrganisationsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OrganisationSummary, int, error) {
	var total int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM organisations o
		JOIN organisation_user ou ON ou.organisation_id = o.id
		WHERE ou.user_id = $1 AND o.deleted_at IS NULL
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count organisations: %w", err)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT`+organisationColumns+`,
		       u.id, u.name, u.email,
		       (SELECT COUNT(*) FROM establishments e WHERE e.organisation_id = o.id) AS establishments_count
		FROM organisations o
		JOIN organisation_user ou ON ou.organisation_id = o.id
		JOIN users u ON u.id = o.owner_id
		WHERE ou.user_id = $1 AND o.deleted_at IS NULL
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list organisations: %w", err)
	}
	defer rows.Close()

	var summaries []*models.OrganisationSummary
	for rows.Next() {
		var s models.OrganisationSummary
		err := rows.Scan(
			&s.ID, &s.Name, &s.Slug, &s.Description, &s.Logo, &s.Email,
			&s.Phone, &s.Website, &s.Address, &s.OwnerID, &s.CreatedAt,
			&s.UpdatedAt, &s.DeletedAt,
			&s.Owner.ID, &s.Owner.Name, &s.Owner.Email,
			&s.EstablishmentsCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan organisation summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list organisations: %w", err)
	}

	return summaries, total, nil
}

// ListAllOrganisations returns every non-deleted organisation ordered by
// name. Used by the admin CLI.
func (db *DB) ListAllOrganisations(ctx context.Context) ([]*models.Organisation, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT`+organisationColumns+`
		FROM organisations o
		WHERE o.deleted_at IS NULL
		ORDER BY o.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list all organisations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organisation
	for rows.Next() {
		var org models.Organisation
		err := rows.Scan(
			&org.ID, &org.Name, &org.Slug, &org.Description, &org.Logo, &org.Email,
			&org.Phone, &org.Website, &org.Address, &org.OwnerID, &org.CreatedAt,
			&org.UpdatedAt, &org.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan organisation: %w", err)
		}
		orgs = append(orgs, &org)
	}

	return orgs, rows.Err()
}

// CreateOrganisationWithOwner inserts the organisation and attaches its owner
// as the first member in a single transaction.
func (db *DB) CreateOrganisationWithOwner(ctx context.Context, org *models.Organisation) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organisations (id, name, slug, description, logo, email, phone, website, address, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, org.ID, org.Name, org.Slug, org.Description, org.Logo, org.Email,
			org.Phone, org.Website, org.Address, org.OwnerID, org.CreatedAt, org.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert organisation: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO organisation_user (organisation_id, user_id)
			VALUES ($1, $2)
		`, org.ID, org.OwnerID)
		if err != nil {
			return fmt.Errorf("attach owner: %w", err)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("create organisation: %w", err)
	}

	db.logger.Info().
		Str("organisation_id", org.ID.String()).
		Str("slug", org.Slug).
		Msg("organisation created")
	return nil
}

// UpdateOrganisation persists the mutable fields of an organisation.
func (db *DB) UpdateOrganisation(ctx context.Context, org *models.Organisation) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE organisations
		SET name = $2, slug = $3, description = $4, logo = $5, email = $6,
		    phone = $7, website = $8, address = $9, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, org.ID, org.Name, org.Slug, org.Description, org.Logo, org.Email,
		org.Phone, org.Website, org.Address)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("update organisation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SoftDeleteOrganisation marks an organisation as deleted. Membership pivot
// rows and establishments are left untouched.
func (db *DB) SoftDeleteOrganisation(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE organisations
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete organisation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	db.logger.Info().Str("organisation_id", id.String()).Msg("organisation soft deleted")
	return nil
}

// OrganisationSlugExists reports whether a non-deleted organisation other than
// excludeID already uses the slug. Pass uuid.Nil to check against all rows.
func (db *DB) OrganisationSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM organisations
			WHERE slug = $1 AND deleted_at IS NULL AND id <> $2
		)
	`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organisation slug: %w", err)
	}
	return exists, nil
}

// IsOrganisationMember reports whether the user appears in the organisation's
// membership pivot.
func (db *DB) IsOrganisationMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var member bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM organisation_user
			WHERE organisation_id = $1 AND user_id = $2
		)
	`, orgID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check organisation membership: %w", err)
	}
	return member, nil
}

// AddOrganisationMember attaches a user to an organisation. Attaching an
// existing member is a no-op.
func (db *DB) AddOrganisationMember(ctx context.Context, orgID, userID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO organisation_user (organisation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, orgID, userID)
	if err != nil {
		return fmt.Errorf("add organisation member: %w", err)
	}
	return nil
}

// ListOrganisationMembers returns the public profiles of an organisation's
// members ordered by name.
func (db *DB) ListOrganisationMembers(ctx context.Context, orgID uuid.UUID) ([]models.PublicProfile, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT u.id, u.name, u.email
		FROM organisation_user ou
		JOIN users u ON u.id = ou.user_id
		WHERE ou.organisation_id = $1
		ORDER BY u.name, u.email
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list organisation members: %w", err)
	}
	defer rows.Close()

	var members []models.PublicProfile
	for rows.Next() {
		var p models.PublicProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan organisation member: %w", err)
		}
		members = append(members, p)
	}

	return members, rows.Err()
}
