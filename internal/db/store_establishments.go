package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talentandco/recrutia/internal/models"
)

// Establishment methods

const establishmentColumns = `
	e.id, e.organisation_id, e.name, e.slug, e.description, e.logo, e.settings,
	e.email, e.phone, e.website, e.address, e.created_at, e.updated_at`

func scanEstablishment(row pgx.Row, est *models.Establishment) error {
	return row.Scan(
		&est.ID, &est.OrganisationID, &est.Name, &est.Slug, &est.Description,
		&est.Logo, &est.Settings, &est.Email, &est.Phone, &est.Website,
		&est.Address, &est.CreatedAt, &est.UpdatedAt,
	)
}

// GetEstablishmentBySlug returns an establishment of the given organisation by
// its slug.
func (db *DB) GetEstablishmentBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Establishment, error) {
	var est models.Establishment
	err := scanEstablishment(db.Pool.QueryRow(ctx, `
		SELECT`+establishmentColumns+`
		FROM establishments e
		WHERE e.organisation_id = $1 AND e.slug = $2
	`, orgID, slug), &est)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get establishment by slug: %w", err)
	}
	return &est, nil
}

// ListEstablishments returns all establishments of an organisation, newest
// first.
func (db *DB) ListEstablishments(ctx context.Context, orgID uuid.UUID) ([]*models.Establishment, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT`+establishmentColumns+`
		FROM establishments e
		WHERE e.organisation_id = $1
		ORDER BY e.created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list establishments: %w", err)
	}
	defer rows.Close()

	var ests []*models.Establishment
	for rows.Next() {
		var est models.Establishment
		err := rows.Scan(
			&est.ID, &est.OrganisationID, &est.Name, &est.Slug, &est.Description,
			&est.Logo, &est.Settings, &est.Email, &est.Phone, &est.Website,
			&est.Address, &est.CreatedAt, &est.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan establishment: %w", err)
		}
		ests = append(ests, &est)
	}

	return ests, rows.Err()
}

// CreateEstablishment inserts a new establishment.
func (db *DB) CreateEstablishment(ctx context.Context, est *models.Establishment) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO establishments (id, organisation_id, name, slug, description, logo, settings, email, phone, website, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, est.ID, est.OrganisationID, est.Name, est.Slug, est.Description, est.Logo,
		est.Settings, est.Email, est.Phone, est.Website, est.Address,
		est.CreatedAt, est.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("create establishment: %w", err)
	}

	db.logger.Info().
		Str("establishment_id", est.ID.String()).
		Str("organisation_id", est.OrganisationID.String()).
		Str("slug", est.Slug).
		Msg("establishment created")
	return nil
}

// UpdateEstablishment persists the mutable fields of an establishment.
func (db *DB) UpdateEstablishment(ctx context.Context, est *models.Establishment) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE establishments
		SET name = $2, slug = $3, description = $4, logo = $5, settings = $6,
		    email = $7, phone = $8, website = $9, address = $10, updated_at = NOW()
		WHERE id = $1
	`, est.ID, est.Name, est.Slug, est.Description, est.Logo, est.Settings,
		est.Email, est.Phone, est.Website, est.Address)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("update establishment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteEstablishment removes an establishment.
func (db *DB) DeleteEstablishment(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM establishments WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete establishment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EstablishmentSlugExists reports whether an establishment other than
// excludeID already uses the slug. Establishment slugs are globally unique.
func (db *DB) EstablishmentSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM establishments
			WHERE slug = $1 AND id <> $2
		)
	`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check establishment slug: %w", err)
	}
	return exists, nil
}

// CountEstablishments returns the number of establishments in an organisation.
func (db *DB) CountEstablishments(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM establishments WHERE organisation_id = $1
	`, orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count establishments: %w", err)
	}
	return count, nil
}
