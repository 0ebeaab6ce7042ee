package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/talentandco/recrutia/internal/models"
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// User methods

const userColumns = `
	u.id, u.name, u.email, u.password_hash, u.oidc_subject, u.role_id, r.name,
	u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.OIDCSubject,
		&user.RoleID, &user.RoleName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns a user by their ID, with the role name joined in.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns a user by their email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1
	`, email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetUserByOIDCSubject returns a user by their OIDC subject.
func (db *DB) GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.oidc_subject = $1
	`, subject))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by OIDC subject: %w", err)
	}
	return user, nil
}

// CreateUser creates a new user.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, oidc_subject, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.OIDCSubject, user.RoleID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateUserRole assigns the named role to a user.
func (db *DB) UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.RoleName) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET role_id = (SELECT id FROM roles WHERE name = $2), updated_at = NOW()
		WHERE id = $1
	`, userID, string(role))
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetRoleByName returns a role by its name.
func (db *DB) GetRoleByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	var role models.Role
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM roles
		WHERE name = $1
	`, string(name)).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

// UserHasPermission reports whether the user's role grants the named permission.
func (db *DB) UserHasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	var has bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM users u
			JOIN permission_role pr ON pr.role_id = u.role_id
			JOIN permissions p ON p.id = pr.permission_id
			WHERE u.id = $1 AND p.name = $2
		)
	`, userID, permission).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("check user permission: %w", err)
	}
	return has, nil
}

// ListUsers returns all users ordered by name.
func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		ORDER BY u.name, u.email
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.OIDCSubject,
			&u.RoleID, &u.RoleName, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}
