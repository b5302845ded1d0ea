package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mes-admin/identity-service/internal/models"
	"github.com/mes-admin/identity-service/internal/storage"
)

const userColumns = `
	id, code, username, email, phone, id_card, address, avatar,
	password_hash, created_at, updated_at
`

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, code, username, email, phone, id_card, address, avatar,
		                  password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Code,
		user.Username,
		user.Email,
		user.Phone,
		user.IdCard,
		user.Address,
		user.Avatar,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByCode находит пользователя по бизнес-коду.
func (s *Storage) UserByCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.postgres.UserByCode"

	return s.userBy(ctx, op, "code", code)
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	return s.userBy(ctx, op, "email", email)
}

// UserByPhone находит пользователя по номеру телефона.
func (s *Storage) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	const op = "storage.postgres.UserByPhone"

	return s.userBy(ctx, op, "phone", phone)
}

// UserByIdCard находит пользователя по номеру удостоверения личности.
func (s *Storage) UserByIdCard(ctx context.Context, idCard string) (*models.User, error) {
	const op = "storage.postgres.UserByIdCard"

	return s.userBy(ctx, op, "id_card", idCard)
}

// userBy выполняет выборку по одной из уникальных колонок.
// Имя колонки всегда задаётся константой на стороне кода, не пользователем.
func (s *Storage) userBy(ctx context.Context, op, column, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	var user models.User
	err := s.db.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Code,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.IdCard,
		&user.Address,
		&user.Avatar,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}
