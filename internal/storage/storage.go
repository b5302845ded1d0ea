package storage

import (
	"context"
	"errors"

	"github.com/mes-admin/identity-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (code/email/phone).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByCode находит пользователя по бизнес-коду.
	UserByCode(ctx context.Context, code string) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByPhone находит пользователя по номеру телефона.
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	// UserByIdCard находит пользователя по номеру удостоверения личности.
	UserByIdCard(ctx context.Context, idCard string) (*models.User, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
