package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя административного бэкенда.
//
// Поля идентификации:
//   - ID — внутренний первичный ключ (последовательный 128-битный идентификатор);
//   - Code — бизнес-код пользователя (snowflake); используется как логин
//     и как subject в токенах.
type User struct {
	ID           uuid.UUID
	Code         string
	Username     string
	Email        string
	Phone        string
	IdCard       string
	Address      string
	Avatar       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsZero сообщает, что запись пустая (например, пользователь не найден
// при обновлении токенов — см. service.RefreshTokenPair).
func (u *User) IsZero() bool {
	return u == nil || (u.Code == "" && u.ID == uuid.Nil)
}
