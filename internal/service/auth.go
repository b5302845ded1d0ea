package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mes-admin/identity-service/internal/models"
	"github.com/mes-admin/identity-service/internal/pkg/log"
	"github.com/mes-admin/identity-service/internal/pkg/redact"
	"github.com/mes-admin/identity-service/internal/security"
	"github.com/mes-admin/identity-service/internal/storage"
)

// RegisterInput — входные данные регистрации пользователя.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	IdCard   string
	Address  string
	Avatar   string
}

// RegisterUser регистрирует нового пользователя.
//
// Идентификаторы назначаются сервисом: ID — последовательный 128-битный
// ключ, Code — snowflake-код, который пользователь дальше использует как
// логин. Пароль сохраняется только в виде версионированного PBKDF2-хэша.
func (s *Service) RegisterUser(ctx context.Context, input RegisterInput) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	lg := log.From(ctx)

	if err := validateRegisterInput(&input); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkUserExistence(ctx, &input); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	code, err := s.flake.Next()
	if err != nil {
		lg.Error("business_code_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           s.seq.Next(),
		Code:         strconv.FormatUint(code, 10),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		IdCard:       input.IdCard,
		Address:      input.Address,
		Avatar:       input.Avatar,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("op", op),
		slog.String("code", user.Code),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// LoginUser выполняет вход. Логином может быть бизнес-код, email, телефон
// или номер удостоверения личности — тип определяется по формату значения.
func (s *Service) LoginUser(ctx context.Context, login, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.LoginUser"

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.userByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// CreatePassword генерирует случайный пароль требуемой длины.
func (s *Service) CreatePassword(length int) (string, error) {
	const op = "service.auth.CreatePassword"

	password, err := security.GenerateRandomPassword(length)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return password, nil
}

// userByLogin выбирает колонку поиска по формату логина.
func (s *Service) userByLogin(ctx context.Context, login string) (*models.User, error) {
	switch {
	case security.IsEmail(login):
		return s.storage.UserByEmail(ctx, login)
	case security.IsChinesePhone(login):
		return s.storage.UserByPhone(ctx, login)
	case security.IsIdCardWithCheck(login):
		return s.storage.UserByIdCard(ctx, login)
	default:
		return s.storage.UserByCode(ctx, login)
	}
}

// validateRegisterInput проверяет обязательные поля и их формат.
func validateRegisterInput(input *RegisterInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.IdCard = strings.TrimSpace(input.IdCard)

	if input.Username == "" || input.Password == "" || input.Email == "" || input.Phone == "" {
		return ErrInvalidInput
	}

	if !security.IsEmail(input.Email) {
		return ErrInvalidInput
	}

	if !security.IsChinesePhone(input.Phone) {
		return ErrInvalidInput
	}

	if input.IdCard != "" && !security.IsIdCardWithCheck(input.IdCard) {
		return ErrInvalidInput
	}

	return nil
}

// checkUserExistence проверяет занятость email/телефона/удостоверения.
func (s *Service) checkUserExistence(ctx context.Context, input *RegisterInput) error {
	lookups := []func(context.Context) (*models.User, error){
		func(ctx context.Context) (*models.User, error) { return s.storage.UserByEmail(ctx, input.Email) },
		func(ctx context.Context) (*models.User, error) { return s.storage.UserByPhone(ctx, input.Phone) },
	}

	if input.IdCard != "" {
		lookups = append(lookups, func(ctx context.Context) (*models.User, error) {
			return s.storage.UserByIdCard(ctx, input.IdCard)
		})
	}

	for _, lookup := range lookups {
		_, err := lookup(ctx)
		if err == nil {
			return ErrUserExists
		}

		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	return nil
}
