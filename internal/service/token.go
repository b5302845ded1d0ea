package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mes-admin/identity-service/internal/models"
	"github.com/mes-admin/identity-service/internal/pkg/log"
	"github.com/mes-admin/identity-service/internal/storage"
)

// Claims — клеймы access-токена. Имена полей фиксированы форматом на проводе
// (Code/Username/Email/Phone/Id) и должны совпадать с уже выпущенными токенами.
type Claims struct {
	Code     string `json:"Code"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Phone    string `json:"Phone"`
	UserID   string `json:"Id"`
	jwt.RegisteredClaims
}

// refreshClaims — клеймы refresh-токена: только subject/jti/iat и сроки.
// Персональных данных refresh-токен не несёт намеренно.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// IssueTokenPair выпускает пару access+refresh токенов для пользователя.
// Возвращает ErrInvalidCredentials, если запись пользователя не передана.
func (s *Service) IssueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.token.IssueTokenPair"

	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issuePair(ctx, user, user.Code)
}

// issuePair подписывает обе половины пары. refreshSubject задаётся отдельно:
// при обновлении токенов subject берётся из предъявленного refresh-токена,
// даже если запись пользователя к этому моменту пуста.
func (s *Service) issuePair(ctx context.Context, user *models.User, refreshSubject string) (*models.TokenPair, error) {
	const op = "service.token.issuePair"

	lg := log.From(ctx)
	now := time.Now().UTC()
	accessExpires := now.Add(s.cfg.AccessTokenTTL)

	access := Claims{
		Code:     user.Code,
		Username: user.Username,
		Email:    user.Email,
		Phone:    user.Phone,
		UserID:   user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Code,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	refresh := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   refreshSubject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	accessToken, err := s.sign(access)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.sign(refresh)
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpires,
	}, nil
}

// sign подписывает клеймы закрытым ключом (RSA-SHA256).
// Объект токена создаётся заново на каждый вызов.
func (s *Service) sign(claims jwt.Claims) (string, error) {
	key, err := s.keys.Private()
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

// ValidateToken проверяет подпись и клеймы токена (access или refresh).
//
// Проверяются: алгоритм (только RS256), издатель, аудитория и срок действия
// с нулевым допуском по часам — просрочка даже на мгновение даёт
// ErrTokenExpired. Все прочие дефекты (подпись, издатель, аудитория,
// структура) сворачиваются в ErrInvalidToken без детализации.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	const op = "service.token.ValidateToken"

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return s.keys.Public()
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, ErrKeyMaterial) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// RefreshTokenPair проверяет refresh-токен и выпускает новую пару с новыми
// jti для обеих половин (ротация).
//
// Старые refresh-токены при этом не отзываются и остаются криптографически
// валидными до естественного истечения: серверного списка отзыва нет,
// это осознанное ограничение stateless-схемы.
//
// Если пользователь по subject уже не существует, пара выпускается поверх
// пустой записи: вызывающая сторона трактует полностью пустые клеймы как
// "пользователь удалён".
func (s *Service) RefreshTokenPair(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.token.RefreshTokenPair"

	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subject := claims.Subject
	if subject == "" {
		return nil, fmt.Errorf("%s: missing subject: %w", op, ErrInvalidToken)
	}

	user, err := s.lookupUser(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issuePair(ctx, user, subject)
}

// lookupUser ищет пользователя по бизнес-коду: сначала в кэше, затем в БД.
// Ошибки кэша не фатальны — выполняется поход в хранилище. Отсутствие
// записи отдаётся как пустой пользователь, а не как ошибка.
func (s *Service) lookupUser(ctx context.Context, code string) (*models.User, error) {
	const op = "service.token.lookupUser"

	lg := log.From(ctx)

	if s.ucache != nil {
		cached, ok, err := s.ucache.Get(ctx, code)
		if err != nil {
			lg.Warn("user_cache_get_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.storage.UserByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &models.User{}, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.ucache != nil {
		if err := s.ucache.Set(ctx, user, s.cacheTTL); err != nil {
			lg.Warn("user_cache_set_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return user, nil
}
