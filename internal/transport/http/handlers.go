// transport/http содержит HTTP-эндпоинты identity-сервиса.
// Здесь выполняется только маппинг данных и ошибок доменного слоя (service)
// в HTTP. Вся валидация и бизнес-логика находятся в пакете service.
//
// Принципы:
//   - Контекст запроса прокидывается в сервис без потерь;
//   - Ошибки сервиса явно транслируются в HTTP-статусы (см. toHTTP);
//   - ValidateToken при невалидном/просроченном токене НЕ возвращает
//     ошибку HTTP, а отдаёт {"valid":false} (контракт эндпоинта);
//   - Для 500 наружу не утекают детали внутренних ошибок; подробности
//     попадают в логи через мидлвары на уровне сервера.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mes-admin/identity-service/internal/models"
	"github.com/mes-admin/identity-service/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	service *service.Service
}

// NewHandlers создаёт HTTP-обработчики поверх сервисного слоя.
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{service: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IdCard   string `json:"id_card,omitempty"`
	Address  string `json:"address,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IdCard    string    `json:"id_card,omitempty"`
	Address   string    `json:"address,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Code:      u.Code,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		IdCard:    u.IdCard,
		Address:   u.Address,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken     string        `json:"access_token"`
	RefreshToken    string        `json:"refresh_token"`
	TokenType       string        `json:"token_type"`
	AccessExpiresAt int64         `json:"access_expires_at"`
	User            *userResponse `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type validateRequest struct {
	AccessToken string `json:"access_token"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	Code     string `json:"code,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

type passwordRequest struct {
	Length int `json:"length"`
}

type passwordResponse struct {
	Password string `json:"password"`
}

// RegisterUser регистрирует пользователя. 201 + запись пользователя.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		IdCard:   req.IdCard,
		Address:  req.Address,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := toUserResponse(user)
	writeJSON(w, http.StatusCreated, resp)
}

// LoginUser аутентифицирует пользователя и возвращает пару токенов.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	pair, user, err := h.service.LoginUser(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	userResp := toUserResponse(user)
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		TokenType:       "Bearer",
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
		User:            &userResp,
	})
}

// RefreshToken выпускает новую пару токенов по валидному refresh-токену.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	pair, err := h.service.RefreshTokenPair(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		TokenType:       "Bearer",
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	})
}

// ValidateToken валидирует access-токен.
// Контракт: при невалидном/просроченном токене HTTP-ошибку не возвращает —
// отдаёт {"valid":false}. При прочих ошибках — 500.
func (h *Handlers) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	claims, err := h.service.ValidateToken(req.AccessToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false})
			return
		}

		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    true,
		Code:     claims.Code,
		Username: claims.Username,
		Email:    claims.Email,
		Phone:    claims.Phone,
		UserID:   claims.UserID,
	})
}

// CreatePassword генерирует случайный пароль требуемой длины.
func (h *Handlers) CreatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, service.ErrInvalidInput)
		return
	}

	password, err := h.service.CreatePassword(req.Length)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, passwordResponse{Password: password})
}
