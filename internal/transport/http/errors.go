package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mes-admin/identity-service/internal/security"
	"github.com/mes-admin/identity-service/internal/service"
)

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе с ошибкой.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// toHTTP маппит ошибку сервисного слоя в HTTP-статус и унифицированный ответ.
//
// Маппинг:
//   - ErrInvalidInput/ErrPasswordLength -> 400;
//   - ErrInvalidCredentials/ErrInvalidToken/ErrTokenExpired -> 401;
//   - ErrUserExists -> 409;
//   - прочее (включая ErrKeyMaterial) -> 500 с единым безопасным сообщением.
func toHTTP(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, security.ErrPasswordLength):
		return http.StatusBadRequest, errorResponse("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse("invalid_credentials", "invalid credentials")
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse("token_expired", "token expired")
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse("invalid_token", "invalid token")
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, errorResponse("already_exists", "user already exists")
	default:
		return http.StatusInternalServerError, errorResponse("internal", "internal server error")
	}
}

func errorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}

// writeError пишет корректный статус/тело, добавляет request_id
// из заголовка, если он есть. Детали внутренних ошибок наружу не утекают.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := toHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
