package http

// Файл unit-тестов транспортного слоя (HTTP) identity-сервиса.
// Все тесты изолированы: для каждого создаётся отдельный httptest-сервер
// поверх сервисного слоя с gomock-хранилищем.

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/mes-admin/identity-service/internal/config"
	"github.com/mes-admin/identity-service/internal/ident"
	"github.com/mes-admin/identity-service/internal/models"
	"github.com/mes-admin/identity-service/internal/security"
	"github.com/mes-admin/identity-service/internal/service"
	"github.com/mes-admin/identity-service/internal/storage"
	"github.com/mes-admin/identity-service/mocks"

	"github.com/google/uuid"
)

// testKeyPair генерирует одноразовую ключевую пару RSA в PEM.
func testKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return string(privPEM), string(pubPEM)
}

// testCfg — минимальная конфигурация сервиса для тестов транспорта.
func testCfg(t *testing.T) config.AuthConfig {
	t.Helper()

	privPEM, pubPEM := testKeyPair(t)
	return config.AuthConfig{
		PrivateKeyPEM:   privPEM,
		PublicKeyPEM:    pubPEM,
		AccessTokenTTL:  2 * time.Second,
		RefreshTokenTTL: time.Minute,
		Issuer:          "identity-service",
		Audience:        []string{"admin-backend"},
	}
}

// newServer поднимает httptest-сервер с переданными моками хранилища.
func newServer(t *testing.T) (*httptest.Server, *service.Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	seq := ident.NewSequential()
	flake, err := ident.NewSnowflake(1, 1)
	require.NoError(t, err)

	svc := service.New(st, testCfg(t), seq, flake)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(svc, Options{Logger: logger, Timeout: 5 * time.Second}))
	t.Cleanup(srv.Close)

	return srv, svc, st, ctrl
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func testStoredUser(t *testing.T, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	return &models.User{
		ID:           uuid.New(),
		Code:         "7245372893245441",
		Username:     "张伟",
		Email:        "user@example.com",
		Phone:        "13812345678",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestRegister_OK(t *testing.T) {
	t.Parallel()

	srv, _, st, ctrl := newServer(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "new@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().UserByPhone(gomock.Any(), "13912345678").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	resp := postJSON(t, srv.URL+"/auth/register", registerRequest{
		Username: "李娜",
		Password: "Sup3r$ecret!",
		Email:    "new@example.com",
		Phone:    "13912345678",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[userResponse](t, resp)
	require.NotEmpty(t, body.ID)
	require.NotEmpty(t, body.Code)
	require.Equal(t, "李娜", body.Username)
	require.Equal(t, "new@example.com", body.Email)
}

func TestRegister_BadJSON(t *testing.T) {
	t.Parallel()

	srv, _, _, ctrl := newServer(t)
	defer ctrl.Finish()

	resp, err := http.Post(srv.URL+"/auth/register", "application/json",
		bytes.NewReader([]byte(`{"unknown_field":1}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_Conflict(t *testing.T) {
	t.Parallel()

	srv, _, st, ctrl := newServer(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "taken@example.com").
		Return(testStoredUser(t, "irrelevant"), nil)

	resp := postJSON(t, srv.URL+"/auth/register", registerRequest{
		Username: "李娜",
		Password: "Sup3r$ecret!",
		Email:    "taken@example.com",
		Phone:    "13912345678",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	require.Equal(t, "already_exists", body.Error.Code)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	srv, _, st, ctrl := newServer(t)
	defer ctrl.Finish()

	const password = "Sup3r$ecret!"
	user := testStoredUser(t, password)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	resp := postJSON(t, srv.URL+"/auth/login", loginRequest{
		Login:    user.Email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[authResponse](t, resp)
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	require.Equal(t, "Bearer", body.TokenType)
	require.Greater(t, body.AccessExpiresAt, time.Now().Unix()-1)
	require.NotNil(t, body.User)
	require.Equal(t, user.Code, body.User.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	srv, _, st, ctrl := newServer(t)
	defer ctrl.Finish()

	const password = "Sup3r$ecret!"
	user := testStoredUser(t, password)

	st.EXPECT().UserByCode(gomock.Any(), user.Code).Return(user, nil)

	resp := postJSON(t, srv.URL+"/auth/login", loginRequest{
		Login:    user.Code,
		Password: "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	require.Equal(t, "invalid_credentials", body.Error.Code)
}

func TestRefresh_OK(t *testing.T) {
	t.Parallel()

	srv, svc, st, ctrl := newServer(t)
	defer ctrl.Finish()

	user := testStoredUser(t, "irrelevant")

	pair, err := svc.IssueTokenPair(context.Background(), user)
	require.NoError(t, err)

	st.EXPECT().UserByCode(gomock.Any(), user.Code).Return(user, nil)

	resp := postJSON(t, srv.URL+"/auth/refresh", refreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[authResponse](t, resp)
	require.NotEmpty(t, body.AccessToken)
	require.NotEqual(t, pair.AccessToken, body.AccessToken)
}

func TestRefresh_InvalidToken(t *testing.T) {
	t.Parallel()

	srv, _, _, ctrl := newServer(t)
	defer ctrl.Finish()

	resp := postJSON(t, srv.URL+"/auth/refresh", refreshRequest{
		RefreshToken: "garbage.token.here",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody[ErrorResponse](t, resp)
	require.Equal(t, "invalid_token", body.Error.Code)
}

func TestValidate_ContractNoErrorOnInvalid(t *testing.T) {
	t.Parallel()

	srv, svc, _, ctrl := newServer(t)
	defer ctrl.Finish()

	user := testStoredUser(t, "irrelevant")
	pair, err := svc.IssueTokenPair(context.Background(), user)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/auth/validate", validateRequest{
			AccessToken: pair.AccessToken,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[validateResponse](t, resp)
		require.True(t, body.Valid)
		require.Equal(t, user.Code, body.Code)
		require.Equal(t, user.Username, body.Username)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/auth/validate", validateRequest{
			AccessToken: "not-a-token",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[validateResponse](t, resp)
		require.False(t, body.Valid)
		require.Empty(t, body.Code)
	})
}

func TestCreatePassword(t *testing.T) {
	t.Parallel()

	srv, _, _, ctrl := newServer(t)
	defer ctrl.Finish()

	resp := postJSON(t, srv.URL+"/auth/password", passwordRequest{Length: 16})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[passwordResponse](t, resp)
	require.Len(t, body.Password, 16)

	resp = postJSON(t, srv.URL+"/auth/password", passwordRequest{Length: 4})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	t.Parallel()

	srv, _, _, ctrl := newServer(t)
	defer ctrl.Finish()

	raw, err := json.Marshal(refreshRequest{RefreshToken: "garbage"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/refresh", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "rid-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	body := decodeBody[ErrorResponse](t, resp)
	require.Equal(t, "rid-123", body.Error.RequestID)
	require.Equal(t, "rid-123", resp.Header.Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv, _, _, ctrl := newServer(t)
	defer ctrl.Finish()

	resp, err := http.Get(srv.URL + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
