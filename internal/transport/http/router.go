package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mes-admin/identity-service/internal/middleware"
	"github.com/mes-admin/identity-service/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с gorilla/mux и подключёнными
// middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := mux.NewRouter()

	api := root
	if opts.BasePath != "" {
		api = root.PathPrefix(opts.BasePath).Subrouter()
	}

	registerRoutes(api, NewHandlers(svc))

	// Middleware (внешний -> внутренний): паники ловим раньше всего,
	// request-id формируем до логирования.
	return middleware.Chain(root,
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Metrics(),
		middleware.Timeout(opts.Timeout),
	)
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r *mux.Router, h *Handlers) {
	r.HandleFunc("/auth/register", h.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.LoginUser).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.RefreshToken).Methods(http.MethodPost)
	r.HandleFunc("/auth/validate", h.ValidateToken).Methods(http.MethodPost)
	r.HandleFunc("/auth/password", h.CreatePassword).Methods(http.MethodPost)
}
