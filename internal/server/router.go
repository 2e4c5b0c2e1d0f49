package server

import (
	"net/http"
	"time"

	"github.com/brizzai/google-signup/internal/auth/handlers"
	"github.com/brizzai/google-signup/internal/logger"
	"github.com/brizzai/google-signup/internal/server/middleware"
	"github.com/brizzai/google-signup/internal/utils"
	"github.com/brizzai/google-signup/internal/web"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// HealthCheckHandler reports liveness; it does not contact the identity provider
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

// NewRouter wires every route and the middleware chain
func NewRouter(loginHandler *handlers.Handler, renderer *web.Renderer) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", HealthCheckHandler).Methods(http.MethodGet)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := renderer.RenderIndex(w); err != nil {
			logger.FromContext(r.Context()).Error("Failed to render index", zap.Error(err))
			utils.WriteText(w, http.StatusInternalServerError, "internal server error")
		}
	}).Methods(http.MethodGet)

	loginHandler.RegisterRoutes(r, web.LoginPath)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteText(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteText(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return middleware.RequestID(middleware.AccessLog(middleware.Recover(r)))
}
