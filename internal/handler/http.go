package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/service"
	"github.com/quiz-world/internal/websocket"
)

// Options configures the optional parts of the router
type Options struct {
	// AnonKey is the static bearer key; empty disables the check
	AnonKey string
	// Ready reports store health for /ready
	Ready func(ctx context.Context) error
	// Metrics is mounted at MetricsPath when set
	Metrics     http.Handler
	MetricsPath string
}

// Handler provides HTTP handlers for the world API
type Handler struct {
	presence    *service.PresenceService
	chat        *service.ChatService
	leaderboard *service.LeaderboardService
	hub         *websocket.Hub
	opts        Options
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler. hub may be nil.
func NewHandler(
	presence *service.PresenceService,
	chat *service.ChatService,
	leaderboard *service.LeaderboardService,
	hub *websocket.Hub,
	opts Options,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		presence:    presence,
		chat:        chat,
		leaderboard: leaderboard,
		hub:         hub,
		opts:        opts,
		logger:      logger,
	}
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	if h.opts.Metrics != nil {
		path := h.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, h.opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(h.opts.AnonKey, false))

		r.Route("/player", func(r chi.Router) {
			r.Post("/join", h.JoinPlayer)
			r.Post("/create", h.CreatePlayer)
			r.Post("/position", h.UpdatePosition)
			r.Get("/list", h.ListPlayers)
			r.Post("/duel-result", h.ApplyDuelResult)
			r.Post("/badge", h.GrantBadge)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/send", h.SendChat)
			r.Get("/messages", h.ChatMessages)
		})

		r.Route("/gym", func(r chi.Router) {
			r.Post("/submit", h.SubmitScore)
			r.Get("/leaderboard", h.Leaderboard)
		})

		r.Get("/cleanup", h.Cleanup)
	})

	if h.hub != nil {
		r.With(bearerAuth(h.opts.AnonKey, true)).Get("/ws", h.HandleWebSocket)
	}

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessTokenParam carries the key for clients that cannot set headers,
// such as browser WebSockets
const accessTokenParam = "access_token"

// bearerAuth rejects requests that do not carry the anonymous key. With
// allowQuery the key may also be passed as the access_token query parameter.
func bearerAuth(key string, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok && allowQuery {
				token = r.URL.Query().Get(accessTokenParam)
				ok = token != ""
			}
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthorized.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a service error to its status; internal failures are
// logged and reported with the generic fallback message
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(fallback, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decode reads a JSON body into dst and checks its validate tags
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest.Error())
		return false
	}
	if err := domain.Validate(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Serve(h.hub, h.logger, w, r)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			h.writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
