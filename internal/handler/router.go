/*
Package handler provides the HTTP handlers and routing setup for the PeerChat Server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"peerchat/internal/pkg/auth/jwt"
	"peerchat/internal/pkg/limiter"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/resp"
)

const (
	// AuthRate limits signup/login/reset attempts per IP.
	AuthRate  = 0.2
	AuthBurst = 5

	// ConnectRate limits WebSocket connection attempts per IP.
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "PeerChat Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)

			auth.Post("/signup", HandleSignup(deps))
			auth.Post("/login", HandleLogin(deps))
			auth.Get("/verify-email", HandleVerifyEmail(deps))
			auth.Post("/verify-email", HandleVerifyEmail(deps))
			auth.Post("/request-password-reset", HandleRequestPasswordReset(deps))
			auth.Post("/reset-password", HandleResetPassword(deps))
		})

		api.Route("/profile", func(profile chi.Router) {
			profile.Get("/", HandleGetProfile(deps))
			profile.Post("/image", HandleUpdateProfileImage(deps))
			profile.Post("/avatar/presign", HandlePresignAvatarURL(deps))
			profile.Get("/avatar", HandleAvatarDownload(deps))
		})

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.Post("/resolve", HandleResolveRoom(deps))
			rooms.Get("/{id}/messages", HandleRoomMessages(deps))
		})
	})

	// The socket endpoint path is part of the client wire contract.
	r.Get("/socket.io/", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
