/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
upgrading the HTTP connection to WebSocket, and initiating the client lifecycle. Room
membership is negotiated afterwards over the socket itself via the join_room event.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"peerchat/internal/app/chat"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/limiter"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/randx"
	"peerchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := randx.ConnectionID()
		client := chat.NewClient(connID, deps.Coordinator, conn)

		deps.Hub.Register(client)

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "conn_id", connID)

		// ReadPump blocks until the connection closes and then runs the full
		// disconnect path (presence removal, nickname release, user_left).
		client.ReadPump(r.Context())
	}
}
