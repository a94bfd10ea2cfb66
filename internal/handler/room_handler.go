/*
Package handler provides HTTP handler functions for room resolution and
message history reads.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"peerchat/internal/app/store"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/req"
	"peerchat/internal/pkg/resp"
)

var (
	roomSlugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
)

const (
	// DefaultHistoryLimit is the message count returned when unspecified.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit caps a single history read.
	MaxHistoryLimit = 200
)

type ResolveRoomInput struct {
	Slug string `json:"slug"`
}

// HandleResolveRoom maps a room slug to its numeric id, creating the room row
// lazily on first use.
func HandleResolveRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ResolveRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !roomSlugRegex.MatchString(input.Slug) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomSlugInvalid))
			return
		}

		room, err := deps.Rooms.GetOrCreate(r.Context(), input.Slug)
		if err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
				return
			}
			logx.Error(err, "resolve_room: database error", "slug", input.Slug)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room": map[string]any{
				"id":   room.ID,
				"slug": room.Slug,
			},
		})
	}
}

// HandleRoomMessages returns the most recent messages of a room, newest first.
// Live sessions start with an empty backlog on the socket; this endpoint is
// the only way to read history.
func HandleRoomMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || roomID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		limit := int32(DefaultHistoryLimit)
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.ParseInt(limitStr, 10, 32)
			if err != nil || parsed <= 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			if parsed > MaxHistoryLimit {
				parsed = MaxHistoryLimit
			}
			limit = int32(parsed)
		}

		if _, err := deps.Rooms.GetByID(r.Context(), roomID); err != nil {
			switch {
			case errors.Is(err, store.ErrRoomNotFound):
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			case errors.Is(err, store.ErrUnavailable):
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
			default:
				logx.Error(err, "room_messages: room lookup failed", "room_id", roomID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
			return
		}

		messages, err := deps.Messages.Recent(r.Context(), roomID, limit)
		if err != nil {
			logx.Error(err, "room_messages: history read failed", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		items := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			var profileImage string
			if m.ProfileImage != nil {
				profileImage = *m.ProfileImage
			}

			items = append(items, map[string]any{
				"id":           m.ID,
				"nickname":     m.Nickname,
				"content":      m.Content,
				"fontFamily":   m.FontFamily,
				"profileImage": profileImage,
				"createdAt":    m.CreatedAt.Format(time.RFC3339),
			})
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": items,
		})
	}
}
