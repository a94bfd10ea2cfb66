/*
Package handler provides HTTP handler functions for profile reads and avatar
storage, backed by presigned S3 URLs.
*/
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"peerchat/internal/app/storage"
	"peerchat/internal/app/store"
	"peerchat/internal/pkg/auth/jwt"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/randx"
	"peerchat/internal/pkg/req"
	"peerchat/internal/pkg/resp"
)

// HandleGetProfile returns the authenticated account's profile.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		acct, err := deps.Accounts.GetByEmail(r.Context(), identity.Email)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrUnavailable):
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
			default:
				logx.Warn("get_profile: account not found", "email", identity.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			}
			return
		}

		var profileImage string
		if acct.ProfileImage != nil {
			profileImage = *acct.ProfileImage
		}

		resp.RespondSuccess(w, r, map[string]any{
			"account": map[string]any{
				"id":           strconv.FormatInt(acct.ID, 10),
				"email":        acct.Email,
				"nickname":     acct.Nickname,
				"profileImage": profileImage,
				"lastLoginAt":  acct.LastLogin.Format(time.RFC3339),
			},
		})
	}
}

// PresignAvatarInput defines the JSON input structure for generating upload URL.
type PresignAvatarInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignAvatarURL generates a time-limited, pre-signed URL for avatar
// upload, scoped to the authenticated account's key prefix.
func HandlePresignAvatarURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageDisabled))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateImageSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateImageType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		suffix, err := randx.UploadSuffix()
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := fmt.Sprintf("avatars/%s/%s%s", identity.ID, suffix, fileExt)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			storage.PresignedURLDuration,
		)
		if err != nil {
			logx.Error(err, "presign_avatar: upload URL generation failed", "key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// HandleAvatarDownload redirects to a time-limited, pre-signed URL for the
// avatar object named by the "k" query parameter.
func HandleAvatarDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageDisabled))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" || !strings.HasPrefix(fileKey, "avatars/") {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "avatar_download: download URL generation failed", "key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

type UpdateProfileImageInput struct {
	ImageKey string `json:"imageKey"`
}

// HandleUpdateProfileImage stores the avatar object key on the account after
// the client has completed the presigned upload. An empty key clears the
// avatar. A replaced object is deleted from storage in the background.
func HandleUpdateProfileImage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		accountID, err := strconv.ParseInt(identity.ID, 10, 64)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileImageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		ownPrefix := fmt.Sprintf("avatars/%s/", identity.ID)
		if input.ImageKey != "" && !strings.HasPrefix(input.ImageKey, ownPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		acct, err := deps.Accounts.GetByEmail(r.Context(), identity.Email)
		if err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var imageKey *string
		if input.ImageKey != "" {
			imageKey = &input.ImageKey
		}

		if err := deps.Accounts.UpdateProfileImage(r.Context(), accountID, imageKey); err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
				return
			}
			logx.Error(err, "update_profile_image: database error", "account_id", accountID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if deps.Storage != nil && acct.ProfileImage != nil && *acct.ProfileImage != input.ImageKey {
			go func(key string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = deps.Storage.Delete(ctx, key)
			}(*acct.ProfileImage)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"profileImage": input.ImageKey,
		})
	}
}
