/*
Package handler provides HTTP handler functions for account registration,
authentication, and credential recovery.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"peerchat/internal/app/account"
	"peerchat/internal/app/store"
	"peerchat/internal/pkg/auth/jwt"
	"peerchat/internal/pkg/errs"
	"peerchat/internal/pkg/logx"
	"peerchat/internal/pkg/randx"
	"peerchat/internal/pkg/req"
	"peerchat/internal/pkg/resp"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const (
	// MaxNicknameLength bounds registered nicknames in runes.
	MaxNicknameLength = 30

	// ResetTokenLifetime is how long a password-reset token stays valid.
	ResetTokenLifetime = time.Hour
)

// validatePassword enforces the shared password policy.
func validatePassword(password string) *errs.CustomError {
	passwordLen := utf8.RuneCountInString(password)
	if passwordLen < 6 || passwordLen > 50 {
		return errs.NewError(errs.ErrInvalidPassword)
	}
	return nil
}

type SignupInput struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// HandleSignup processes the request to create a new account and sends the
// verification email. The account cannot sign in until the email is verified.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input SignupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		normalized := account.NormalizeNickname(input.Nickname)
		if normalized == "" || utf8.RuneCountInString(input.Nickname) > MaxNicknameLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidNickname))
			return
		}

		if customErr := validatePassword(input.Password); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		verificationToken, err := randx.AccountToken()
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		created, err := deps.Accounts.Create(r.Context(), input.Email, input.Nickname, normalized, string(hashedPassword), verificationToken)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrEmailTaken):
				logx.Warn("signup conflict: email already registered", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrEmailAlreadyExists))
			case errors.Is(err, store.ErrNicknameTaken):
				logx.Warn("signup conflict: nickname already registered", "nickname", input.Nickname)
				resp.RespondError(w, r, errs.NewError(errs.ErrNicknameAlreadyExists))
			case errors.Is(err, store.ErrUnavailable):
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
			default:
				logx.Error(err, "failed to create account in database")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
			return
		}

		go func(email, token string) {
			if err := deps.Mailer.SendVerification(email, token); err != nil {
				logx.Error(err, "signup: failed to send verification email", "email", email)
			}
		}(created.Email, verificationToken)

		resp.RespondSuccess(w, r, map[string]any{
			"account": map[string]any{
				"id":       strconv.FormatInt(created.ID, 10),
				"email":    created.Email,
				"nickname": created.Nickname,
			},
			"message": "Check your inbox to verify your email address.",
		})
	}
}

type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// HandleLogin verifies credentials against email or nickname and issues a
// session JWT. Accounts with unverified email are rejected.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		acct, err := deps.Accounts.GetByIdentifier(r.Context(), input.Identifier)
		if err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
				return
			}
			logx.Warn("login: account fetch failed", "identifier", input.Identifier, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "identifier", input.Identifier)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if acct.EmailVerified == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrEmailNotVerified))
			return
		}

		if err := deps.Accounts.UpdateLastLogin(r.Context(), acct.ID); err != nil {
			logx.Error(err, "login: failed to update last_login", "account_id", acct.ID)
		}

		payload := &jwt.Payload{
			ID:       strconv.FormatInt(acct.ID, 10),
			Email:    acct.Email,
			Nickname: acct.Nickname,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var profileImage string
		if acct.ProfileImage != nil {
			profileImage = *acct.ProfileImage
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"account": map[string]any{
				"id":           strconv.FormatInt(acct.ID, 10),
				"email":        acct.Email,
				"nickname":     acct.Nickname,
				"profileImage": profileImage,
				"lastLoginAt":  time.Now().Format(time.RFC3339),
			},
		})
	}
}

type VerifyEmailInput struct {
	Token string `json:"token"`
}

// HandleVerifyEmail marks the account's email as verified. The token arrives
// either as a query parameter (email link) or in the JSON body.
func HandleVerifyEmail(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" && r.Method == http.MethodPost {
			var input VerifyEmailInput
			if customErr := req.BindJSON(r, &input); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			token = input.Token
		}

		if token == "" || !randx.IsBase62(token) {
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
			return
		}

		if err := deps.Accounts.VerifyEmail(r.Context(), token); err != nil {
			switch {
			case errors.Is(err, store.ErrTokenInvalid):
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
			case errors.Is(err, store.ErrUnavailable):
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
			default:
				logx.Error(err, "verify_email: database error")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Email verified. You can sign in now.",
		})
	}
}

type RequestPasswordResetInput struct {
	Email string `json:"email"`
}

// HandleRequestPasswordReset stores a reset token and emails the reset link.
// The response does not reveal whether the email is registered.
func HandleRequestPasswordReset(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RequestPasswordResetInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		resetToken, err := randx.AccountToken()
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		existed, err := deps.Accounts.SetResetToken(r.Context(), input.Email, resetToken, time.Now().Add(ResetTokenLifetime))
		if err != nil {
			if errors.Is(err, store.ErrUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
				return
			}
			logx.Error(err, "request_password_reset: database error")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if existed {
			go func(email, token string) {
				if err := deps.Mailer.SendPasswordReset(email, token); err != nil {
					logx.Error(err, "request_password_reset: failed to send email", "email", email)
				}
			}(input.Email, resetToken)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "If that email is registered, a reset link is on its way.",
		})
	}
}

type ResetPasswordInput struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandleResetPassword sets a new password for the account holding the reset
// token, provided the token has not expired.
func HandleResetPassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ResetPasswordInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Token == "" || !randx.IsBase62(input.Token) {
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
			return
		}

		if customErr := validatePassword(input.NewPassword); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Accounts.ResetPassword(r.Context(), input.Token, string(hashedPassword)); err != nil {
			switch {
			case errors.Is(err, store.ErrTokenInvalid):
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
			case errors.Is(err, store.ErrTokenExpired):
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenExpired))
			case errors.Is(err, store.ErrUnavailable):
				resp.RespondError(w, r, errs.NewError(errs.ErrDatabaseUnavailable))
			default:
				logx.Error(err, "reset_password: database error")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": "Password updated. You can sign in now.",
		})
	}
}
