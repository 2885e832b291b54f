package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"templedesk/internal/middleware"
	"templedesk/internal/session"
	"templedesk/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{sessions: sessions, userStore: userStore}
}

// Login checks credentials and opens a session. The session starts with
// 2FA incomplete; protected endpoints stay closed until Verify2FA passes.
// POST /api/v1/auth/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	user, err := a.userStore.FindByEmail(req.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respondError(w, err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respondUnauthorized(w, "Invalid email or password.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"needs_2fa_setup": user.Needs2FASetup(),
	})
}

// Setup2FA generates a TOTP secret for the logged-in user and returns the
// provisioning QR code. The secret stays pending until the first valid
// code arrives at Verify2FA.
// POST /api/v1/auth/2fa/setup
func (a *Auth) Setup2FA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondUnauthorized(w, "Authentication required.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "TempleDesk",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		respondError(w, err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		respondError(w, err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{
		"secret":   key.Secret(),
		"qr_image": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// Verify2FA validates the TOTP code and completes authentication. On the
// first successful verification TOTP is enabled for the account.
// POST /api/v1/auth/2fa/verify
func (a *Auth) Verify2FA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondUnauthorized(w, "Authentication required.")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		respondUnauthorized(w, "Authentication required.")
		return
	}
	if user.TOTPSecret == nil {
		respondBadRequest(w, "2FA has not been set up for this account.")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondUnauthorized(w, "Invalid code. Please try again.")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			respondError(w, err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})
}

// Logout destroys the session.
// POST /api/v1/auth/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	respond(w, http.StatusOK, map[string]bool{"logged_out": true})
}
