// services/planner-svc/internal/handlers/auth.go
package handlers

import (
	"net/http"

	"transit/pkg/apperror"
	"transit/pkg/logger"
	"transit/pkg/passhash"
)

type tokenRequest struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// issueToken выдаёт JWT по учётной записи оператора или refresh-токену
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Auth.Enabled || h.jwt == nil {
		writeError(w, apperror.New(apperror.CodeUnimplemented, "authentication is disabled"))
		return
	}

	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.RefreshToken != "" {
		h.refreshToken(w, req.RefreshToken)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.New(apperror.CodeInvalidArgument, "username and password are required"))
		return
	}

	if req.Username != h.cfg.Auth.AdminUsername || h.cfg.Auth.AdminPasswordHash == "" {
		writeError(w, apperror.New(apperror.CodeUnauthenticated, "invalid credentials"))
		return
	}

	ok, err := passhash.VerifyPassword(req.Password, h.cfg.Auth.AdminPasswordHash)
	if err != nil {
		logger.Log.Warn("Password verification failed", "error", err)
		writeError(w, apperror.New(apperror.CodeUnauthenticated, "invalid credentials"))
		return
	}
	if !ok {
		writeError(w, apperror.New(apperror.CodeUnauthenticated, "invalid credentials"))
		return
	}

	access, err := h.jwt.GenerateAccessToken(req.Username, passhash.RoleOperator)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeInternal, "failed to generate token"))
		return
	}
	refresh, err := h.jwt.GenerateRefreshToken(req.Username, passhash.RoleOperator)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeInternal, "failed to generate token"))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    h.jwt.GetAccessTokenExpiry(),
	})
}

func (h *Handler) refreshToken(w http.ResponseWriter, refresh string) {
	access, _, err := h.jwt.RefreshAccessToken(refresh)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeUnauthenticated, "invalid refresh token"))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   h.jwt.GetAccessTokenExpiry(),
	})
}
