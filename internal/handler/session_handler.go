package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/garagesale/internal/access"
)

// OwnerLoginService はオーナーログインに必要なインターフェース。
type OwnerLoginService interface {
	Login(ctx context.Context, garageID, password string) (*access.IssuedSession, error)
}

// SessionHandler はオーナーセッションの発行・破棄を行うHTTPハンドラー。
type SessionHandler struct {
	service OwnerLoginService
	cookies access.CookieConfig
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service OwnerLoginService, cookies access.CookieConfig) *SessionHandler {
	return &SessionHandler{service: service, cookies: cookies}
}

type loginRequest struct {
	GarageID string `json:"garageId"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK        bool      `json:"ok"`
	GarageID  string    `json:"garageId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login はパスコードを検証し、オーナーセッションCookieを設定する。
// POST /api/admin/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.GarageID, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, access.SessionCookie(session, h.cookies))
	writeJSON(w, http.StatusOK, loginResponse{
		OK:        true,
		GarageID:  session.GarageID,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout は現行・旧方式の両方のセッションCookieを削除する。常に成功する。
// DELETE /api/admin/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, c := range access.ClearCookies(h.cookies) {
		http.SetCookie(w, c)
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
