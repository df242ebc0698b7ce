package access

import (
	"net/http"
	"time"
)

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Domain string
	Secure bool // HTTPSで配信する環境ではtrue
}

// SessionCookie は発行済みセッションを運ぶCookieを返す。
// HttpOnlyでクライアントスクリプトからは読めず、Path=/でオリジン全体に送信される。
func SessionCookie(s *IssuedSession, cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  s.ExpiresAt,
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookies はログアウト時に削除する現行・旧方式の両Cookieを返す。
func ClearCookies(cfg CookieConfig) []*http.Cookie {
	names := []string{CookieName, LegacyCookieName}
	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.Domain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cookies
}

// TokenFromRequest はリクエストの現行セッションCookieからトークンを取り出す。
// 旧方式のCookieは参照しない。
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
