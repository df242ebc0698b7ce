// Package access はオーナーのパスコード認証とオーナーセッションの発行・検証を提供する。
//
// パスコードはガレージのオーナーメールアドレス、または全ガレージ共通の管理用パスコードのいずれか。
// セッションはガレージIDに束縛された署名付きトークンで、サーバー側には保存しない。
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/obs"
)

const (
	// CookieName は現行のオーナーセッションCookie名。
	CookieName = "garage_admin"
	// LegacyCookieName は旧方式（全体共通パスワード）のCookie名。
	// 認可には使用せず、ログアウト時の削除対象としてのみ扱う。
	LegacyCookieName = "admin"
	// SessionTTL はオーナーセッションの有効期間。更新（延長）は行わない。
	SessionTTL = 7 * 24 * time.Hour

	tokenIssuer = "garagesale"
)

// ErrInvalidToken はオーナーセッショントークンが不正・期限切れ・失効済みであることを示す。
var ErrInvalidToken = errors.New("invalid owner session token")

// GarageFinder はガレージの検索に必要なインターフェース。
// repository.GarageRepositoryの部分集合として定義する。
type GarageFinder interface {
	FindByID(ctx context.Context, id string) (*model.Garage, error)
}

// Config はGateの設定。
type Config struct {
	Secret           []byte // トークン署名用のHMAC鍵
	OverridePasscode string // 管理用パスコード。空の場合は無効
}

// IssuedSession はログイン成功時に発行されたセッション。
type IssuedSession struct {
	Token     string
	GarageID  string
	ExpiresAt time.Time
}

// ownerClaims はオーナーセッショントークンのクレーム。
type ownerClaims struct {
	GarageID string `json:"garage_id"`
	jwt.RegisteredClaims
}

// Gate はオーナー認証を行うアクセスゲート。
type Gate struct {
	garages  GarageFinder
	secret   []byte
	override string
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewGate はGateを生成する。metricsはnilでもよい。
func NewGate(garages GarageFinder, cfg Config, m metrics.MetricsCollector) *Gate {
	return &Gate{
		garages:  garages,
		secret:   cfg.Secret,
		override: cfg.OverridePasscode,
		metrics:  m,
		now:      time.Now,
	}
}

// normalizePasscode は前後空白を除去し、大文字小文字を区別しない比較用に畳み込む。
func normalizePasscode(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// PasscodeMatches はpasswordがオーナーメールアドレスまたは管理用パスコードと一致するかを返す。
// オーナーメールアドレスを先に比較し、一致しない場合のみ管理用パスコードを比較する。
// overrideが空の場合、管理用パスコードでの認証は無効。
func PasscodeMatches(password, ownerEmail, override string) bool {
	submitted := normalizePasscode(password)
	if submitted == "" {
		return false
	}
	if submitted == normalizePasscode(ownerEmail) {
		return true
	}
	return override != "" && submitted == normalizePasscode(override)
}

// Login はガレージのオーナーとして認証し、セッションを発行する。
// garageIDまたはpasswordが空の場合は400、ガレージが存在しない場合は404、
// パスコードが一致しない場合は401相当のAPIErrorを返す。
func (g *Gate) Login(ctx context.Context, garageID, password string) (*IssuedSession, error) {
	ctx, span := obs.Tracer().Start(ctx, "access.Login")
	defer span.End()

	garageID = strings.TrimSpace(garageID)
	span.SetAttributes(attribute.String("garage.id", garageID))

	if garageID == "" {
		return nil, model.NewValidationError("garageId is required.")
	}
	if strings.TrimSpace(password) == "" {
		return nil, model.NewValidationError("Password is required.")
	}

	garage, err := g.garages.FindByID(ctx, garageID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	if garage == nil {
		g.recordLogin(metrics.LoginResultNotFound)
		return nil, model.NewGarageNotFoundError()
	}

	if !PasscodeMatches(password, garage.OwnerEmail, g.override) {
		g.recordLogin(metrics.LoginResultInvalid)
		slog.Warn("owner login rejected", slog.String("garage_id", garageID))
		return nil, model.NewInvalidPasswordError()
	}

	session, err := g.Issue(garageID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	g.recordLogin(metrics.LoginResultSuccess)
	slog.Info("owner login succeeded", slog.String("garage_id", garageID))
	return session, nil
}

// Issue はガレージIDに束縛されたセッショントークンを発行する。
// 有効期限は発行時刻からちょうどSessionTTL後。
func (g *Gate) Issue(garageID string) (*IssuedSession, error) {
	issuedAt := g.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(SessionTTL)

	claims := ownerClaims{
		GarageID: garageID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("セッショントークンの署名に失敗しました: %w", err)
	}

	return &IssuedSession{Token: token, GarageID: garageID, ExpiresAt: expiresAt}, nil
}

// Verify はセッショントークンを検証し、束縛されたガレージのセッションを返す。
// 署名・発行者・有効期限に加え、ガレージが現存することを確認する。
// いずれかを満たさない場合はErrInvalidTokenを返す。
func (g *Gate) Verify(ctx context.Context, token string) (*model.OwnerSession, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &ownerClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return g.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.GarageID == "" {
		return nil, ErrInvalidToken
	}

	garage, err := g.garages.FindByID(ctx, claims.GarageID)
	if err != nil {
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	if garage == nil {
		return nil, ErrInvalidToken
	}

	session := &model.OwnerSession{GarageID: garage.ID}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (g *Gate) recordLogin(result string) {
	if g.metrics != nil {
		g.metrics.RecordOwnerLogin(result)
	}
}
