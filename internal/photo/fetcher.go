// Package photo は品物の写真URLが指す外部画像を取得するプロキシ機能を提供する。
//
// 写真は利用者が入力した任意のURLのため、接続先はsecurity.URLGuardで検証し、
// サイズ上限と画像Content-Typeの確認を経たものだけを返す。
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/security"
)

const (
	// DefaultTimeout は写真取得の既定タイムアウト。
	DefaultTimeout = 10 * time.Second
	// DefaultMaxSize は写真の既定最大サイズ（5MB）。
	DefaultMaxSize = 5 * 1024 * 1024

	userAgent = "GarageSale/1.0 PhotoProxy"
)

// ErrFetchFailed は写真を取得できなかったことを示す。
var ErrFetchFailed = errors.New("photo fetch failed")

// Photo は取得した画像。
type Photo struct {
	Data        []byte
	ContentType string
}

// FetcherService は写真取得のインターフェース。
type FetcherService interface {
	// Fetch はphotoURLの画像を取得する。
	// 失敗した場合はErrFetchFailedをラップしたエラーを返す。
	Fetch(ctx context.Context, photoURL string) (*Photo, error)
}

// Config はFetcherの設定。
type Config struct {
	Timeout time.Duration
	MaxSize int64
}

// Fetcher はFetcherServiceの実装。
type Fetcher struct {
	guard   security.URLGuard
	client  *http.Client
	maxSize int64
	metrics metrics.MetricsCollector
}

// NewFetcher はFetcherを生成する。metricsはnilでもよい。
func NewFetcher(guard security.URLGuard, cfg Config, m metrics.MetricsCollector) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &Fetcher{
		guard:   guard,
		client:  guard.NewSafeClient(cfg.Timeout),
		maxSize: cfg.MaxSize,
		metrics: m,
	}
}

// Fetch はphotoURLの画像を取得する。
func (f *Fetcher) Fetch(ctx context.Context, photoURL string) (*Photo, error) {
	start := time.Now()
	p, err := f.fetch(ctx, photoURL)
	if f.metrics != nil {
		f.metrics.RecordPhotoFetch(time.Since(start), err == nil)
	}
	if err != nil {
		slog.Warn("photo fetch failed", slog.String("url", photoURL), slog.String("error", err.Error()))
		return nil, err
	}
	return p, nil
}

func (f *Fetcher) fetch(ctx context.Context, photoURL string) (*Photo, error) {
	if err := f.guard.ValidateURL(photoURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: upstream status %d", ErrFetchFailed, resp.StatusCode)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrFetchFailed, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrFetchFailed, f.maxSize)
	}

	return &Photo{Data: body, ContentType: contentType}, nil
}

// mediaType はContent-Typeヘッダーからパラメータを除いたメディアタイプを返す。
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

var _ FetcherService = (*Fetcher)(nil)
