package garage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hitoshi/garagesale/internal/obs"
)

// MaxSlugLength はslugの最大長。連番の接尾辞はこの長さに含めない。
const MaxSlugLength = 64

// DefaultMaxSlugAttempts はslugの候補を探索する回数の既定値。
const DefaultMaxSlugAttempts = 1000

var (
	// ErrEmptySlug は正規化の結果slugが空になったことを示す。
	ErrEmptySlug = errors.New("unable to derive slug")
	// ErrSlugExhausted は探索上限までにslugの空きが見つからなかったことを示す。
	ErrSlugExhausted = errors.New("slug candidates exhausted")
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify は任意のテキストをURLで安全なslugに正規化する。
// 小文字化・前後空白除去の後、[a-z0-9]以外の連続を1つのハイフンに置換し、
// 先頭と末尾のハイフンを除去してから64文字に切り詰める。
// 切り詰めは除去の後に行うため、末尾にハイフンが残る場合がある。
func Slugify(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	return s
}

// SlugChecker はslugの使用状況を問い合わせるインターフェース。
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SlugCheckerFunc は関数をSlugCheckerとして扱うアダプタ。
type SlugCheckerFunc func(ctx context.Context, slug string) (bool, error)

// SlugExists はf(ctx, slug)を呼び出す。
func (f SlugCheckerFunc) SlugExists(ctx context.Context, slug string) (bool, error) {
	return f(ctx, slug)
}

// ResolveUniqueSlug はbaseから始めて未使用のslugを探索する。
// base、base-2、base-3…の順に最大maxAttempts個の候補を確認する。
// 確認は読み取りのみで、返したslugの予約は行わない。挿入時の一意制約が最終的な判定となる。
// maxAttemptsが0以下の場合はDefaultMaxSlugAttemptsを使用する。
func ResolveUniqueSlug(ctx context.Context, checker SlugChecker, base string, maxAttempts int) (string, error) {
	ctx, span := obs.Tracer().Start(ctx, "garage.ResolveUniqueSlug")
	defer span.End()

	if base == "" {
		return "", ErrEmptySlug
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSlugAttempts
	}

	candidate := base
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			candidate = base + "-" + strconv.Itoa(attempt)
		}

		exists, err := checker.SlugExists(ctx, candidate)
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("slugの存在確認に失敗しました: %w", err)
		}
		if !exists {
			span.SetAttributes(attribute.Int("slug.attempts", attempt))
			return candidate, nil
		}
	}

	span.SetAttributes(attribute.Int("slug.attempts", maxAttempts))
	return "", fmt.Errorf("%q: %w", base, ErrSlugExhausted)
}
