// Package garage はガレージ（セールイベント）の作成・一覧・閲覧のドメインロジックを提供する。
package garage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/obs"
	"github.com/hitoshi/garagesale/internal/price"
	"github.com/hitoshi/garagesale/internal/repository"
	"github.com/hitoshi/garagesale/internal/security"
)

// CreateInput はガレージ作成の入力値。
// Slugが空白のみの場合はTitleからslugを生成する。
type CreateInput struct {
	Title      string
	Slug       string
	OwnerEmail string
}

// ItemView は閲覧用に関心数と価格表示を付加した品物。
type ItemView struct {
	model.ItemWithInterest
	PriceLabel string // "FREE" または "$10.50"
	PriceInput string // 編集フォーム用の価格文字列
}

// View はガレージページの表示内容。
// オーナーのメールアドレスはパスコードを兼ねるため、呼び出し元に公開してはならない。
type View struct {
	Garage  *model.Garage
	Items   []ItemView
	IsOwner bool
}

// ServiceConfig はガレージサービスの設定。
type ServiceConfig struct {
	MaxSlugAttempts int // slug候補の探索上限（0以下は既定値）
}

// Service はガレージ管理のサービス層。
type Service struct {
	garages   repository.GarageRepository
	items     repository.ItemRepository
	interests repository.InterestRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewService(
	garages repository.GarageRepository,
	items repository.ItemRepository,
	interests repository.InterestRepository,
	sanitizer security.TextSanitizer,
	m metrics.MetricsCollector,
	cfg ServiceConfig,
) *Service {
	return &Service{
		garages:   garages,
		items:     items,
		interests: interests,
		sanitizer: sanitizer,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateGarage はガレージを作成する。
// slugはbase、base-2、base-3…の順に空きを探索して決定する。
// 探索と挿入の間に同じslugが作成された場合はSLUG_CONFLICTを返し、再試行は呼び出し元に委ねる。
func (s *Service) CreateGarage(ctx context.Context, in CreateInput) (*model.Garage, error) {
	ctx, span := obs.Tracer().Start(ctx, "garage.CreateGarage")
	defer span.End()

	title := s.sanitizer.SanitizeText(strings.TrimSpace(in.Title))
	ownerEmail := strings.TrimSpace(in.OwnerEmail)
	requestedSlug := strings.TrimSpace(in.Slug)

	if title == "" {
		return nil, model.NewValidationError("Title is required.")
	}
	if ownerEmail == "" {
		return nil, model.NewValidationError("Owner email is required.")
	}

	source := requestedSlug
	if source == "" {
		source = title
	}
	base := Slugify(source)
	if base == "" {
		return nil, model.NewValidationError("Unable to derive slug from title.")
	}

	probes := 0
	checker := SlugCheckerFunc(func(ctx context.Context, slug string) (bool, error) {
		probes++
		return s.garages.SlugExists(ctx, slug)
	})

	slug, err := ResolveUniqueSlug(ctx, checker, base, s.cfg.MaxSlugAttempts)
	if s.metrics != nil {
		s.metrics.RecordSlugProbes(probes)
	}
	if errors.Is(err, ErrSlugExhausted) {
		slog.Warn("slug candidates exhausted",
			slog.String("base_slug", base),
			slog.Int("attempts", probes),
		)
		return nil, model.NewSlugExhaustedError(base)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("slugの決定に失敗しました: %w", err)
	}

	garage := &model.Garage{
		ID:         uuid.NewString(),
		Title:      title,
		Slug:       slug,
		OwnerEmail: ownerEmail,
		CreatedAt:  s.now(),
	}

	if err := s.garages.Create(ctx, garage); err != nil {
		if errors.Is(err, repository.ErrSlugConflict) {
			if s.metrics != nil {
				s.metrics.RecordSlugConflict()
			}
			slog.Warn("slug taken by concurrent create", slog.String("slug", slug))
			return nil, model.NewSlugConflictError(slug)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("ガレージの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordGarageCreated()
	}
	span.SetAttributes(
		attribute.String("garage.id", garage.ID),
		attribute.String("garage.slug", garage.Slug),
	)

	return garage, nil
}

// ListGarages は全ガレージをタイトル昇順で返す。
func (s *Service) ListGarages(ctx context.Context) ([]*model.Garage, error) {
	garages, err := s.garages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ガレージ一覧の取得に失敗しました: %w", err)
	}
	return garages, nil
}

// GetGarageView はslugで指定されたガレージの表示内容を返す。
// ownerGarageIDはリクエストのオーナーセッションが示すガレージIDで、空は匿名を表す。
// 品物は作成日時の降順で、関心数と価格表示を付加する。
func (s *Service) GetGarageView(ctx context.Context, slug, ownerGarageID string) (*View, error) {
	garage, err := s.garages.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	if garage == nil {
		return nil, model.NewGarageNotFoundError()
	}

	items, err := s.items.ListByGarage(ctx, garage.ID)
	if err != nil {
		return nil, fmt.Errorf("品物一覧の取得に失敗しました: %w", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	counts, err := s.interests.CountByItemIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("関心数の取得に失敗しました: %w", err)
	}

	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = ItemView{
			ItemWithInterest: model.ItemWithInterest{
				Item:          *item,
				InterestCount: counts[item.ID],
			},
			PriceLabel: price.Label(item.PriceCents),
			PriceInput: price.CentsToInput(item.PriceCents),
		}
	}

	return &View{
		Garage:  garage,
		Items:   views,
		IsOwner: ownerGarageID != "" && ownerGarageID == garage.ID,
	}, nil
}
