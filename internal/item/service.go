// Package item はガレージに出品された品物の管理機能を提供する。
// 品物の作成・更新・削除と関心一覧の参照は、そのガレージのオーナーセッションを持つ場合のみ許可する。
package item

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

// URLValidator は写真URLの静的検証を行うインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// CreateInput は品物作成の入力値。
type CreateInput struct {
	GarageID    string
	Title       string
	Price       price.Input
	Description string
	PhotoURL    string
}

// UpdateInput は品物の部分更新の入力値。
// nilまたは未指定のフィールドは変更しない。
// DescriptionとPhotoURLのnullは空として扱い、値を消去する。
type UpdateInput struct {
	Title       *string
	Price       price.Input
	Description model.OptionalString
	PhotoURL    model.OptionalString
	Status      *string
}

// Service は品物管理のサービス層。
type Service struct {
	items     repository.ItemRepository
	interests repository.InterestRepository
	sanitizer security.TextSanitizer
	urls      URLValidator
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewService(
	items repository.ItemRepository,
	interests repository.InterestRepository,
	sanitizer security.TextSanitizer,
	urls URLValidator,
	m metrics.MetricsCollector,
) *Service {
	return &Service{
		items:     items,
		interests: interests,
		sanitizer: sanitizer,
		urls:      urls,
		metrics:   m,
		now:       time.Now,
	}
}

// CreateItem は品物を作成する。
// 入力値の検証はオーナー確認より先に行い、不正な入力はストアに到達させない。
// ownerGarageIDがin.GarageIDと一致しない場合はOWNER_REQUIREDを返す。
func (s *Service) CreateItem(ctx context.Context, ownerGarageID string, in CreateInput) (*model.Item, error) {
	ctx, span := obs.Tracer().Start(ctx, "item.CreateItem")
	defer span.End()

	garageID := strings.TrimSpace(in.GarageID)
	title := s.sanitizer.SanitizeText(in.Title)

	if garageID == "" {
		return nil, model.NewValidationError("garageId is required.")
	}
	if title == "" {
		return nil, model.NewValidationError("Title is required.")
	}

	cents, err := price.InputToCents(in.Price)
	if err != nil {
		return nil, model.NewInvalidPriceError()
	}

	photoURL, err := s.validatePhotoURL(in.PhotoURL)
	if err != nil {
		return nil, err
	}

	if !isOwnerOf(ownerGarageID, garageID) {
		return nil, model.NewOwnerRequiredError()
	}

	now := s.now()
	item := &model.Item{
		ID:          uuid.NewString(),
		GarageID:    garageID,
		Title:       title,
		PriceCents:  cents,
		Description: s.sanitizer.SanitizeText(in.Description),
		PhotoURL:    photoURL,
		Status:      model.ItemStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("品物の作成に失敗しました: %w", err)
	}

	s.recordMutation(metrics.ItemOpCreate)
	span.SetAttributes(attribute.String("item.id", item.ID), attribute.String("garage.id", garageID))
	slog.Info("item created", slog.String("garage_id", garageID), slog.String("item_id", item.ID))
	return item, nil
}

// UpdateItem は品物を部分更新し、更新後の品物を返す。
func (s *Service) UpdateItem(ctx context.Context, ownerGarageID, id string, in UpdateInput) (*model.Item, error) {
	upd, err := s.buildUpdate(in)
	if err != nil {
		return nil, err
	}

	item, err := s.authorize(ctx, ownerGarageID, id)
	if err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, item.ID, upd, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewItemNotFoundError()
		}
		return nil, fmt.Errorf("品物の更新に失敗しました: %w", err)
	}

	s.recordMutation(metrics.ItemOpUpdate)
	return s.GetItem(ctx, item.ID)
}

// DeleteItem は品物を削除する。関連する関心も削除される。
func (s *Service) DeleteItem(ctx context.Context, ownerGarageID, id string) error {
	item, err := s.authorize(ctx, ownerGarageID, id)
	if err != nil {
		return err
	}

	if err := s.items.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewItemNotFoundError()
		}
		return fmt.Errorf("品物の削除に失敗しました: %w", err)
	}

	s.recordMutation(metrics.ItemOpDelete)
	slog.Info("item deleted", slog.String("garage_id", item.GarageID), slog.String("item_id", item.ID))
	return nil
}

// ListInterests は品物への関心を新しい順に返す。オーナーのみ参照できる。
func (s *Service) ListInterests(ctx context.Context, ownerGarageID, itemID string) ([]*model.Interest, error) {
	item, err := s.authorize(ctx, ownerGarageID, itemID)
	if err != nil {
		return nil, err
	}

	interests, err := s.interests.ListByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("関心一覧の取得に失敗しました: %w", err)
	}
	return interests, nil
}

// GetItem は品物を取得する。見つからない場合はITEM_NOT_FOUNDを返す。
func (s *Service) GetItem(ctx context.Context, id string) (*model.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.NewItemNotFoundError()
	}
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("品物の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError()
	}
	return item, nil
}

// authorize は品物を取得し、ownerGarageIDがその品物のガレージと一致するかを確認する。
func (s *Service) authorize(ctx context.Context, ownerGarageID, id string) (*model.Item, error) {
	if ownerGarageID == "" {
		return nil, model.NewOwnerRequiredError()
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwnerOf(ownerGarageID, item.GarageID) {
		slog.Warn("item access denied",
			slog.String("item_id", item.ID),
			slog.String("session_garage_id", ownerGarageID),
		)
		return nil, model.NewOwnerRequiredError()
	}
	return item, nil
}

// buildUpdate は更新入力を検証し、永続化用の部分更新内容に変換する。
func (s *Service) buildUpdate(in UpdateInput) (model.ItemUpdate, error) {
	var upd model.ItemUpdate

	if in.Title != nil {
		title := s.sanitizer.SanitizeText(*in.Title)
		if title == "" {
			return upd, model.NewValidationError("Title cannot be empty.")
		}
		upd.Title = &title
	}

	if in.Price.Present() {
		cents, err := price.InputToCents(in.Price)
		if err != nil {
			return upd, model.NewInvalidPriceError()
		}
		upd.SetPrice = true
		upd.PriceCents = cents
	}

	if in.Description.Set {
		upd.SetDescription = true
		upd.Description = s.sanitizer.SanitizeText(in.Description.Value)
	}

	if in.PhotoURL.Set {
		photoURL, err := s.validatePhotoURL(in.PhotoURL.Value)
		if err != nil {
			return upd, err
		}
		upd.SetPhotoURL = true
		upd.PhotoURL = photoURL
	}

	if in.Status != nil {
		status, ok := model.ParseItemStatus(*in.Status)
		if !ok {
			return upd, model.NewValidationError("Status must be available, reserved, or sold.")
		}
		upd.Status = &status
	}

	if upd.IsEmpty() {
		return upd, model.NewValidationError("No updates provided.")
	}
	return upd, nil
}

// validatePhotoURL は空白を除去した写真URLを検証する。空はnull（写真なし）を表す。
func (s *Service) validatePhotoURL(raw string) (string, error) {
	photoURL := strings.TrimSpace(raw)
	if photoURL == "" {
		return "", nil
	}
	if s.urls == nil {
		return photoURL, nil
	}
	if err := s.urls.ValidateURL(photoURL); err != nil {
		reason := strings.TrimPrefix(err.Error(), security.ErrURLNotAllowed.Error()+": ")
		return "", model.NewInvalidURLError(reason)
	}
	return photoURL, nil
}

func (s *Service) recordMutation(op string) {
	if s.metrics != nil {
		s.metrics.RecordItemMutation(op)
	}
}

func isOwnerOf(ownerGarageID, garageID string) bool {
	return ownerGarageID != "" && ownerGarageID == garageID
}
