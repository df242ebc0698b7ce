// Package interest は来場者の登録と品物への関心表明を扱う。
package interest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/garagesale/internal/metrics"
	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/repository"
	"github.com/hitoshi/garagesale/internal/security"
)

// ParticipantInput は来場者登録の入力値。
type ParticipantInput struct {
	GarageID string
	Name     string
	Email    string
	Phone    string
}

// InterestInput は関心表明の入力値。
type InterestInput struct {
	ItemID        string
	ParticipantID string
	Message       string
}

// Service は来場者・関心のサービス層。
type Service struct {
	garages      repository.GarageRepository
	items        repository.ItemRepository
	participants repository.ParticipantRepository
	interests    repository.InterestRepository
	sanitizer    security.TextSanitizer
	metrics      metrics.MetricsCollector
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewService(
	garages repository.GarageRepository,
	items repository.ItemRepository,
	participants repository.ParticipantRepository,
	interests repository.InterestRepository,
	sanitizer security.TextSanitizer,
	m metrics.MetricsCollector,
) *Service {
	return &Service{
		garages:      garages,
		items:        items,
		participants: participants,
		interests:    interests,
		sanitizer:    sanitizer,
		metrics:      m,
		now:          time.Now,
	}
}

// CreateParticipant は来場者を登録する。
// 返却した来場者IDはクライアント側で保存され、以降の関心表明で再利用される。
func (s *Service) CreateParticipant(ctx context.Context, in ParticipantInput) (*model.Participant, error) {
	garageID := strings.TrimSpace(in.GarageID)
	name := s.sanitizer.SanitizeText(in.Name)

	if garageID == "" {
		return nil, model.NewValidationError("garageId is required.")
	}
	if name == "" {
		return nil, model.NewValidationError("Name is required.")
	}

	garage, err := s.garages.FindByID(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("ガレージの取得に失敗しました: %w", err)
	}
	if garage == nil {
		return nil, model.NewGarageNotFoundError()
	}

	participant := &model.Participant{
		ID:        uuid.NewString(),
		GarageID:  garage.ID,
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: s.now(),
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("来場者の登録に失敗しました: %w", err)
	}

	return participant, nil
}

// CreateInterest は来場者の品物への関心を登録する。
// 来場者と品物は同じガレージに属していなければならない。
// 来場者名は表示用に関心へ複製する。
func (s *Service) CreateInterest(ctx context.Context, in InterestInput) (*model.Interest, error) {
	itemID := strings.TrimSpace(in.ItemID)
	participantID := strings.TrimSpace(in.ParticipantID)

	if itemID == "" || participantID == "" {
		return nil, model.NewValidationError("itemId and participantId are required.")
	}

	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("来場者の取得に失敗しました: %w", err)
	}
	if participant == nil {
		return nil, model.NewParticipantNotFoundError()
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("品物の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError()
	}

	if item.GarageID != participant.GarageID {
		slog.Warn("interest rejected: participant belongs to another garage",
			slog.String("item_id", item.ID),
			slog.String("participant_id", participant.ID),
		)
		return nil, model.NewValidationError("Participant does not belong to this garage.")
	}

	interest := &model.Interest{
		ID:            uuid.NewString(),
		ItemID:        item.ID,
		ParticipantID: participant.ID,
		Message:       s.sanitizer.SanitizeText(in.Message),
		Name:          participant.Name,
		CreatedAt:     s.now(),
	}
	if err := s.interests.Create(ctx, interest); err != nil {
		return nil, fmt.Errorf("関心の登録に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordInterestCreated()
	}
	return interest, nil
}
