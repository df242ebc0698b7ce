package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/garagesale/internal/interest"
	"github.com/hitoshi/garagesale/internal/model"
)

// InterestServiceInterface は来場者・関心ハンドラーが必要とするサービスインターフェース。
type InterestServiceInterface interface {
	CreateParticipant(ctx context.Context, in interest.ParticipantInput) (*model.Participant, error)
	CreateInterest(ctx context.Context, in interest.InterestInput) (*model.Interest, error)
}

// ParticipantHandler は来場者登録と関心表明のHTTPハンドラー。
type ParticipantHandler struct {
	service InterestServiceInterface
}

// NewParticipantHandler はParticipantHandlerを生成する。
func NewParticipantHandler(service InterestServiceInterface) *ParticipantHandler {
	return &ParticipantHandler{service: service}
}

type createParticipantRequest struct {
	GarageID string `json:"garageId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type participantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createInterestRequest struct {
	ItemID        string `json:"itemId"`
	ParticipantID string `json:"participantId"`
	Message       string `json:"message"`
}

// CreateParticipant は来場者を登録する。
// POST /api/participants
func (h *ParticipantHandler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req createParticipantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.CreateParticipant(r.Context(), interest.ParticipantInput{
		GarageID: req.GarageID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, participantResponse{ID: p.ID, Name: p.Name})
}

// CreateInterest は品物への関心を登録する。
// POST /api/interest
func (h *ParticipantHandler) CreateInterest(w http.ResponseWriter, r *http.Request) {
	var req createInterestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.CreateInterest(r.Context(), interest.InterestInput{
		ItemID:        req.ItemID,
		ParticipantID: req.ParticipantID,
		Message:       req.Message,
	}); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, okResponse{OK: true})
}
