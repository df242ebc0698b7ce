package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/garagesale/internal/item"
	"github.com/hitoshi/garagesale/internal/middleware"
	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/price"
)

// ItemServiceInterface は品物ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	CreateItem(ctx context.Context, ownerGarageID string, in item.CreateInput) (*model.Item, error)
	UpdateItem(ctx context.Context, ownerGarageID, id string, in item.UpdateInput) (*model.Item, error)
	DeleteItem(ctx context.Context, ownerGarageID, id string) error
	ListInterests(ctx context.Context, ownerGarageID, itemID string) ([]*model.Interest, error)
}

// ItemHandler は品物のHTTPハンドラー。
type ItemHandler struct {
	service ItemServiceInterface
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface) *ItemHandler {
	return &ItemHandler{service: service}
}

type createItemRequest struct {
	GarageID    string      `json:"garageId"`
	Title       string      `json:"title"`
	Price       price.Input `json:"price"`
	Description string      `json:"description"`
	PhotoURL    string      `json:"photoUrl"`
}

// updateItemRequest は部分更新リクエスト。
// 省略されたフィールドは変更しない。priceのnullは無料にし、
// descriptionとphotoUrlのnullは値を消去する。
type updateItemRequest struct {
	Title       *string              `json:"title"`
	Price       price.Input          `json:"price"`
	Description model.OptionalString `json:"description"`
	PhotoURL    model.OptionalString `json:"photoUrl"`
	Status      *string              `json:"status"`
}

type itemIDResponse struct {
	ID string `json:"id"`
}

type interestResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"name"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateItem は品物を出品する。
// POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := middleware.OwnerGarageIDFromContext(r.Context())
	created, err := h.service.CreateItem(r.Context(), owner, item.CreateInput{
		GarageID:    req.GarageID,
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemIDResponse{ID: created.ID})
}

// UpdateItem は品物を部分更新する。
// PATCH /api/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := middleware.OwnerGarageIDFromContext(r.Context())
	updated, err := h.service.UpdateItem(r.Context(), owner, id, item.UpdateInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemIDResponse{ID: updated.ID})
}

// DeleteItem は品物を削除する。
// DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := middleware.OwnerGarageIDFromContext(r.Context())

	if err := h.service.DeleteItem(r.Context(), owner, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ListInterests は品物への関心一覧をオーナーに返す。
// GET /api/items/{id}/interests
func (h *ItemHandler) ListInterests(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := middleware.OwnerGarageIDFromContext(r.Context())

	interests, err := h.service.ListInterests(r.Context(), owner, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]interestResponse, len(interests))
	for i, in := range interests {
		resp[i] = interestResponse{
			ID:            in.ID,
			ParticipantID: in.ParticipantID,
			Name:          in.Name,
			Message:       in.Message,
			CreatedAt:     in.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
