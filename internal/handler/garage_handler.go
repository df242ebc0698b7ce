package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/garagesale/internal/garage"
	"github.com/hitoshi/garagesale/internal/middleware"
	"github.com/hitoshi/garagesale/internal/model"
)

// GarageServiceInterface はガレージハンドラーが必要とするサービスインターフェース。
type GarageServiceInterface interface {
	CreateGarage(ctx context.Context, in garage.CreateInput) (*model.Garage, error)
	ListGarages(ctx context.Context) ([]*model.Garage, error)
	GetGarageView(ctx context.Context, slug, ownerGarageID string) (*garage.View, error)
}

// GarageHandler はガレージのHTTPハンドラー。
type GarageHandler struct {
	service GarageServiceInterface
}

// NewGarageHandler はGarageHandlerを生成する。
func NewGarageHandler(service GarageServiceInterface) *GarageHandler {
	return &GarageHandler{service: service}
}

type createGarageRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	OwnerEmail string `json:"ownerEmail"`
}

type createGarageResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// garageSummaryResponse はガレージの公開情報。オーナーメールは含めない。
type garageSummaryResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type itemResponse struct {
	ID            string    `json:"id"`
	GarageID      string    `json:"garageId"`
	Title         string    `json:"title"`
	PriceCents    *int64    `json:"priceCents"`
	PriceLabel    string    `json:"priceLabel"`
	PriceInput    string    `json:"priceInput"`
	Description   *string   `json:"description"`
	PhotoURL      *string   `json:"photoUrl"`
	Status        string    `json:"status"`
	InterestCount int       `json:"interestCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type garageViewResponse struct {
	Garage  garageSummaryResponse `json:"garage"`
	Items   []itemResponse        `json:"items"`
	IsOwner bool                  `json:"isOwner"`
}

// CreateGarage はガレージを作成する。
// POST /api/garages
func (h *GarageHandler) CreateGarage(w http.ResponseWriter, r *http.Request) {
	var req createGarageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.service.CreateGarage(r.Context(), garage.CreateInput{
		Title:      req.Title,
		Slug:       req.Slug,
		OwnerEmail: req.OwnerEmail,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGarageResponse{ID: g.ID, Slug: g.Slug})
}

// ListGarages は全ガレージをタイトル順で返す。
// GET /api/garages
func (h *GarageHandler) ListGarages(w http.ResponseWriter, r *http.Request) {
	garages, err := h.service.ListGarages(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]garageSummaryResponse, len(garages))
	for i, g := range garages {
		resp[i] = toGarageSummary(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGarage はガレージページの内容を返す。
// GET /api/garages/{slug}
func (h *GarageHandler) GetGarage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	owner := middleware.OwnerGarageIDFromContext(r.Context())

	view, err := h.service.GetGarageView(r.Context(), slug, owner)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]itemResponse, len(view.Items))
	for i, iv := range view.Items {
		items[i] = toItemResponse(&iv.Item, iv.InterestCount, iv.PriceLabel, iv.PriceInput)
	}

	writeJSON(w, http.StatusOK, garageViewResponse{
		Garage:  toGarageSummary(view.Garage),
		Items:   items,
		IsOwner: view.IsOwner,
	})
}

func toGarageSummary(g *model.Garage) garageSummaryResponse {
	return garageSummaryResponse{ID: g.ID, Title: g.Title, Slug: g.Slug}
}

func toItemResponse(it *model.Item, interestCount int, priceLabel, priceInput string) itemResponse {
	return itemResponse{
		ID:            it.ID,
		GarageID:      it.GarageID,
		Title:         it.Title,
		PriceCents:    it.PriceCents,
		PriceLabel:    priceLabel,
		PriceInput:    priceInput,
		Description:   optionalString(it.Description),
		PhotoURL:      optionalString(it.PhotoURL),
		Status:        string(it.Status),
		InterestCount: interestCount,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

// optionalString は空文字列をJSONのnullとして出力するためのポインタに変換する。
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
