package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/garagesale/internal/model"
	"github.com/hitoshi/garagesale/internal/photo"
)

// photoCacheControl は写真レスポンスのキャッシュ指定。
const photoCacheControl = "public, max-age=3600"

// ItemFinder は写真プロキシが品物を取得するためのインターフェース。
type ItemFinder interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
}

// PhotoHandler は品物写真のプロキシハンドラー。
type PhotoHandler struct {
	items   ItemFinder
	fetcher photo.FetcherService
}

// NewPhotoHandler はPhotoHandlerを生成する。
func NewPhotoHandler(items ItemFinder, fetcher photo.FetcherService) *PhotoHandler {
	return &PhotoHandler{items: items, fetcher: fetcher}
}

// GetPhoto は品物の写真URLが指す画像を取得して返す。
// GET /api/items/{id}/photo
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	it, err := h.items.GetItem(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if it.PhotoURL == "" {
		apiErr := model.NewPhotoNotFoundError()
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	p, err := h.fetcher.Fetch(r.Context(), it.PhotoURL)
	if err != nil {
		if !errors.Is(err, photo.ErrFetchFailed) {
			handleServiceError(w, r, err)
			return
		}
		slog.Warn("photo fetch failed",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
		apiErr := model.NewPhotoFetchFailedError()
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Cache-Control", photoCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(p.Data); err != nil {
		slog.Warn("failed to write photo response", slog.String("error", err.Error()))
	}
}
