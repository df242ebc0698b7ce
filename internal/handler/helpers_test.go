package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/garagesale/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewValidationError("x"), http.StatusBadRequest},
		{model.NewInvalidRequestError(), http.StatusBadRequest},
		{model.NewInvalidPriceError(), http.StatusBadRequest},
		{model.NewInvalidURLError("x"), http.StatusBadRequest},
		{model.NewGarageNotFoundError(), http.StatusNotFound},
		{model.NewItemNotFoundError(), http.StatusNotFound},
		{model.NewParticipantNotFoundError(), http.StatusNotFound},
		{model.NewPhotoNotFoundError(), http.StatusNotFound},
		{model.NewInvalidPasswordError(), http.StatusUnauthorized},
		{model.NewOwnerRequiredError(), http.StatusUnauthorized},
		{model.NewCSRFInvalidError(), http.StatusForbidden},
		{model.NewSlugConflictError("a"), http.StatusConflict},
		{model.NewSlugExhaustedError("a"), http.StatusConflict},
		{model.NewRateLimitedError(), http.StatusTooManyRequests},
		{model.NewPhotoFetchFailedError(), http.StatusBadGateway},
		{model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handleServiceError(w, req, fmt.Errorf("wrapped: %w", model.NewItemNotFoundError()))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeItemNotFound {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeItemNotFound)
	}
}

func TestHandleServiceError_StoreErrorIsGeneric500(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handleServiceError(w, req, errors.New("pq: connection refused to 10.0.0.5"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	// 内部の詳細はレスポンスに含めない
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("response leaks internal error: %s", w.Body.String())
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInternal)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("不正なJSONはINVALID_REQUEST", func(t *testing.T) {
		w := httptest.NewRecorder()
		var dst struct{}
		if decodeJSON(w, jsonRequest(http.MethodPost, "/", "{broken"), &dst) {
			t.Fatal("decodeJSON() = true, want false")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidRequest {
			t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
		}
	})

	t.Run("空ボディは空オブジェクトとして扱う", func(t *testing.T) {
		w := httptest.NewRecorder()
		var dst struct {
			Title string `json:"title"`
		}
		if !decodeJSON(w, jsonRequest(http.MethodPost, "/", ""), &dst) {
			t.Fatal("decodeJSON() = false, want true")
		}
		if dst.Title != "" {
			t.Errorf("Title = %q, want empty", dst.Title)
		}
	})

	t.Run("サイズ上限を超えるボディは拒否", func(t *testing.T) {
		w := httptest.NewRecorder()
		big := `{"title":"` + strings.Repeat("a", maxRequestBodySize+1) + `"}`
		var dst struct {
			Title string `json:"title"`
		}
		if decodeJSON(w, jsonRequest(http.MethodPost, "/", big), &dst) {
			t.Fatal("decodeJSON() = true, want false")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}
