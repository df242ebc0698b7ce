// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/garagesale/internal/middleware"
	"github.com/hitoshi/garagesale/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの最大サイズ（1MB）。
const maxRequestBodySize = 1 << 20

// okResponse は処理成功のみを示すレスポンス。
type okResponse struct {
	OK bool `json:"ok"`
}

// decodeJSON はリクエストボディをJSONとしてdstにデコードする。
// 失敗した場合はINVALID_REQUESTを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// writeJSON はstatusCodeとともにvをJSONで書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外はストア障害等として500を返し、詳細はログのみに記録する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidPrice, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeGarageNotFound, model.ErrCodeItemNotFound,
		model.ErrCodeParticipantNotFound, model.ErrCodePhotoNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidPassword, model.ErrCodeOwnerRequired:
		return http.StatusUnauthorized
	case model.ErrCodeCSRFInvalid:
		return http.StatusForbidden
	case model.ErrCodeSlugConflict, model.ErrCodeSlugExhausted:
		return http.StatusConflict
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodePhotoFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
