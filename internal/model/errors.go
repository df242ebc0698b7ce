// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, garage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidPrice        = "INVALID_PRICE"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeGarageNotFound      = "GARAGE_NOT_FOUND"
	ErrCodeItemNotFound        = "ITEM_NOT_FOUND"
	ErrCodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	ErrCodePhotoNotFound       = "PHOTO_NOT_FOUND"
	ErrCodeInvalidPassword     = "INVALID_PASSWORD"
	ErrCodeOwnerRequired       = "OWNER_REQUIRED"
	ErrCodeSlugConflict        = "SLUG_CONFLICT"
	ErrCodeSlugExhausted       = "SLUG_EXHAUSTED"
	ErrCodePhotoFetchFailed    = "PHOTO_FETCH_FAILED"
	ErrCodeCSRFInvalid         = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は入力値の検証エラーを生成する。
// messageはそのまま呼び出し元に返される。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body must be valid JSON.",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidPriceError は価格が数値として解釈できない場合のエラーを生成する。
func NewInvalidPriceError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPrice,
		Message:  "Price must be a number.",
		Category: "validation",
		Action:   "価格は数値（例: 12.34）で入力してください。空欄の場合は無料になります。",
	}
}

// NewInvalidURLError は写真URLが不正な場合のエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("Photo URL is not allowed: %s", reason),
		Category: "validation",
		Action:   "公開されている http:// または https:// の画像URLを入力してください。",
	}
}

// NewGarageNotFoundError はガレージが見つからない場合のエラーを生成する。
func NewGarageNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeGarageNotFound,
		Message:  "Garage not found.",
		Category: "garage",
		Action:   "共有されたリンクを確認してください。",
	}
}

// NewItemNotFoundError は品物が見つからない場合のエラーを生成する。
func NewItemNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  "Item not found.",
		Category: "garage",
		Action:   "ページを再読み込みしてください。",
	}
}

// NewParticipantNotFoundError は来場者が見つからない場合のエラーを生成する。
func NewParticipantNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeParticipantNotFound,
		Message:  "Participant not found.",
		Category: "garage",
		Action:   "お名前を入力し直してください。",
	}
}

// NewPhotoNotFoundError は品物に写真が登録されていない場合のエラーを生成する。
func NewPhotoNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePhotoNotFound,
		Message:  "Item has no photo.",
		Category: "garage",
		Action:   "写真URLを登録してください。",
	}
}

// NewInvalidPasswordError はパスコード不一致エラーを生成する。
func NewInvalidPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPassword,
		Message:  "Invalid password.",
		Category: "auth",
		Action:   "オーナーのパスコードを確認してください。",
	}
}

// NewOwnerRequiredError はオーナーセッションが必要な操作を未認可で実行した場合のエラーを生成する。
func NewOwnerRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeOwnerRequired,
		Message:  "Owner session required.",
		Category: "auth",
		Action:   "オーナーのパスコードでロックを解除してください。",
	}
}

// NewSlugConflictError はslugの一意制約に同時作成で衝突した場合のエラーを生成する。
// 呼び出し元は再試行できる。
func NewSlugConflictError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeSlugConflict,
		Message:  fmt.Sprintf("Slug %q was taken while creating the garage.", slug),
		Category: "garage",
		Action:   "もう一度作成してください。",
	}
}

// NewSlugExhaustedError は連番の試行上限に達した場合のエラーを生成する。
func NewSlugExhaustedError(base string) *APIError {
	return &APIError{
		Code:     ErrCodeSlugExhausted,
		Message:  fmt.Sprintf("No free slug left for %q.", base),
		Category: "garage",
		Action:   "別のタイトルまたはslugを指定してください。",
	}
}

// NewPhotoFetchFailedError は写真の取得に失敗した場合のエラーを生成する。
func NewPhotoFetchFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePhotoFetchFailed,
		Message:  "Failed to load the photo.",
		Category: "garage",
		Action:   "写真URLが公開されている画像か確認してください。",
	}
}

// NewCSRFInvalidError はCSRFトークンの検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRF token validation failed.",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error.",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
