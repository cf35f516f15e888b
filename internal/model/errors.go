// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, order, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountIncomplete  = "ACCOUNT_INCOMPLETE"
	ErrCodeAuthUnavailable    = "AUTH_UNAVAILABLE"
	ErrCodeAccountDisabled    = "ACCOUNT_DISABLED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeCustomerNotFound   = "CUSTOMER_NOT_FOUND"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidImageURL    = "INVALID_IMAGE_URL"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

// NewInvalidCredentialsError は資格情報エラーを生成する。
// 再試行はユーザー操作に委ね、自動リトライは行わない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
		Action:   "Check your credentials and try again.",
	}
}

// NewAccountIncompleteError はセッションは有効だがプロフィール行が存在しない
// 不整合状態のエラーを生成する。補償サインアウト後に返される。
func NewAccountIncompleteError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountIncomplete,
		Message:  "Your account setup is incomplete.",
		Category: "auth",
		Action:   "Contact an administrator to finish provisioning your account.",
	}
}

// NewAccountDisabledError は論理無効化済みアカウントでのサインイン試行の
// エラーを生成する。補償サインアウト後に返される。
func NewAccountDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountDisabled,
		Message:  "This account has been deactivated.",
		Category: "auth",
		Action:   "Contact an administrator to reactivate your account.",
	}
}

// NewAuthUnavailableError はIDプロバイダーまたはプロフィール参照の
// 一時的な障害を表すエラーを生成する。
func NewAuthUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthUnavailable,
		Message:  "The authentication service is temporarily unavailable.",
		Category: "auth",
		Action:   "Wait a moment and try again.",
	}
}

// NewUnauthorizedError は未認証アクセスのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Sign in to continue.",
	}
}

// NewForbiddenError は権限不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You do not have permission to access this page.",
		Category: "auth",
		Action:   "Contact an administrator if you believe this is a mistake.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("User not found: %s", id),
		Category: "auth",
		Action:   "Check the user ID and try again.",
	}
}

// NewDuplicateEmailError は既に登録済みのメールアドレスで
// ユーザーを作成しようとした場合のエラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("A user with email %s already exists.", email),
		Category: "validation",
		Action:   "Use a different email address.",
	}
}

// NewInvalidRoleError は無効なロール指定のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("Invalid role: %s", role),
		Category: "validation",
		Action:   "Role must be one of admin, manager or staff.",
	}
}

// NewCustomerNotFoundError は顧客が見つからない場合のエラーを生成する。
func NewCustomerNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCustomerNotFound,
		Message:  fmt.Sprintf("Customer not found: %s", id),
		Category: "validation",
		Action:   "Check the customer ID and try again.",
	}
}

// NewProductNotFoundError は商品が見つからない場合のエラーを生成する。
func NewProductNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("Product not found: %s", id),
		Category: "validation",
		Action:   "Check the product ID and try again.",
	}
}

// NewOrderNotFoundError は注文が見つからない場合のエラーを生成する。
func NewOrderNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("Order not found: %s", id),
		Category: "order",
		Action:   "Check the order ID and try again.",
	}
}

// NewInvalidStatusError は無効な注文ステータスのエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("Invalid order status: %s", status),
		Category: "validation",
		Action:   "Status must be one of pending, processing, shipped, delivered or cancelled.",
	}
}

// NewInsufficientStockError は在庫不足のエラーを生成する。
func NewInsufficientStockError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientStock,
		Message:  fmt.Sprintf("Not enough stock for product %s.", productID),
		Category: "order",
		Action:   "Reduce the quantity or restock the product first.",
	}
}

// NewInvalidImageURLError は商品画像URLが検証に失敗した場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("Invalid image URL: %s", reason),
		Category: "validation",
		Action:   "Use a public https image URL.",
	}
}

// NewValidationError は汎用の入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Validation failed: %s", reason),
		Category: "validation",
		Action:   "Correct the highlighted fields and try again.",
	}
}
