package model

import "time"

// OrderStatus は注文の処理状態を表す。
type OrderStatus string

const (
	// OrderStatusPending は未処理の注文。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing は処理中の注文。
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped は発送済みの注文。
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered は配達完了の注文。
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled はキャンセル済みの注文。
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus はstatusが定義済みの値かどうかを返す。
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order は注文レコードを表す。
type Order struct {
	ID                 string
	CustomerID         string
	Status             OrderStatus
	CreatedAt          time.Time
	Total              float64
	ShippingMethod     string
	ShippingAddress    string
	ShippingCity       string
	ShippingState      string
	ShippingPostalCode string
	ShippingCountry    string
	PaymentMethod      string
	Notes              string
}

// OrderItem は注文の明細行を表す。
// Priceは注文時点の商品単価のスナップショット。
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     float64
}
