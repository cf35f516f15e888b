package model

import "time"

// Customer は顧客レコードを表す。
// TotalPurchasesとLastPurchaseDateは注文作成時に更新される集計値。
type Customer struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	City             string
	State            string
	Address          string
	PostalCode       string
	Country          string
	Notes            string
	CreatedAt        time.Time
	LastPurchaseDate *time.Time
	TotalPurchases   float64
}
