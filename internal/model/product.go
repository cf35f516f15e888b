package model

import "time"

// Product は商品レコードを表す。
// Stockは注文作成トランザクション内で減算される。
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	IsActive    bool
}
