package model

// FinanceSummary は売上の集計値。キャンセル済み注文は集計から除外する。
type FinanceSummary struct {
	TotalRevenue      float64
	OrderCount        int
	AverageOrderValue float64
	PendingOrders     int
}

// MonthlyRevenue は月次の売上集計。Monthは"2006-01"形式。
type MonthlyRevenue struct {
	Month      string
	Revenue    float64
	OrderCount int
}

// ProductSales は商品別の販売集計。
type ProductSales struct {
	ProductID   string
	ProductName string
	Quantity    int
	Revenue     float64
}

// CustomerSpend は顧客別の購入集計。
type CustomerSpend struct {
	CustomerID   string
	CustomerName string
	OrderCount   int
	TotalSpend   float64
}
