package models

// TransactionType is the ledger side of a transaction.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// TransactionStatus is the posting state of a transaction.
type TransactionStatus string

const (
	Posted  TransactionStatus = "POSTED"
	Pending TransactionStatus = "PENDING"
	Flagged TransactionStatus = "FLAGGED"
)

// Transaction is one general-ledger line.
type Transaction struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	Type        TransactionType   `json:"type"`
	Category    string            `json:"category"`
	Status      TransactionStatus `json:"status"`
}

// ItemCategory groups inventory items.
type ItemCategory string

const (
	CategoryPharma   ItemCategory = "PHARMA"
	CategorySurgical ItemCategory = "SURGICAL"
	CategoryGeneral  ItemCategory = "GENERAL"
)

// InventoryItem is one stocked medical supply.
type InventoryItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	SKU          string       `json:"sku"`
	StockLevel   int          `json:"stockLevel"`
	ReorderPoint int          `json:"reorderPoint"`
	UnitPrice    float64      `json:"unitPrice"`
	Category     ItemCategory `json:"category"`
}

// LowStock reports whether the item is at or below its reorder point.
func (i InventoryItem) LowStock() bool {
	return i.StockLevel <= i.ReorderPoint
}

// Trend is the direction a KPI moved.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// KPI is one headline figure on the dashboard.
type KPI struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  Trend  `json:"trend"`
}

// RevenuePoint is one month of the revenue/expense chart.
type RevenuePoint struct {
	Month   string  `json:"name"`
	Revenue float64 `json:"Pendapatan"`
	Expense float64 `json:"Pengeluaran"`
}
