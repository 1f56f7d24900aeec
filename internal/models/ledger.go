package models

import "time"

// TransactionType represents the kind of stock movement a ledger row records.
type TransactionType string

const (
	TransactionTypeSale       TransactionType = "SALE"
	TransactionTypePrepIn     TransactionType = "PREP_IN"
	TransactionTypePrepOut    TransactionType = "PREP_OUT"
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeWastage    TransactionType = "WASTAGE"
	TransactionTypeRestock    TransactionType = "RESTOCK"
	TransactionTypeCorrection TransactionType = "CORRECTION"
)

func (t TransactionType) String() string {
	return string(t)
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeSale, TransactionTypePrepIn, TransactionTypePrepOut,
		TransactionTypePurchase, TransactionTypeWastage, TransactionTypeRestock,
		TransactionTypeCorrection:
		return true
	}
	return false
}

// InventoryTransaction is an append-only ledger row. The sum of an item's
// QuantityChange values equals its current stock.
type InventoryTransaction struct {
	ID              string
	ItemID          string
	QuantityChange  float64 // positive for credits, negative for debits
	TransactionType TransactionType
	ReferenceID     string
	Note            string
	CreatedAt       time.Time

	// Joined fields
	ItemName string
}

// TransactionFilter holds filter criteria for ledger listings.
type TransactionFilter struct {
	ItemID      string
	Type        *TransactionType
	ReferenceID string
}

// LedgerDrift describes an item whose counter disagrees with its ledger.
type LedgerDrift struct {
	ItemID       string
	ItemName     string
	CurrentStock float64
	LedgerSum    float64
}

// Difference returns current stock minus the ledger sum.
func (d LedgerDrift) Difference() float64 {
	return d.CurrentStock - d.LedgerSum
}

// PrepBatch records one production run of an intermediate.
type PrepBatch struct {
	ID          string
	ItemID      string
	Quantity    float64
	ReferenceID string
	CreatedAt   time.Time
}

// TransactionList is a paginated list of ledger rows.
type TransactionList struct {
	Transactions []*InventoryTransaction
	Total        int
	Page         int
	TotalPages   int
}
