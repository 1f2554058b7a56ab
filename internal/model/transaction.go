package model

import "time"

// TransactionType classifies a stock movement.
type TransactionType string

// Transaction types.
const (
	TransactionEntrada TransactionType = "Entrada" // stock increase, including creation
	TransactionSalida  TransactionType = "Salida"  // stock decrease
	TransactionBaja    TransactionType = "Baja"    // decommission
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEntrada, TransactionSalida, TransactionBaja:
		return true
	}
	return false
}

// Transaction is an immutable audit record of a stock-affecting event.
// ItemName is a snapshot taken when the transaction was recorded.
type Transaction struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Type      TransactionType `json:"type"`
	Quantity  int             `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}
