package model

import "time"

// Item represents a tracked piece of equipment and its quantity on hand.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DeviceType   string    `json:"deviceType"`
	SerialNumber string    `json:"serialNumber"`
	Location     string    `json:"location"`
	Quantity     int       `json:"quantity"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Draft is a pending item as entered (or scanned) before the ledger commits it.
// Quantity is kept as entered so the ledger can reject unparsable input.
type Draft struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	DeviceType   string `json:"deviceType"`
	SerialNumber string `json:"serialNumber"`
	Quantity     string `json:"quantity" validate:"required"`
	Location     string `json:"location"`
}
