package models

import "time"

// Shipment records a physical delivery ordered for a beneficiary.
type Shipment struct {
	ID             string
	BeneficiaryID  string
	VaultID        string
	TrackingNumber string
	OrderID        string
	CreatedAt      time.Time
}
