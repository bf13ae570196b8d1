package models

import "time"

// BeneficiaryStatus tracks whether release notification has happened.
type BeneficiaryStatus string

const (
	BeneficiaryPending  BeneficiaryStatus = "pending"
	BeneficiaryNotified BeneficiaryStatus = "notified"
)

// Address is the postal address used for physical delivery.
type Address struct {
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
}

// Complete reports whether every mandatory field is set.
func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

// Beneficiary receives access once the vault is released. Only a hash of
// the release token is stored.
type Beneficiary struct {
	ID                    string
	VaultID               string
	Name                  string
	Email                 string
	Language              string
	Address               Address
	Status                BeneficiaryStatus
	ReleaseTokenHash      string
	ReleaseTokenExpiresAt *time.Time
	ReleaseTokenUsedAt    *time.Time
	CreatedAt             time.Time
}
