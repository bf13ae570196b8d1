package notify

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/google/uuid"
)

// ShipmentRequest describes a physical delivery of the recovery document.
type ShipmentRequest struct {
	BeneficiaryID string
	Name          string
	Address       models.Address
	Description   string
}

// ShipmentResult is what the shipping provider returns.
type ShipmentResult struct {
	TrackingNumber string
	OrderID        string
}

// Shipper orders a physical delivery. Every successful call has a real
// world cost, so callers must check for an existing shipment first.
type Shipper interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResult, error)
}

// LogShipper fakes a provider: it logs the order and returns random ids.
type LogShipper struct {
	log logging.Logger
}

func NewLogShipper(log logging.Logger) *LogShipper {
	return &LogShipper{log: log.With("module", "shipper")}
}

func (s *LogShipper) CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &ShipmentResult{
		TrackingNumber: "TRK-" + strings.ToUpper(uuid.NewString()[:8]),
		OrderID:        uuid.NewString(),
	}
	s.log.Info(ctx, "shipment ordered",
		"beneficiary_id", req.BeneficiaryID,
		"country", req.Address.Country,
		"order_id", res.OrderID)
	return res, nil
}
