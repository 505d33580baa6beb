package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSimulatedOutage = errors.New("simulated payment provider outage")

// StubGateway approves every charge unless the payment data asks otherwise
// through "simulate": "decline" or "simulate": "outage".
type StubGateway struct {
	logger *zap.Logger
}

func NewStubGateway(logger *zap.Logger) *StubGateway {
	return &StubGateway{logger: logger}
}

func (g *StubGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	simulate, _ := req.Data["simulate"].(string)

	switch strings.ToLower(simulate) {
	case "decline":
		g.logger.Info("Stub payment declined", zap.String("orderId", req.OrderID))
		return rejected(CodeDeclined, "card declined by issuer", "rejected"), nil
	case "outage":
		return nil, ErrSimulatedOutage
	}

	if !req.Amount.IsPositive() {
		return rejected(CodeInvalidMethod, "charge amount must be positive", "rejected"), nil
	}

	id := "stub-" + uuid.New().String()
	g.logger.Info("Stub payment approved",
		zap.String("orderId", req.OrderID),
		zap.String("paymentId", id),
		zap.String("amount", req.Amount.String()),
	)
	return &ChargeResult{Approved: true, PaymentID: id, ProviderStatus: "approved"}, nil
}
