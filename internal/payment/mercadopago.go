package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"
)

var ErrMissingAccessToken = errors.New("missing mercado pago access token")

// paymentClient is the part of payment.Client the gateway uses.
type paymentClient interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Search(ctx context.Context, request payment.SearchRequest) (*payment.SearchResponse, error)
}

type MercadoPagoGateway struct {
	client paymentClient
	logger *zap.Logger
}

func NewMercadoPagoGateway(accessToken string, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create mercado pago config: %w", err)
	}
	logger.Info("Mercado Pago client initialized")
	return &MercadoPagoGateway{client: payment.NewClient(cfg), logger: logger}, nil
}

func (g *MercadoPagoGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	token, _ := req.Data["token"].(string)
	email, _ := req.Data["payerEmail"].(string)
	if req.Method == "" || email == "" {
		return rejected(CodeInvalidMethod, "payment method and payer email are required", ""), nil
	}

	installments := 1
	if n, ok := req.Data["installments"].(float64); ok && n >= 1 {
		installments = int(n)
	}

	prior, err := g.priorCharge(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return prior, nil
	}

	request := payment.Request{
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       "Visa application order " + req.OrderID,
		PaymentMethodID:   req.Method,
		Token:             token,
		Installments:      installments,
		ExternalReference: req.OrderID,
		Payer:             &payment.PayerRequest{Email: email},
	}

	resp, err := g.client.Create(ctx, request)
	if err != nil {
		g.logger.Error("Mercado Pago create payment failed",
			zap.String("orderId", req.OrderID),
			zap.Error(err),
		)
		return nil, err
	}

	id := fmt.Sprintf("%d", resp.ID)
	g.logger.Info("Mercado Pago payment created",
		zap.String("orderId", req.OrderID),
		zap.String("providerPaymentId", id),
		zap.String("providerStatus", resp.Status),
	)

	return chargeResult(resp), nil
}

// priorCharge returns the approved or still pending payment already created
// for the order, if any. Declined attempts are ignored.
func (g *MercadoPagoGateway) priorCharge(ctx context.Context, orderID string) (*ChargeResult, error) {
	found, err := g.client.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{"external_reference": orderID},
	})
	if err != nil {
		g.logger.Error("Mercado Pago payment search failed", zap.String("orderId", orderID), zap.Error(err))
		return nil, err
	}
	if found == nil {
		return nil, nil
	}

	var pending *payment.Response
	for i := range found.Results {
		resp := &found.Results[i]
		switch resp.Status {
		case "approved", "authorized":
			g.logger.Info("Mercado Pago payment already settled",
				zap.String("orderId", orderID),
				zap.Int("providerPaymentId", resp.ID),
			)
			return chargeResult(resp), nil
		case "pending", "in_process", "in_mediation":
			if pending == nil {
				pending = resp
			}
		}
	}
	if pending != nil {
		g.logger.Info("Mercado Pago payment still pending",
			zap.String("orderId", orderID),
			zap.Int("providerPaymentId", pending.ID),
			zap.String("providerStatus", pending.Status),
		)
		return chargeResult(pending), nil
	}
	return nil, nil
}

func chargeResult(resp *payment.Response) *ChargeResult {
	id := fmt.Sprintf("%d", resp.ID)
	switch resp.Status {
	case "approved", "authorized":
		return &ChargeResult{Approved: true, PaymentID: id, ProviderStatus: resp.Status}
	case "rejected", "cancelled", "refunded", "charged_back":
		return rejected(CodeDeclined, resp.StatusDetail, resp.Status)
	default:
		res := rejected(CodeNotCaptured, fmt.Sprintf("payment %s is %s", id, resp.Status), resp.Status)
		res.PaymentID = id
		return res
	}
}
