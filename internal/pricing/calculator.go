package pricing

import (
	"github.com/shopspring/decimal"

	"visaflow/internal/domain"
)

// Base service prices in KRW.
var defaultBasePrices = map[domain.VisaCategory]int64{
	domain.VisaC3:  150_000,
	domain.VisaD2:  250_000,
	domain.VisaD4:  200_000,
	domain.VisaD8:  500_000,
	domain.VisaD10: 200_000,
	domain.VisaE1:  300_000,
	domain.VisaE2:  250_000,
	domain.VisaE7:  400_000,
	domain.VisaE9:  200_000,
	domain.VisaF2:  350_000,
	domain.VisaF4:  200_000,
	domain.VisaF5:  600_000,
	domain.VisaF6:  350_000,
	domain.VisaH2:  200_000,
}

const (
	DefaultFallbackBasePrice = 300_000
	DefaultConsultationFee   = 100_000
)

var DefaultUrgentRate = decimal.RequireFromString("0.5")

type Config struct {
	BasePrices        map[domain.VisaCategory]decimal.Decimal
	FallbackBasePrice decimal.Decimal
	UrgentRate        decimal.Decimal
	ConsultationFee   decimal.Decimal
}

func DefaultConfig() Config {
	prices := make(map[domain.VisaCategory]decimal.Decimal, len(defaultBasePrices))
	for c, p := range defaultBasePrices {
		prices[c] = decimal.NewFromInt(p)
	}
	return Config{
		BasePrices:        prices,
		FallbackBasePrice: decimal.NewFromInt(DefaultFallbackBasePrice),
		UrgentRate:        DefaultUrgentRate,
		ConsultationFee:   decimal.NewFromInt(DefaultConsultationFee),
	}
}

// Calculator derives order pricing. It never touches order status.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	if cfg.BasePrices == nil {
		cfg.BasePrices = DefaultConfig().BasePrices
	}
	return &Calculator{cfg: cfg}
}

func (c *Calculator) BasePrice(category domain.VisaCategory) decimal.Decimal {
	if p, ok := c.cfg.BasePrices[category]; ok {
		return p
	}
	return c.cfg.FallbackBasePrice
}

// InitialPricing is the estimate quoted at order creation: base, urgent and
// consultation fees. The legal fee is added once a representative is matched.
func (c *Calculator) InitialPricing(category domain.VisaCategory, opts domain.ServiceOptions) domain.Pricing {
	p := domain.Pricing{Currency: domain.DefaultCurrency}
	c.AssignBasePrice(&p, c.BasePrice(category), opts.UrgentProcessing)
	if opts.ConsultationIncluded {
		p.SetConsultationFee(c.cfg.ConsultationFee)
	}
	return p
}

// AssignBasePrice sets the base price and re-derives the urgent fee from it in
// the same step.
func (c *Calculator) AssignBasePrice(p *domain.Pricing, base decimal.Decimal, urgent bool) {
	urgentFee := decimal.Zero
	if urgent {
		urgentFee = base.Mul(c.cfg.UrgentRate).Round(0)
	}
	p.SetBase(base, urgentFee)
}

// ApplyMatchFee carries a matched representative's fee onto the order.
func (c *Calculator) ApplyMatchFee(order *domain.Order, fee domain.MatchFee) decimal.Decimal {
	order.Pricing.SetLegalFee(fee.LegalFee())
	return order.Pricing.TotalAmount
}

// Recompute refreshes and returns the order total.
func Recompute(order *domain.Order) decimal.Decimal {
	return order.Pricing.Recompute()
}
