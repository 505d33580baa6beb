package domain

import "github.com/shopspring/decimal"

const DefaultCurrency = "KRW"

// Pricing keeps TotalAmount equal to the sum of its components: every setter
// recomputes, there is no derive-on-read.
type Pricing struct {
	BasePrice       decimal.Decimal `json:"basePrice"`
	LegalFee        decimal.Decimal `json:"legalFee"`
	UrgentFee       decimal.Decimal `json:"urgentFee"`
	ConsultationFee decimal.Decimal `json:"consultationFee"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
}

// Recompute sets TotalAmount from the fee components and returns it.
func (p *Pricing) Recompute() decimal.Decimal {
	p.TotalAmount = p.BasePrice.Add(p.LegalFee).Add(p.UrgentFee).Add(p.ConsultationFee)
	return p.TotalAmount
}

// SetBase assigns base price and urgent fee together so they cannot drift.
func (p *Pricing) SetBase(basePrice, urgentFee decimal.Decimal) {
	p.BasePrice = basePrice
	p.UrgentFee = urgentFee
	p.Recompute()
}

func (p *Pricing) SetLegalFee(fee decimal.Decimal) {
	p.LegalFee = fee
	p.Recompute()
}

func (p *Pricing) SetConsultationFee(fee decimal.Decimal) {
	p.ConsultationFee = fee
	p.Recompute()
}

// IsConsistent reports whether TotalAmount matches the components.
func (p Pricing) IsConsistent() bool {
	return p.TotalAmount.Equal(p.BasePrice.Add(p.LegalFee).Add(p.UrgentFee).Add(p.ConsultationFee))
}
