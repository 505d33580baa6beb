package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPricing_RecomputeIsIdempotent(t *testing.T) {
	p := Pricing{
		BasePrice:       decimal.NewFromInt(300000),
		LegalFee:        decimal.NewFromInt(860000),
		UrgentFee:       decimal.NewFromInt(150000),
		ConsultationFee: decimal.NewFromInt(100000),
	}

	first := p.Recompute()
	second := p.Recompute()

	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(decimal.NewFromInt(1410000)))
}

func TestPricing_SettersKeepTotalConsistent(t *testing.T) {
	var p Pricing
	p.SetBase(decimal.NewFromInt(300000), decimal.NewFromInt(150000))
	assert.True(t, p.TotalAmount.Equal(decimal.NewFromInt(450000)))

	p.SetLegalFee(decimal.NewFromInt(500000))
	assert.True(t, p.IsConsistent())
	assert.True(t, p.TotalAmount.Equal(decimal.NewFromInt(950000)))

	p.SetConsultationFee(decimal.NewFromInt(100000))
	assert.True(t, p.IsConsistent())
	assert.True(t, p.TotalAmount.Equal(decimal.NewFromInt(1050000)))
}

func TestPricing_IsConsistent_DetectsDrift(t *testing.T) {
	p := Pricing{BasePrice: decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(90)}
	assert.False(t, p.IsConsistent())
}
