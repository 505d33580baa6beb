package matching

import (
	"github.com/shopspring/decimal"

	"visaflow/internal/domain"
)

// Fallback fees in KRW for categories missing from the fee table.
const (
	FallbackServiceFee    = 1_000_000
	FallbackGovernmentFee = 60_000
)

// Representatives with at least this many years charge the experience premium.
const seniorExperienceYears = 10

var experiencePremium = decimal.RequireFromString("1.10")

type feeRow struct {
	service    int64
	government int64
}

var feeTable = map[domain.VisaCategory]feeRow{
	domain.VisaD2: {service: 500_000, government: 60_000},
	domain.VisaD8: {service: 1_500_000, government: 100_000},
	domain.VisaE1: {service: 800_000, government: 60_000},
	domain.VisaE2: {service: 600_000, government: 60_000},
	domain.VisaE7: {service: 1_000_000, government: 60_000},
	domain.VisaE9: {service: 500_000, government: 60_000},
	domain.VisaF2: {service: 1_000_000, government: 130_000},
	domain.VisaF5: {service: 1_200_000, government: 230_000},
	domain.VisaF6: {service: 900_000, government: 130_000},
}

// FeeFor quotes the representative's fee for category. Consultation is passed
// through from the order so the quote shows the full engagement cost.
func FeeFor(category domain.VisaCategory, rep domain.Representative, consultation decimal.Decimal) domain.MatchFee {
	row, ok := feeTable[category]
	if !ok {
		row = feeRow{service: FallbackServiceFee, government: FallbackGovernmentFee}
	}
	service := decimal.NewFromInt(row.service)
	if rep.ExperienceYears >= seniorExperienceYears {
		service = service.Mul(experiencePremium).Round(0)
	}
	return domain.NewMatchFee(consultation, service, decimal.NewFromInt(row.government))
}
