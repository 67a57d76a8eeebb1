package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a fixed-rate, fixed-term loan owned by a user
type Loan struct {
	ID                 int64           `json:"id"`
	OwnerID            int64           `json:"owner_id"`
	Amount             decimal.Decimal `json:"amount"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	TermMonths         int             `json:"term_months"`
	CreatedAt          time.Time       `json:"created_at"`
}
