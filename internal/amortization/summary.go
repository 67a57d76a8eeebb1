package amortization

import "github.com/shopspring/decimal"

// Summary is a projection of cumulative loan state as of the end of a month.
type Summary struct {
	Month              int             `json:"month"`
	PrincipalBalance   decimal.Decimal `json:"principal_balance"`
	TotalPrincipalPaid decimal.Decimal `json:"total_principal_paid"`
	TotalInterestPaid  decimal.Decimal `json:"total_interest_paid"`
}

// Summarize replays the recurrence for months 1..month and accumulates
// principal and interest paid. The payment is recomputed with the schedule's
// own length so it always matches the one the schedule was built with.
// Callers guarantee 1 <= month <= len(schedule).
func Summarize(schedule []ScheduleEntry, t Terms, month int) Summary {
	terms := t
	terms.TermMonths = len(schedule)

	rate := terms.monthlyRate()
	payment := MonthlyPayment(terms)

	remaining := terms.Principal
	totalPrincipal := decimal.Zero
	totalInterest := decimal.Zero

	for m := 1; m <= month; m++ {
		var interest, principal decimal.Decimal
		interest, principal, remaining = step(remaining, rate, payment)
		totalInterest = totalInterest.Add(interest)
		totalPrincipal = totalPrincipal.Add(principal)
	}

	return Summary{
		Month:              month,
		PrincipalBalance:   ToMoney(decimal.Max(remaining, decimal.Zero)),
		TotalPrincipalPaid: ToMoney(totalPrincipal),
		TotalInterestPaid:  ToMoney(totalInterest),
	}
}
