package amortization

import "github.com/shopspring/decimal"

// ScheduleEntry is the state of a loan after one monthly payment.
type ScheduleEntry struct {
	Month            int             `json:"month"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// BuildSchedule produces the full month-by-month schedule for the terms,
// one entry per month, 1-indexed. Every entry reports the nominal fixed
// payment, including the clamped final month where the principal actually
// retired may be smaller.
func BuildSchedule(t Terms) []ScheduleEntry {
	rate := t.monthlyRate()
	payment := MonthlyPayment(t)

	schedule := make([]ScheduleEntry, 0, t.TermMonths)
	remaining := t.Principal

	for month := 1; month <= t.TermMonths; month++ {
		_, _, remaining = step(remaining, rate, payment)
		schedule = append(schedule, ScheduleEntry{
			Month:            month,
			MonthlyPayment:   payment,
			RemainingBalance: ToMoney(decimal.Max(remaining, decimal.Zero)),
		})
	}

	return schedule
}
