package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/greystone/loan-service/internal/amortization"
	"github.com/greystone/loan-service/internal/middleware"
	"github.com/greystone/loan-service/internal/models"
)

type createLoanRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	TermMonths         int             `json:"term_months"`
}

type shareLoanRequest struct {
	Email string `json:"email"`
}

// Money values are serialized with exactly 2 fractional digits; the engine's
// rounding guarantees no precision is discarded here.
type loanResponse struct {
	ID                 int64  `json:"id"`
	OwnerID            int64  `json:"owner_id"`
	Amount             string `json:"amount"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	TermMonths         int    `json:"term_months"`
}

type scheduleEntryResponse struct {
	Month            int    `json:"month"`
	MonthlyPayment   string `json:"monthly_payment"`
	RemainingBalance string `json:"remaining_balance"`
}

type summaryResponse struct {
	Month              int    `json:"month"`
	PrincipalBalance   string `json:"principal_balance"`
	TotalPrincipalPaid string `json:"total_principal_paid"`
	TotalInterestPaid  string `json:"total_interest_paid"`
}

func toLoanResponse(l *models.Loan) loanResponse {
	return loanResponse{
		ID:                 l.ID,
		OwnerID:            l.OwnerID,
		Amount:             l.Amount.StringFixed(2),
		AnnualInterestRate: l.AnnualInterestRate.String(),
		TermMonths:         l.TermMonths,
	}
}

// CreateLoan handles loan creation for the authenticated user
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}

	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	loan, err := h.svc.CreateLoan(user.ID, req.Amount, req.AnnualInterestRate, req.TermMonths)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

// ListLoans handles listing loans owned by or shared with the caller
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}

	loans, err := h.svc.ListLoans(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]loanResponse, 0, len(loans))
	for i := range loans {
		out = append(out, toLoanResponse(&loans[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSchedule handles amortization schedule retrieval
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}
	loanID, ok := loanIDFromPath(w, r)
	if !ok {
		return
	}

	schedule, err := h.svc.Schedule(user.ID, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]scheduleEntryResponse, 0, len(schedule))
	for _, entry := range schedule {
		out = append(out, scheduleEntryResponse{
			Month:            entry.Month,
			MonthlyPayment:   entry.MonthlyPayment.StringFixed(2),
			RemainingBalance: entry.RemainingBalance.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSummary handles point-in-time summary retrieval
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}
	loanID, ok := loanIDFromPath(w, r)
	if !ok {
		return
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 {
		writeError(w, http.StatusUnprocessableEntity, "month must be a positive integer")
		return
	}

	summary, err := h.svc.Summary(user.ID, loanID, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// ShareLoan handles sharing a loan with another user
func (h *Handler) ShareLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user")
		return
	}
	loanID, ok := loanIDFromPath(w, r)
	if !ok {
		return
	}

	var req shareLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validEmail(req.Email) {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if err := h.svc.ShareLoan(user, loanID, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toSummaryResponse(s *amortization.Summary) summaryResponse {
	return summaryResponse{
		Month:              s.Month,
		PrincipalBalance:   s.PrincipalBalance.StringFixed(2),
		TotalPrincipalPaid: s.TotalPrincipalPaid.StringFixed(2),
		TotalInterestPaid:  s.TotalInterestPaid.StringFixed(2),
	}
}

func loanIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusUnprocessableEntity, "loan id must be a positive integer")
		return 0, false
	}
	return id, true
}
