package service

import (
	"fmt"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greystone/loan-service/internal/cache"
	"github.com/greystone/loan-service/internal/models"
	"github.com/greystone/loan-service/internal/repository"
)

type fakeNotifier struct {
	welcomes []string
	shares   []string
}

func (f *fakeNotifier) SendWelcome(to, name, apiKey string) error {
	f.welcomes = append(f.welcomes, to)
	return nil
}

func (f *fakeNotifier) SendLoanShared(to, name, ownerEmail string, loanID int64, amount string, termMonths int) error {
	f.shares = append(f.shares, to)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeNotifier, *cache.Memory) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	n := 0
	genKey := func() (string, error) {
		n++
		return fmt.Sprintf("test-key-%d", n), nil
	}

	notifier := &fakeNotifier{}
	c := cache.NewMemory()
	svc := NewService(repository.NewMemory(), c, notifier, logger, genKey)
	return svc, notifier, c
}

func mustRegister(t *testing.T, svc *Service, email string) *models.User {
	t.Helper()
	user, err := svc.Register(email, "")
	require.NoError(t, err)
	return user
}

func mustCreateLoan(t *testing.T, svc *Service, ownerID int64, amount, rate string, term int) *models.Loan {
	t.Helper()
	loan, err := svc.CreateLoan(ownerID, decimal.RequireFromString(amount), decimal.RequireFromString(rate), term)
	require.NoError(t, err)
	return loan
}

func TestRegister(t *testing.T) {
	svc, notifier, _ := newTestService(t)

	user, err := svc.Register("alice@example.com", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEmpty(t, user.APIKey)
	assert.Equal(t, []string{"alice@example.com"}, notifier.welcomes)

	_, err = svc.Register("alice@example.com", "Alice Again")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := mustRegister(t, svc, "alice@example.com")

	got, err := svc.Authenticate(user.APIKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate("no-such-key")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAPIKeyByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := mustRegister(t, svc, "alice@example.com")

	got, err := svc.APIKeyByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.APIKey, got.APIKey)

	_, err = svc.APIKeyByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateLoanRejectsInvalidTerms(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := mustRegister(t, svc, "alice@example.com")

	tests := []struct {
		name   string
		amount string
		rate   string
		term   int
	}{
		{"zero amount", "0.00", "5.0", 12},
		{"negative amount", "-100.00", "5.0", 12},
		{"negative rate", "1000.00", "-1.0", 12},
		{"zero term", "1000.00", "5.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateLoan(user.ID, decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate), tt.term)
			assert.ErrorIs(t, err, ErrInvalidTerms)
		})
	}
}

func TestScheduleAccessControl(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := mustRegister(t, svc, "alice@example.com")
	bob := mustRegister(t, svc, "bob@example.com")
	loan := mustCreateLoan(t, svc, alice.ID, "1000.00", "0.0", 10)

	schedule, err := svc.Schedule(alice.ID, loan.ID)
	require.NoError(t, err)
	assert.Len(t, schedule, 10)

	// Bob has no access, and cannot tell the loan exists.
	_, err = svc.Schedule(bob.ID, loan.ID)
	assert.ErrorIs(t, err, ErrLoanNotFound)

	_, err = svc.Schedule(alice.ID, 999)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestScheduleIsCached(t *testing.T) {
	svc, _, c := newTestService(t)
	alice := mustRegister(t, svc, "alice@example.com")
	loan := mustCreateLoan(t, svc, alice.ID, "1200.00", "12.0", 12)

	first, err := svc.Schedule(alice.ID, loan.ID)
	require.NoError(t, err)

	_, cached := c.Get(fmt.Sprintf("loan:%d:schedule", loan.ID))
	assert.True(t, cached)

	second, err := svc.Schedule(alice.ID, loan.ID)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Month, second[i].Month)
		assert.True(t, first[i].MonthlyPayment.Equal(second[i].MonthlyPayment))
		assert.True(t, first[i].RemainingBalance.Equal(second[i].RemainingBalance))
	}
}

func TestSummary(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := mustRegister(t, svc, "alice@example.com")
	loan := mustCreateLoan(t, svc, alice.ID, "10000.00", "10.0", 24)

	summary, err := svc.Summary(alice.ID, loan.ID, 1)
	require.NoError(t, err)
	assert.True(t, summary.TotalInterestPaid.IsPositive())
	assert.True(t, summary.PrincipalBalance.LessThan(decimal.RequireFromString("10000.00")))

	final, err := svc.Summary(alice.ID, loan.ID, 24)
	require.NoError(t, err)
	assert.Equal(t, "0.00", final.PrincipalBalance.StringFixed(2))

	_, err = svc.Summary(alice.ID, loan.ID, 25)
	assert.ErrorIs(t, err, ErrMonthOutOfRange)
	_, err = svc.Summary(alice.ID, loan.ID, 0)
	assert.ErrorIs(t, err, ErrMonthOutOfRange)
}

func TestShareLoan(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	alice := mustRegister(t, svc, "alice@example.com")
	bob := mustRegister(t, svc, "bob@example.com")
	loan := mustCreateLoan(t, svc, alice.ID, "5000.00", "0.0", 5)

	// Only the owner may share.
	assert.ErrorIs(t, svc.ShareLoan(bob, loan.ID, "alice@example.com"), ErrNotOwner)
	assert.ErrorIs(t, svc.ShareLoan(alice, loan.ID, "nobody@example.com"), ErrUserNotFound)
	assert.ErrorIs(t, svc.ShareLoan(alice, loan.ID, "alice@example.com"), ErrSelfShare)
	assert.ErrorIs(t, svc.ShareLoan(alice, 999, "bob@example.com"), ErrLoanNotFound)

	require.NoError(t, svc.ShareLoan(alice, loan.ID, "bob@example.com"))
	assert.Equal(t, []string{"bob@example.com"}, notifier.shares)

	// Bob now sees the loan and can read its schedule.
	loans, err := svc.ListLoans(bob.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, loan.ID, loans[0].ID)

	_, err = svc.Schedule(bob.ID, loan.ID)
	assert.NoError(t, err)

	// Re-sharing is a no-op and does not notify again.
	require.NoError(t, svc.ShareLoan(alice, loan.ID, "bob@example.com"))
	assert.Len(t, notifier.shares, 1)
}

func TestListLoansExcludesForeignLoans(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := mustRegister(t, svc, "alice@example.com")
	bob := mustRegister(t, svc, "bob@example.com")
	mustCreateLoan(t, svc, alice.ID, "1000.00", "5.0", 12)

	loans, err := svc.ListLoans(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, loans)
}
