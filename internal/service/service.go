package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/greystone/loan-service/internal/amortization"
	"github.com/greystone/loan-service/internal/cache"
	"github.com/greystone/loan-service/internal/metrics"
	"github.com/greystone/loan-service/internal/models"
	"github.com/greystone/loan-service/internal/repository"
)

// Store is the persistence surface the service needs. Implemented by
// repository.Repository (postgres) and repository.Memory.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByAPIKey(apiKey string) (*models.User, error)
	ListUsers() ([]models.User, error)
	CreateLoan(loan *models.Loan) error
	FindLoanByID(id int64) (*models.Loan, error)
	ListLoansForUser(userID int64) ([]models.Loan, error)
	CreateLoanShare(loanID, userID int64) error
	HasLoanShare(loanID, userID int64) (bool, error)
}

// Notifier sends user-facing emails. May be nil when SMTP is not configured.
type Notifier interface {
	SendWelcome(to, name, apiKey string) error
	SendLoanShared(to, name, ownerEmail string, loanID int64, amount string, termMonths int) error
}

// KeyGenerator produces opaque API keys.
type KeyGenerator func() (string, error)

// Service handles business logic
type Service struct {
	store    Store
	cache    cache.Cache
	notifier Notifier
	log      *logrus.Logger
	genKey   KeyGenerator
}

// NewService initializes a new service
func NewService(store Store, c cache.Cache, notifier Notifier, log *logrus.Logger, genKey KeyGenerator) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{store: store, cache: c, notifier: notifier, log: log, genKey: genKey}
}

// Register creates a new user with a freshly generated API key
func (s *Service) Register(email, name string) (*models.User, error) {
	if _, err := s.store.FindUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNoRows) {
		return nil, err
	}

	apiKey, err := s.genKey()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:  email,
		Name:   name,
		APIKey: apiKey,
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.notifier != nil {
		// Best effort: a failed welcome email must not fail registration.
		if err := s.notifier.SendWelcome(user.Email, user.Name, user.APIKey); err != nil {
			s.log.Warnf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// APIKeyByEmail retrieves a user's API key by email
func (s *Service) APIKeyByEmail(email string) (*models.User, error) {
	user, err := s.store.FindUserByEmail(email)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ListUsers retrieves all registered users
func (s *Service) ListUsers() ([]models.User, error) {
	return s.store.ListUsers()
}

// Authenticate resolves an opaque API key to a user
func (s *Service) Authenticate(apiKey string) (*models.User, error) {
	user, err := s.store.FindUserByAPIKey(apiKey)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrInvalidAPIKey
	}
	return user, err
}

// CreateLoan creates a loan owned by the user after validating its terms
func (s *Service) CreateLoan(ownerID int64, amount, annualRate decimal.Decimal, termMonths int) (*models.Loan, error) {
	terms := amortization.Terms{
		Principal:         amount,
		AnnualRatePercent: annualRate,
		TermMonths:        termMonths,
	}
	if err := terms.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTerms, err)
	}

	loan := &models.Loan{
		OwnerID:            ownerID,
		Amount:             amount,
		AnnualInterestRate: annualRate,
		TermMonths:         termMonths,
	}
	if err := s.store.CreateLoan(loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan %d created for user %d: %s over %d months", loan.ID, ownerID, amount.StringFixed(2), termMonths)
	return loan, nil
}

// ListLoans retrieves loans owned by or shared with the user
func (s *Service) ListLoans(userID int64) ([]models.Loan, error) {
	return s.store.ListLoansForUser(userID)
}

// Schedule returns the full amortization schedule for a loan the user can access
func (s *Service) Schedule(userID, loanID int64) ([]amortization.ScheduleEntry, error) {
	loan, err := s.loanForUser(userID, loanID)
	if err != nil {
		return nil, err
	}
	return s.scheduleForLoan(loan)
}

// Summary returns cumulative loan state as of the end of the given month
func (s *Service) Summary(userID, loanID int64, month int) (*amortization.Summary, error) {
	loan, err := s.loanForUser(userID, loanID)
	if err != nil {
		return nil, err
	}
	if month < 1 || month > loan.TermMonths {
		return nil, ErrMonthOutOfRange
	}

	schedule, err := s.scheduleForLoan(loan)
	if err != nil {
		return nil, err
	}

	summary := amortization.Summarize(schedule, loanTerms(loan), month)
	return &summary, nil
}

// ShareLoan grants the target user read-only access to an owned loan.
// Sharing an already shared loan is a no-op.
func (s *Service) ShareLoan(owner *models.User, loanID int64, targetEmail string) error {
	loan, err := s.store.FindLoanByID(loanID)
	if errors.Is(err, repository.ErrNoRows) {
		return ErrLoanNotFound
	}
	if err != nil {
		return err
	}
	if loan.OwnerID != owner.ID {
		return ErrNotOwner
	}

	target, err := s.store.FindUserByEmail(targetEmail)
	if errors.Is(err, repository.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if target.ID == owner.ID {
		return ErrSelfShare
	}

	already, err := s.store.HasLoanShare(loan.ID, target.ID)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	if err := s.store.CreateLoanShare(loan.ID, target.ID); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.SendLoanShared(target.Email, target.Name, owner.Email, loan.ID, loan.Amount.StringFixed(2), loan.TermMonths); err != nil {
			s.log.Warnf("Failed to send share notification to %s: %v", target.Email, err)
		}
	}

	s.log.Infof("Loan %d shared by user %d with user %d", loan.ID, owner.ID, target.ID)
	return nil
}

// loanForUser fetches a loan if the user owns it or has it shared with them.
// Inaccessible and nonexistent loans are indistinguishable to the caller.
func (s *Service) loanForUser(userID, loanID int64) (*models.Loan, error) {
	loan, err := s.store.FindLoanByID(loanID)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	if loan.OwnerID == userID {
		return loan, nil
	}

	shared, err := s.store.HasLoanShare(loanID, userID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

// scheduleForLoan builds the schedule, memoized through the cache. Loan terms
// are immutable, so cached schedules never go stale.
func (s *Service) scheduleForLoan(loan *models.Loan) ([]amortization.ScheduleEntry, error) {
	key := fmt.Sprintf("loan:%d:schedule", loan.ID)

	if raw, ok := s.cache.Get(key); ok {
		var schedule []amortization.ScheduleEntry
		if err := json.Unmarshal([]byte(raw), &schedule); err == nil {
			metrics.ScheduleCacheHits.Inc()
			return schedule, nil
		}
		s.log.Warnf("Discarding unreadable cache entry %s", key)
	}

	schedule := amortization.BuildSchedule(loanTerms(loan))
	metrics.SchedulesComputed.Inc()

	if raw, err := json.Marshal(schedule); err == nil {
		if err := s.cache.Set(key, string(raw)); err != nil {
			s.log.Warnf("Failed to cache schedule for loan %d: %v", loan.ID, err)
		}
	}

	return schedule, nil
}

func loanTerms(loan *models.Loan) amortization.Terms {
	return amortization.Terms{
		Principal:         loan.Amount,
		AnnualRatePercent: loan.AnnualInterestRate,
		TermMonths:        loan.TermMonths,
	}
}
