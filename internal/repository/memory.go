package repository

import (
	"sync"
	"time"

	"github.com/greystone/loan-service/internal/models"
)

// Memory is an in-memory store implementation used by tests and loanctl.
type Memory struct {
	mu         sync.Mutex
	users      map[int64]models.User
	loans      map[int64]models.Loan
	shares     map[int64]map[int64]models.LoanShare // loanID -> userID -> share
	nextUserID int64
	nextLoanID int64
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]models.User),
		loans:      make(map[int64]models.Loan),
		shares:     make(map[int64]map[int64]models.LoanShare),
		nextUserID: 1,
		nextLoanID: 1,
	}
}

// CreateUser stores a new user, enforcing email and API key uniqueness.
func (m *Memory) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email || u.APIKey == user.APIKey {
			return ErrDuplicate
		}
	}

	user.ID = m.nextUserID
	user.CreatedAt = time.Now().UTC()
	m.nextUserID++
	m.users[user.ID] = *user
	return nil
}

// FindUserByEmail retrieves a user by email.
func (m *Memory) FindUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNoRows
}

// FindUserByAPIKey retrieves a user by its opaque API key.
func (m *Memory) FindUserByAPIKey(apiKey string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.APIKey == apiKey {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNoRows
}

// ListUsers retrieves all users ordered by ID.
func (m *Memory) ListUsers() ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for id := int64(1); id < m.nextUserID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// CreateLoan stores a new loan.
func (m *Memory) CreateLoan(loan *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan.ID = m.nextLoanID
	loan.CreatedAt = time.Now().UTC()
	m.nextLoanID++
	m.loans[loan.ID] = *loan
	return nil
}

// FindLoanByID retrieves a loan by its ID.
func (m *Memory) FindLoanByID(id int64) (*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loans[id]
	if !ok {
		return nil, ErrNoRows
	}
	loan := l
	return &loan, nil
}

// ListLoansForUser retrieves loans owned by or shared with the user.
func (m *Memory) ListLoansForUser(userID int64) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var loans []models.Loan
	for id := int64(1); id < m.nextLoanID; id++ {
		l, ok := m.loans[id]
		if !ok {
			continue
		}
		if l.OwnerID == userID {
			loans = append(loans, l)
			continue
		}
		if _, shared := m.shares[id][userID]; shared {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

// CreateLoanShare grants a user read access to a loan. Re-sharing is a no-op.
func (m *Memory) CreateLoanShare(loanID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shares[loanID] == nil {
		m.shares[loanID] = make(map[int64]models.LoanShare)
	}
	if _, ok := m.shares[loanID][userID]; !ok {
		m.shares[loanID][userID] = models.LoanShare{
			LoanID:    loanID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		}
	}
	return nil
}

// HasLoanShare reports whether the loan is shared with the user.
func (m *Memory) HasLoanShare(loanID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.shares[loanID][userID]
	return ok, nil
}
