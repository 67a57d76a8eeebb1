package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/greystone/loan-service/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ErrNoRows is returned when a lookup matches nothing.
var ErrNoRows = sql.ErrNoRows

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate row")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (email, name, api_key, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Email, user.Name, user.APIKey).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, name, api_key, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.APIKey, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindUserByAPIKey retrieves a user by its opaque API key
func (r *Repository) FindUserByAPIKey(apiKey string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, name, api_key, created_at
		FROM users
		WHERE api_key = $1`
	err := r.db.QueryRow(query, apiKey).
		Scan(&user.ID, &user.Email, &user.Name, &user.APIKey, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by api key: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users
func (r *Repository) ListUsers() ([]models.User, error) {
	query := `
		SELECT id, email, name, api_key, created_at
		FROM users
		ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.APIKey, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateLoan creates a new loan in the database
func (r *Repository) CreateLoan(loan *models.Loan) error {
	query := `
		INSERT INTO loans (owner_id, amount, annual_interest_rate, term_months, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query,
		loan.OwnerID,
		loan.Amount.StringFixed(2),
		loan.AnnualInterestRate.String(),
		loan.TermMonths,
	).Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan by its ID
func (r *Repository) FindLoanByID(id int64) (*models.Loan, error) {
	query := `
		SELECT id, owner_id, amount, annual_interest_rate, term_months, created_at
		FROM loans
		WHERE id = $1`
	loan, err := scanLoan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// ListLoansForUser retrieves loans owned by or shared with the user
func (r *Repository) ListLoansForUser(userID int64) ([]models.Loan, error) {
	query := `
		SELECT DISTINCT l.id, l.owner_id, l.amount, l.annual_interest_rate, l.term_months, l.created_at
		FROM loans l
		LEFT JOIN loan_shares s ON s.loan_id = l.id
		WHERE l.owner_id = $1 OR s.user_id = $1
		ORDER BY l.id`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

// CreateLoanShare grants a user read access to a loan. Re-sharing is a no-op.
func (r *Repository) CreateLoanShare(loanID, userID int64) error {
	query := `
		INSERT INTO loan_shares (loan_id, user_id, created_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (loan_id, user_id) DO NOTHING`
	if _, err := r.db.Exec(query, loanID, userID); err != nil {
		return fmt.Errorf("failed to share loan: %w", err)
	}
	return nil
}

// HasLoanShare reports whether the loan is shared with the user
func (r *Repository) HasLoanShare(loanID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM loan_shares WHERE loan_id = $1 AND user_id = $2
		)`
	var shared bool
	if err := r.db.QueryRow(query, loanID, userID).Scan(&shared); err != nil {
		return false, fmt.Errorf("failed to check loan share: %w", err)
	}
	return shared, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanLoan reads a loan row, converting the NUMERIC columns into decimals.
func scanLoan(row rowScanner) (*models.Loan, error) {
	loan := &models.Loan{}
	var amount, rate string
	if err := row.Scan(&loan.ID, &loan.OwnerID, &amount, &rate, &loan.TermMonths, &loan.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if loan.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if loan.AnnualInterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return loan, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
