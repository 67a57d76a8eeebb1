package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/greystone/loan-service/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendWelcome sends the freshly generated API key to a new user
func (s *Sender) SendWelcome(to, name, apiKey string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Welcome to Loan Service"

	body := greeting(name, to)
	body += "Your account has been created.\n\n" +
		fmt.Sprintf("Your API key: %s\n\n", apiKey) +
		"Send it in the X-API-Key header to authenticate your requests.\n"
	body += "\nBest regards,\nLoan Service"
	e.Text = []byte(body)

	return s.send(e)
}

// SendLoanShared notifies a user that a loan has been shared with them
func (s *Sender) SendLoanShared(to, name, ownerEmail string, loanID int64, amount string, termMonths int) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "A loan has been shared with you"

	body := greeting(name, to)
	body += fmt.Sprintf(
		"%s has shared loan #%d with you (amount %s over %d months).\n"+
			"You now have read-only access to its amortization schedule and summaries.\n",
		ownerEmail, loanID, amount, termMonths,
	)
	body += "\nBest regards,\nLoan Service"
	e.Text = []byte(body)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

func greeting(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	return fmt.Sprintf("Dear %s,\n\n", name)
}
