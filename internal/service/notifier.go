package service

import (
	"context"
	"fmt"
	"strings"

	"assetrent-backend/internal/logger"

	"gopkg.in/gomail.v2"
)

// FormatReminderDigest renders the plain text body of a billing digest.
func FormatReminderDigest(reminders []BillingReminder) string {
	var b strings.Builder
	b.WriteString("Hello,\n\nThe following rentals are due for billing:\n\n")
	for _, r := range reminders {
		contract := r.Rental.ContractNumber
		if contract == "" {
			contract = "-"
		}
		fmt.Fprintf(&b, "- %s: %s, contract %s, started %s, amount %s\n",
			r.Customer.Name,
			r.Asset.AssetID,
			contract,
			r.Rental.RentalStartDate,
			r.Rental.PaymentAmount.StringFixed(2))
	}
	b.WriteString("\nBest regards,\nAsset Rental")
	return b.String()
}

type mailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
	log    *logger.Logger
}

func NewMailNotifier(host string, port int, username, password, from, to string, log *logger.Logger) Notifier {
	return &mailNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
		log:    log.WithService("mail"),
	}
}

func (n *mailNotifier) SendBillingReminders(ctx context.Context, reminders []BillingReminder) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("Billing reminder: %d ongoing rentals", len(reminders)))
	m.SetBody("text/plain", FormatReminderDigest(reminders))

	n.log.ExternalServiceCall("smtp", "DialAndSend", "to", n.to, "rentals", len(reminders))
	err := n.dialer.DialAndSend(m)
	n.log.ExternalServiceResult("smtp", "DialAndSend", err)
	if err != nil {
		return fmt.Errorf("failed to send billing reminder via gomail: %w", err)
	}
	return nil
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier writes digests to the log instead of mailing them.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.WithService("notifier")}
}

func (n *logNotifier) SendBillingReminders(ctx context.Context, reminders []BillingReminder) error {
	n.log.Info().Int("rentals", len(reminders)).Str("digest", FormatReminderDigest(reminders)).Msg("Billing reminder digest")
	return nil
}
