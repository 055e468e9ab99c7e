// internal/email/receipt.go
package email

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
)

// SendReceipt emails a plain-text payment receipt. Best effort: verification
// must never fail because SMTP is down, so callers log the error and move on.
func SendReceipt(appCfg *config.Config, to, planName string, amount float64, currency, reference string) error {
	if to == "" {
		return fmt.Errorf("receipt recipient is empty")
	}
	if appCfg.Email.SMTPhost == "" || appCfg.Email.Sender == "" {
		slog.Warn("SMTP not configured, skipping receipt email", "to", to, "reference", reference)
		if appCfg.AppEnv != "development" {
			return fmt.Errorf("SMTP host or sender not configured")
		}
		return nil
	}

	subject := fmt.Sprintf("Payment receipt - %s", appCfg.SiteName)
	body := fmt.Sprintf(
		"Thank you for your payment.\r\n\r\n"+
			"Plan: %s\r\n"+
			"Amount: %.2f %s\r\n"+
			"Reference: %s\r\n\r\n"+
			"Your subscription is active for the next 30 days.\r\n",
		planName, amount, currency, reference,
	)

	headers := map[string]string{
		"From":         appCfg.Email.Sender,
		"To":           to,
		"Subject":      subject,
		"MIME-version": "1.0",
		"Content-Type": "text/plain; charset=\"UTF-8\"",
	}

	var msgBuilder strings.Builder
	for k, v := range headers {
		msgBuilder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msgBuilder.WriteString("\r\n")
	msgBuilder.WriteString(body)

	auth := smtp.PlainAuth("", appCfg.Email.SMTPuser, appCfg.Email.SMTPpassword, appCfg.Email.SMTPhost)
	addr := fmt.Sprintf("%s:%d", appCfg.Email.SMTPhost, appCfg.Email.SMTPport)

	if err := smtp.SendMail(addr, auth, appCfg.Email.Sender, []string{to}, []byte(msgBuilder.String())); err != nil {
		slog.Error("Failed to send receipt email", "to", to, "reference", reference, "error", err)
		return fmt.Errorf("sending receipt email: %w", err)
	}
	slog.Info("Receipt email sent", "to", to, "reference", reference)
	return nil
}
