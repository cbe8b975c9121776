package mail

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP. Without SMTP credentials it
// runs in log-only mode so the calling flows behave identically in dev.
// Delivery is at-most-effort: callers log failures and move on.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	if host == "" || user == "" || pass == "" {
		slog.Info("SMTP not configured, email sending disabled")
		return &Mailer{from: from}
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.dialer == nil {
		slog.Info("email sending disabled, skipping", slog.String("To", to), slog.String("Subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) SendOrderConfirmation(to, orderNumber string) error {
	body := fmt.Sprintf(`
		<h2>Thank you for your order!</h2>
		<p>Your order <strong>%s</strong> has been received and is being processed.</p>
		<p>We will notify you when it ships.</p>
	`, orderNumber)
	return m.send(to, "Order confirmation "+orderNumber, body)
}

func (m *Mailer) SendQuoteReceived(to, name, productName string) error {
	body := fmt.Sprintf(`
		<h2>Quote request received</h2>
		<p>Hello %s,</p>
		<p>We received your quote request for <strong>%s</strong> and will get back to you shortly.</p>
	`, name, productName)
	return m.send(to, "We received your quote request", body)
}

func (m *Mailer) SendPrintStatusUpdate(to, name, status string) error {
	body := fmt.Sprintf(`
		<h2>Print order update</h2>
		<p>Hello %s,</p>
		<p>Your custom print order is now: <strong>%s</strong>.</p>
	`, name, status)
	return m.send(to, "Your print order status changed", body)
}

func (m *Mailer) SendContactAutoReply(to, name string) error {
	body := fmt.Sprintf(`
		<h2>We got your message</h2>
		<p>Hello %s,</p>
		<p>Thanks for reaching out. Our team will reply within one business day.</p>
	`, name)
	return m.send(to, "We received your message", body)
}
