package notification

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP settings for the email notifier
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	To       string
}

// EmailNotifier delivers trade notifications over SMTP. Port 465 uses
// implicit TLS, everything else goes through smtp.SendMail (STARTTLS when
// the server offers it).
type EmailNotifier struct {
	config EmailConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	if config.FromName == "" {
		config.FromName = "OMNI-CORE Dashboard"
	}
	return &EmailNotifier{config: config}
}

// Name returns the provider name
func (e *EmailNotifier) Name() string {
	return "email"
}

// IsEnabled reports whether the notifier is configured and active
func (e *EmailNotifier) IsEnabled() bool {
	c := e.config
	return c.Enabled && c.Host != "" && c.Port != "" && c.From != "" && c.To != ""
}

// Send delivers one notification as an HTML email
func (e *EmailNotifier) Send(notification *Notification) error {
	subject := notification.Title
	body := e.renderBody(notification)

	from := e.config.From
	if e.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.config.FromName, e.config.From)
	}

	message := []byte(
		"From: " + from + "\r\n" +
			"To: " + e.config.To + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body + "\r\n",
	)

	var auth smtp.Auth
	if e.config.Username != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	}

	addr := e.config.Host + ":" + e.config.Port

	var err error
	if e.config.Port == "465" {
		err = e.sendTLS(addr, auth, e.config.From, []string{e.config.To}, message)
	} else {
		err = smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, message)
	}
	if err != nil {
		return fmt.Errorf("SMTP error: %w", err)
	}
	return nil
}

// renderBody builds a minimal HTML email for a notification
func (e *EmailNotifier) renderBody(notification *Notification) string {
	var sb strings.Builder
	sb.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	sb.WriteString(fmt.Sprintf(`<h2>%s</h2>`, notification.Title))
	sb.WriteString(fmt.Sprintf(`<p>%s</p>`, strings.ReplaceAll(notification.Message, "\n", "<br>")))

	if trade := notification.Trade; trade != nil {
		sb.WriteString(`<table style="border-collapse: collapse;">`)
		rows := [][2]string{
			{"Asset", trade.Asset},
			{"Direction", trade.Direction},
			{"Entry Time", trade.EntryTime},
			{"Duration", trade.Duration},
			{"Risk", trade.RiskLevel},
			{"Outcome", trade.Outcome},
		}
		for _, row := range rows {
			if row[1] == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf(
				`<tr><td style="padding: 4px 12px 4px 0; font-weight: bold;">%s</td><td>%s</td></tr>`,
				row[0], row[1],
			))
		}
		sb.WriteString(`</table>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

// sendTLS sends email over an implicit TLS connection (port 465)
func (e *EmailNotifier) sendTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host := strings.Split(addr, ":")[0]
	tlsConfig := &tls.Config{
		ServerName: host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
