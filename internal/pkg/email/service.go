// internal/pkg/email/service.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/smtp"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service sends transactional storefront emails through the configured
// provider. It implements order.Notifier.
type Service struct {
	config *config.Config
	client *http.Client
	tmpl   *template.Template
}

// Email is a rendered message ready for a provider
type Email struct {
	To          []string
	Subject     string
	HTMLContent string
}

// NewService creates a new email service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		tmpl:   template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
	}
}

const orderConfirmationTemplate = `
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order!</h2>
  <p>Hi {{.FirstName}},</p>
  <p>We received your order <strong>{{.OrderNumber}}</strong>.</p>
  <table cellpadding="6" cellspacing="0" border="0">
    {{range .Items}}
    <tr>
      <td>{{.Name}} x {{.Quantity}}</td>
      <td align="right">{{.Total}}</td>
    </tr>
    {{end}}
    <tr><td>Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
    {{if .Discount}}<tr><td>Discount</td><td align="right">-{{.Discount}}</td></tr>{{end}}
    <tr><td>Tax</td><td align="right">{{.Tax}}</td></tr>
    <tr><td>Shipping</td><td align="right">{{.Shipping}}</td></tr>
    <tr><td><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
  </table>
  <p>Order status: {{.Status}}</p>
  <p>{{.FromName}}</p>
</body>
</html>`

type confirmationItem struct {
	Name     string
	Quantity int
	Total    string
}

type confirmationData struct {
	FirstName   string
	OrderNumber string
	Items       []confirmationItem
	Subtotal    string
	Discount    string
	Tax         string
	Shipping    string
	Total       string
	Status      string
	FromName    string
}

// SendOrderConfirmation sends the order confirmation email
func (s *Service) SendOrderConfirmation(o *order.Order) error {
	if o.Email == "" {
		return fmt.Errorf("order %s has no email address", o.OrderNumber)
	}

	data := confirmationData{
		FirstName:   o.ShippingAddress.FirstName,
		OrderNumber: o.OrderNumber,
		Subtotal:    formatAmount(o.SubtotalAmount, o.Currency),
		Tax:         formatAmount(o.TaxAmount, o.Currency),
		Shipping:    formatAmount(o.ShippingAmount, o.Currency),
		Total:       formatAmount(o.TotalAmount, o.Currency),
		Status:      string(o.Status),
		FromName:    s.config.Email.FromName,
	}
	if o.DiscountAmount > 0 {
		data.Discount = formatAmount(o.DiscountAmount, o.Currency)
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, confirmationItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Total:    formatAmount(item.TotalPrice, o.Currency),
		})
	}

	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	return s.send(&Email{
		To:          []string{o.Email},
		Subject:     fmt.Sprintf("Order Confirmation - %s", o.OrderNumber),
		HTMLContent: body.String(),
	})
}

func (s *Service) send(email *Email) error {
	switch s.config.Email.Provider {
	case "smtp":
		return s.sendSMTP(email)
	case "resend":
		return s.sendResend(email)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Email.Provider)
	}
}

// sendSMTP sends email over plain SMTP with auth when configured
func (s *Service) sendSMTP(email *Email) error {
	cfg := s.config.Email
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To[0])
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, cfg.FromEmail, email.To, msg.Bytes())
}

// sendResend sends email through the Resend HTTP API
func (s *Service) sendResend(email *Email) error {
	payload := map[string]interface{}{
		"from":    fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail),
		"to":      email.To,
		"subject": email.Subject,
		"html":    email.HTMLContent,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.config.Email.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend API returned status %d", resp.StatusCode)
	}
	return nil
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, currency)
}
