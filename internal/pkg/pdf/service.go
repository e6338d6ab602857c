// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service renders order invoices as PDF via wkhtmltopdf
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

const invoiceTemplate = `
<html>
<head><style>
  body { font-family: Arial, sans-serif; margin: 40px; color: #222; }
  h1 { font-size: 22px; }
  table { width: 100%; border-collapse: collapse; margin-top: 20px; }
  th, td { border-bottom: 1px solid #ddd; padding: 8px; text-align: left; }
  .totals td { border: none; }
  .right { text-align: right; }
</style></head>
<body>
  <h1>Invoice {{.OrderNumber}}</h1>
  <p>Date: {{.Date}}<br>Status: {{.Status}}</p>
  <p>
    {{.Address.FirstName}} {{.Address.LastName}}<br>
    {{.Address.AddressLine1}}<br>
    {{if .Address.AddressLine2}}{{.Address.AddressLine2}}<br>{{end}}
    {{.Address.City}}{{if .Address.State}}, {{.Address.State}}{{end}}
  </p>
  <table>
    <tr><th>Item</th><th>SKU</th><th class="right">Qty</th><th class="right">Unit</th><th class="right">Total</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Name}}</td><td>{{.SKU}}</td>
      <td class="right">{{.Quantity}}</td>
      <td class="right">{{.Unit}}</td>
      <td class="right">{{.Total}}</td>
    </tr>
    {{end}}
  </table>
  <table class="totals">
    <tr><td class="right">Subtotal</td><td class="right">{{.Subtotal}}</td></tr>
    {{if .Discount}}<tr><td class="right">Discount</td><td class="right">-{{.Discount}}</td></tr>{{end}}
    <tr><td class="right">Tax</td><td class="right">{{.Tax}}</td></tr>
    <tr><td class="right">Shipping</td><td class="right">{{.Shipping}}</td></tr>
    <tr><td class="right"><strong>Total</strong></td><td class="right"><strong>{{.Total}}</strong></td></tr>
  </table>
</body>
</html>`

type invoiceItem struct {
	Name     string
	SKU      string
	Quantity int
	Unit     string
	Total    string
}

type invoiceData struct {
	OrderNumber string
	Date        string
	Status      string
	Address     order.Address
	Items       []invoiceItem
	Subtotal    string
	Discount    string
	Tax         string
	Shipping    string
	Total       string
}

// GenerateInvoice renders the invoice PDF for a settled order
func (s *Service) GenerateInvoice(o *order.Order) ([]byte, error) {
	data := invoiceData{
		OrderNumber: o.OrderNumber,
		Date:        o.CreatedAt.Format("2006-01-02"),
		Status:      string(o.Status),
		Address:     o.BillingAddress,
		Subtotal:    formatAmount(o.SubtotalAmount, o.Currency),
		Tax:         formatAmount(o.TaxAmount, o.Currency),
		Shipping:    formatAmount(o.ShippingAmount, o.Currency),
		Total:       formatAmount(o.TotalAmount, o.Currency),
	}
	if o.DiscountAmount > 0 {
		data.Discount = formatAmount(o.DiscountAmount, o.Currency)
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, invoiceItem{
			Name:     item.Name,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Unit:     formatAmount(item.Price, o.Currency),
			Total:    formatAmount(item.TotalPrice, o.Currency),
		})
	}

	var html bytes.Buffer
	if err := s.tmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}

	generator, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to init PDF generator: %w", err)
	}
	generator.Dpi.Set(300)
	generator.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(&html)
	page.EnableLocalFileAccess.Set(false)
	generator.AddPage(page)

	if err := generator.Create(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return generator.Bytes(), nil
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, currency)
}
