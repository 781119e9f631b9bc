// Package notify is the order notification service. It receives new-order
// events from the storefront BFF and emails the shop owner; delivery is best
// effort and never blocks checkout.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/mitienda/storefront/internal/config"
	"github.com/mitienda/storefront/internal/money"
)

// NewOrderEvent is the payload the BFF posts after a successful checkout.
type NewOrderEvent struct {
	OrderID       int            `json:"pedidoId"`
	CustomerName  string         `json:"usuarioNombre"`
	CustomerEmail string         `json:"usuarioEmail"`
	Total         float64        `json:"total"`
	Items         []NewOrderItem `json:"items"`
	Address       string         `json:"direccion"`
}

// NewOrderItem is one purchased line as shown in the email.
type NewOrderItem struct {
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio"`
}

// Sender delivers a rendered email. Split out so handlers can be tested
// without an SMTP server.
type Sender interface {
	Send(subject, htmlBody string) error
	Verify() error
	Configured() bool
}

// smtpPresets mirrors the well-known service shortcuts accepted in
// EMAIL_SERVICE. Anything else falls back to EMAIL_HOST/EMAIL_PORT.
var smtpPresets = map[string]struct {
	host string
	port int
}{
	"gmail":   {"smtp.gmail.com", 587},
	"outlook": {"smtp-mail.outlook.com", 587},
	"yahoo":   {"smtp.mail.yahoo.com", 587},
}

// Mailer sends notification emails over SMTP.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
}

// NewMailer builds a mailer from the notifier configuration. A mailer with
// no credentials is still returned; it reports Configured() == false and
// refuses to send.
func NewMailer(cfg config.Notifier) *Mailer {
	host := cfg.EmailHost
	port := cfg.EmailPort
	if preset, ok := smtpPresets[strings.ToLower(cfg.EmailService)]; ok {
		host = preset.host
		port = preset.port
	}

	d := gomail.NewDialer(host, port, cfg.EmailUser, cfg.EmailPass)
	d.SSL = cfg.EmailSecure

	return &Mailer{
		dialer:    d,
		from:      cfg.EmailUser,
		recipient: cfg.RecipientEmail,
	}
}

// Configured reports whether credentials are present.
func (m *Mailer) Configured() bool {
	return m.from != "" && m.dialer.Password != ""
}

// Verify opens and closes an SMTP connection to validate credentials at
// startup. Gmail rejects account passwords here; an app password is needed.
func (m *Mailer) Verify() error {
	if !m.Configured() {
		return fmt.Errorf("email credentials not configured (EMAIL_USER/EMAIL_PASS)")
	}
	closer, err := m.dialer.Dial()
	if err != nil {
		if strings.Contains(m.dialer.Host, "gmail") {
			return fmt.Errorf("smtp verification failed (gmail requires an app password, not the account password): %w", err)
		}
		return fmt.Errorf("smtp verification failed: %w", err)
	}
	return closer.Close()
}

// Send delivers one HTML email to the configured recipient.
func (m *Mailer) Send(subject, htmlBody string) error {
	if !m.Configured() {
		return fmt.Errorf("email credentials not configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

var newOrderTmpl = template.Must(template.New("new-order").Parse(`
<h2>¡Nuevo pedido recibido!</h2>
<p><strong>Pedido:</strong> #{{.OrderID}}</p>
<p><strong>Cliente:</strong> {{.CustomerName}} ({{.CustomerEmail}})</p>
{{if .Address}}<p><strong>Dirección de envío:</strong> {{.Address}}</p>{{end}}
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Producto</th><th>Cantidad</th><th>Precio</th></tr>
  {{range .Items}}
  <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
  {{end}}
</table>
<p><strong>Total: {{.Total}}</strong></p>
`))

type tmplItem struct {
	Name     string
	Quantity int
	Price    string
}

type tmplData struct {
	OrderID       int
	CustomerName  string
	CustomerEmail string
	Address       string
	Items         []tmplItem
	Total         string
}

// RenderNewOrder produces the subject and HTML body for a new-order email.
func RenderNewOrder(ev NewOrderEvent) (subject, body string, err error) {
	data := tmplData{
		OrderID:       ev.OrderID,
		CustomerName:  ev.CustomerName,
		CustomerEmail: ev.CustomerEmail,
		Address:       ev.Address,
		Total:         money.FormatPEN(ev.Total),
	}
	for _, item := range ev.Items {
		data.Items = append(data.Items, tmplItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    money.FormatPEN(item.UnitPrice),
		})
	}

	var buf bytes.Buffer
	if err := newOrderTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render new-order email: %w", err)
	}
	return fmt.Sprintf("Nuevo Pedido #%d - MiTienda", ev.OrderID), buf.String(), nil
}
