package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/dukerupert/embla/internal/document"
	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
)

// OrderNotifier composes and sends order lifecycle mail. It implements
// service.Notifier. Callers treat every send as best-effort; the notifier
// itself returns errors and leaves the swallowing to them.
type OrderNotifier struct {
	sender             Sender
	documents          document.Generator
	fromAddress        string
	fromName           string
	internalRecipients []string
	logger             *slog.Logger
}

// NewOrderNotifier creates an OrderNotifier. internalRecipients receives
// paid-order notifications with the picklist attached; empty means the
// internal mail is skipped.
func NewOrderNotifier(sender Sender, documents document.Generator, fromAddress, fromName string, internalRecipients []string, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{
		sender:             sender,
		documents:          documents,
		fromAddress:        fromAddress,
		fromName:           fromName,
		internalRecipients: internalRecipients,
		logger:             logger,
	}
}

// SendOrderPending mails the customer that their order was received and
// payment is being processed.
func (n *OrderNotifier) SendOrderPending(ctx context.Context, detail *domain.OrderDetail) error {
	body, err := renderOrderTemplate(orderPendingTemplate, detail)
	if err != nil {
		return fmt.Errorf("failed to render order pending email: %w", err)
	}

	_, err = n.sender.Send(ctx, &Email{
		To:       []string{detail.Order.Email},
		From:     n.fromHeader(),
		Subject:  fmt.Sprintf("Your order %s - payment processing", detail.Order.Reference()),
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send order pending email: %w", err)
	}
	return nil
}

// SendOrderPaidCustomer mails the customer their payment confirmation.
func (n *OrderNotifier) SendOrderPaidCustomer(ctx context.Context, detail *domain.OrderDetail) error {
	body, err := renderOrderTemplate(orderPaidCustomerTemplate, detail)
	if err != nil {
		return fmt.Errorf("failed to render payment confirmation email: %w", err)
	}

	_, err = n.sender.Send(ctx, &Email{
		To:       []string{detail.Order.Email},
		From:     n.fromHeader(),
		Subject:  fmt.Sprintf("Payment received for order %s", detail.Order.Reference()),
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send payment confirmation email: %w", err)
	}
	return nil
}

// SendOrderPaidInternal mails the fulfillment team, with the picklist
// attached when the document generator is wired.
func (n *OrderNotifier) SendOrderPaidInternal(ctx context.Context, detail *domain.OrderDetail) error {
	if len(n.internalRecipients) == 0 {
		return nil
	}

	body, err := renderOrderTemplate(orderPaidInternalTemplate, detail)
	if err != nil {
		return fmt.Errorf("failed to render internal order email: %w", err)
	}

	msg := &Email{
		To:       n.internalRecipients,
		From:     n.fromHeader(),
		Subject:  fmt.Sprintf("New paid order %s", detail.Order.Reference()),
		TextBody: body,
	}

	if n.documents != nil {
		doc, err := n.documents.Picklist(detail)
		if err != nil {
			// Send the notification anyway; the picklist can be reprinted
			// from the fulfillment screen.
			n.logger.Error("failed to render picklist attachment",
				"order_id", detail.Order.ID,
				"error", err,
			)
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    doc.Filename,
				ContentType: doc.ContentType,
				Content:     doc.Content,
			})
		}
	}

	_, err = n.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send internal order email: %w", err)
	}
	return nil
}

func (n *OrderNotifier) fromHeader() string {
	if n.fromName != "" {
		return fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)
	}
	return n.fromAddress
}

// orderEmailData is the template payload for all order mail.
type orderEmailData struct {
	Reference string
	FullName  string
	Items     []orderEmailItem
	Subtotal  string
	Shipping  string
	Total     string
}

type orderEmailItem struct {
	Name      string
	Quantity  int
	LineTotal string
}

func renderOrderTemplate(tmpl *template.Template, detail *domain.OrderDetail) (string, error) {
	data := orderEmailData{
		Reference: detail.Order.Reference(),
		FullName:  detail.Order.FullName,
		Subtotal:  money.FormatEUR(detail.Order.Subtotal),
		Shipping:  money.FormatEUR(detail.Order.Shipping),
		Total:     money.FormatEUR(detail.Order.Total),
	}
	for _, item := range detail.Items {
		data.Items = append(data.Items, orderEmailItem{
			Name:      item.ProductNameSnapshot,
			Quantity:  item.Quantity,
			LineTotal: money.FormatEUR(item.LineTotal()),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var orderPendingTemplate = template.Must(template.New("order_pending").Parse(
	`Hello {{.FullName}},

thank you for your order {{.Reference}}. We have received it and your
payment is being processed. You will get a confirmation as soon as the
payment completes.

{{range .Items}}  {{.Quantity}} x {{.Name}} - {{.LineTotal}}
{{end}}
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total:    {{.Total}}

VV Kaffee
`))

var orderPaidCustomerTemplate = template.Must(template.New("order_paid_customer").Parse(
	`Hello {{.FullName}},

your payment for order {{.Reference}} has been received. We are roasting
and packing your coffee and will ship it shortly.

{{range .Items}}  {{.Quantity}} x {{.Name}} - {{.LineTotal}}
{{end}}
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total:    {{.Total}}

Thank you for your order!

VV Kaffee
`))

var orderPaidInternalTemplate = template.Must(template.New("order_paid_internal").Parse(
	`Order {{.Reference}} has been paid and is ready to pack.

Customer: {{.FullName}}

{{range .Items}}  {{.Quantity}} x {{.Name}} - {{.LineTotal}}
{{end}}
Total: {{.Total}}

The picklist is attached.
`))
