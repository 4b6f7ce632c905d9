// Package document renders fulfillment paperwork for orders.
package document

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
	"github.com/dukerupert/embla/internal/service"
)

// Generator produces printable order documents.
type Generator interface {
	// Picklist renders a packing list for one order.
	Picklist(detail *domain.OrderDetail) (*Document, error)
}

// Document is a rendered file ready to download or attach to mail.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// TextGenerator renders plain-text documents with aligned columns. Plain
// text prints fine on the label printer and survives every mail client.
type TextGenerator struct{}

// NewTextGenerator creates a TextGenerator.
func NewTextGenerator() *TextGenerator {
	return &TextGenerator{}
}

func (g *TextGenerator) Picklist(detail *domain.OrderDetail) (*Document, error) {
	if detail == nil || len(detail.Items) == 0 {
		return nil, domain.ErrOrderHasNoItems
	}
	order := detail.Order

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PICKLIST %s\n", order.Reference())
	fmt.Fprintf(&buf, "Ordered: %s\n", order.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&buf, "Ship to: %s, %s %s, %s %s\n\n",
		order.FullName, order.Street, order.HouseNumber, order.PostalCode, order.City)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QTY\tPRODUCT\tGRIND\tWEIGHT\tUNIT\tLINE")
	for _, item := range detail.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%dg\t%s\t%s\n",
			item.Quantity,
			item.ProductNameSnapshot,
			service.GrindLabel(item.Grind),
			item.WeightGrams,
			money.FormatEUR(item.UnitPrice),
			money.FormatEUR(item.LineTotal()),
		)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&buf, "\nItems: %d\n", detail.ItemCount())
	fmt.Fprintf(&buf, "Subtotal: %s\n", money.FormatEUR(order.Subtotal))
	fmt.Fprintf(&buf, "Shipping: %s\n", money.FormatEUR(order.Shipping))
	fmt.Fprintf(&buf, "Total:    %s\n", money.FormatEUR(order.Total))
	if order.Notes != "" {
		fmt.Fprintf(&buf, "\nNotes: %s\n", order.Notes)
	}

	return &Document{
		Filename:    fmt.Sprintf("picklist-%s.txt", order.Reference()),
		ContentType: "text/plain; charset=utf-8",
		Content:     buf.Bytes(),
	}, nil
}
