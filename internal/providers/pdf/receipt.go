package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/gomart/internal/config"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
)

type ReceiptProvider struct{}

func NewReceiptProvider() Provider {
	return &ReceiptProvider{}
}

// GenerateReceipt renders a point-of-sale receipt for the invoice. The store
// identity comes from the hot-reloadable store profile so a rename or address
// change shows up without restarting the process.
func (p *ReceiptProvider) GenerateReceipt(ctx context.Context, invoice invoicedomain.Invoice, store config.StoreProfile) (io.Reader, error) {
	_ = ctx

	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, store.Name, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(14,
		col.New(12).Add(
			text.New(store.Address, props.Text{Size: 9, Align: align.Center}),
			text.New("Tel: "+store.Phone, props.Text{Size: 9, Align: align.Center, Top: 4}),
		),
	)
	if store.TaxCode != "" {
		m.AddRow(8,
			text.NewCol(12, "Tax code: "+store.TaxCode, props.Text{Size: 9, Align: align.Center}),
		)
	}

	m.AddRow(16,
		col.New(12).Add(
			text.New("Invoice: "+invoice.InvoiceNumber, props.Text{Size: 10, Style: fontstyle.Bold}),
			text.New("Issued: "+invoice.IssuedAt.Format("2006-01-02 15:04:05"), props.Text{Size: 9, Top: 5}),
		),
	)
	if invoice.PaidAt != nil {
		m.AddRow(8,
			text.NewCol(12, "Paid: "+invoice.PaidAt.Format("2006-01-02 15:04:05"), props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(5, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, detail := range invoice.Details {
		m.AddRow(10,
			text.NewCol(5, fmt.Sprintf("#%d", detail.ProductUnitID), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", detail.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(detail.UnitPrice, store.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, formatAmount(detail.LineTotalWithTax, store.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, formatAmount(invoice.SubtotalAmount, store.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	if invoice.DiscountAmount > 0 {
		m.AddRow(8,
			col.New(7),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(3, "-"+formatAmount(invoice.DiscountAmount, store.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, formatAmount(invoice.TotalAmount, store.Currency), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	if store.Footer != "" {
		m.AddRow(14,
			text.NewCol(12, store.Footer, props.Text{Size: 9, Align: align.Center, Top: 6}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func formatAmount(amount int64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%d", amount)
	}
	return fmt.Sprintf("%d %s", amount, currency)
}
