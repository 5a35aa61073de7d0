// Package pdf renders printable documents for the point of sale.
package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/gomart/internal/config"
	invoicedomain "github.com/smallbiznis/gomart/internal/invoice/domain"
	"go.uber.org/fx"
)

// Provider renders a customer receipt for a paid invoice.
type Provider interface {
	GenerateReceipt(ctx context.Context, invoice invoicedomain.Invoice, store config.StoreProfile) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(NewReceiptProvider),
)
