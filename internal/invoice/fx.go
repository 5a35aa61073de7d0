package invoice

import (
	"github.com/smallbiznis/gomart/internal/invoice/number"
	"github.com/smallbiznis/gomart/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(number.NewGenerator),
	fx.Provide(service.NewService),
)
