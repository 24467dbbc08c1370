package advisor

import (
	"github.com/smallbiznis/telcostore/internal/referencedata"
	"go.uber.org/fx"
)

var Module = fx.Module("advisor",
	fx.Provide(NewFromCatalog),
)

// NewFromCatalog recommends from the store's fixed plan and product catalog.
func NewFromCatalog() *Advisor {
	return New(referencedata.Plans(), referencedata.Products())
}
