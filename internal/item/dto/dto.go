package dto

import "github.com/shopspring/decimal"

// DefaultLowStockThreshold applies when low-stock filtering is requested
// without an explicit threshold.
const DefaultLowStockThreshold = 5

// ItemFilters narrows an owner's item set; unset fields impose no constraint
// and the present ones combine conjunctively.
type ItemFilters struct {
	OwnerID     int64
	CategoryID  int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	LowStock    bool
	Threshold   int
	SearchQuery string // name / category name search
	Page        int
	PageSize    int
}

// EffectiveThreshold resolves the low-stock cutoff, falling back to the
// default when none was supplied.
func (f *ItemFilters) EffectiveThreshold() int {
	if f.Threshold > 0 {
		return f.Threshold
	}
	return DefaultLowStockThreshold
}
