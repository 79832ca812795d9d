package fx

import (
	"github.com/shopspring/decimal"
)

// Converter prices USD amounts in whole KES at a fixed rate.
// TODO: replace the fixed rate with a live rate feed once a provider is chosen.
type Converter struct {
	usdToKES decimal.Decimal
}

func NewConverter(usdToKESRate float64) *Converter {
	return &Converter{usdToKES: decimal.NewFromFloat(usdToKESRate)}
}

func (c *Converter) Rate() decimal.Decimal {
	return c.usdToKES
}

// ConvertUSDtoKES multiplies by the rate and rounds half away from zero.
func (c *Converter) ConvertUSDtoKES(usd float64) int64 {
	return decimal.NewFromFloat(usd).Mul(c.usdToKES).Round(0).IntPart()
}
