package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

const minorUnitExp = 2

var maxMinor = decimal.NewFromInt(domain.MaxPriceMinor)

// ParsePriceMinor переводит десятичную цену каталога ("12.5", "99") в минимальные единицы.
// Отрицательные цены, цены выше domain.MaxPriceMinor и цены точнее сотых отклоняются.
func ParsePriceMinor(raw string) (int64, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, raw)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative price %s", domain.ErrInvalidPrice, d)
	}

	minor := d.Shift(minorUnitExp)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d fractional digits", domain.ErrInvalidPrice, d, minorUnitExp)
	}
	if minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s is out of range", domain.ErrInvalidPrice, d)
	}
	return minor.IntPart(), nil
}

// FormatMinor форматирует сумму в минимальных единицах с двумя знаками после точки.
func FormatMinor(minor int64) string {
	return decimal.New(minor, -minorUnitExp).StringFixed(minorUnitExp)
}
