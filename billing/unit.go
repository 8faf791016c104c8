package billing

// ConvertUnit returns the rate and pack for item expressed in target unit.
//
// Primary unit: the catalog base rate in canonical decimal form, so "40.50"
// becomes "40.5". Secondary unit: base rate times the
// conversion multiplier, rounded to two places. Pack is unit-independent.
// Missing or unparsable base rate/multiplier yields a zero rate.
func ConvertUnit(item CatalogItem, target string) (rate, pack string) {
	if target != item.SecondaryUnit || !item.HasTwoUnits() {
		return ParseNumber(item.BaseRate).String(), item.Pack
	}
	base := ParseNumber(item.BaseRate)
	multiplier := ParseNumber(item.Multiplier)
	return Round2(base.Mul(multiplier)).StringFixed(Places), item.Pack
}
