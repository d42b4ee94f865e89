// internal/normalize/pack.go
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/price-hounds/farmaprice/pkg/models"
)

// unitAliases collapses case, singular/plural and Italian/English synonyms
// onto canonical unit tokens.
var unitAliases = map[string]string{
	// countable units
	"compressa": "tablet",
	"compresse": "tablet",
	"cpr":       "tablet",
	"tablet":    "tablet",
	"tablets":   "tablet",
	"tab":       "tablet",
	"tabs":      "tablet",
	"capsula":   "capsule",
	"capsule":   "capsule",
	"cps":       "capsule",
	"caps":      "capsule",
	"bustina":   "sachet",
	"bustine":   "sachet",
	"sachet":    "sachet",
	"sachets":   "sachet",
	// volume
	"ml":         "ml",
	"millilitri": "ml",
	// mass
	"mg":          "mg",
	"milligrammi": "mg",
	"g":           "g",
	"gr":          "g",
	"grammi":      "g",
}

// countableUnits are pack counts, preferred over strength/volume figures
// when both appear: "500 mg 20 compresse" is a pack of 20 tablets, not a
// pack of 500 milligrams.
var countableUnits = map[string]bool{
	"tablet":  true,
	"capsule": true,
	"sachet":  true,
}

var quantityUnit = regexp.MustCompile(`(\d+)\s*([A-Za-z]+)`)

// ParsePack extracts a normalized (quantity, unit) pair from a free-text
// pack description. Countable pack units win over measure units; among
// candidates of the same class the first occurrence wins. Unrecognized or
// zero-quantity descriptions are rejected.
func ParsePack(text string) (models.PackSize, bool) {
	var measure *models.PackSize

	for _, m := range quantityUnit.FindAllStringSubmatch(text, -1) {
		unit, ok := unitAliases[strings.ToLower(m[2])]
		if !ok {
			continue
		}

		qty, err := strconv.Atoi(m[1])
		if err != nil || qty <= 0 {
			continue
		}

		ps := models.PackSize{Quantity: qty, Unit: unit}
		if countableUnits[unit] {
			return ps, true
		}
		if measure == nil {
			measure = &ps
		}
	}

	if measure != nil {
		return *measure, true
	}
	return models.PackSize{}, false
}
