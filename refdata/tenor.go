package refdata

import (
	"fmt"

	"github.com/meenmo/bondmodel/curve"
)

// DefaultSemiannualLabel is the tenor label that selects semiannual coupons. Every
// other label, including "6M", selects annual coupons.
const DefaultSemiannualLabel = "6Y"

// TenorWarning flags a bond whose tenor label reads like a six-month tenor but
// resolves to annual coupons.
type TenorWarning struct {
	BondID int
	Tenor  string
	Label  string
}

func (w TenorWarning) String() string {
	return fmt.Sprintf("bond %d: tenor %q resolves to annual coupons; only %q selects semiannual", w.BondID, w.Tenor, w.Label)
}

// IsSemiannual reports whether tenor selects semiannual coupons under label.
func IsSemiannual(tenor, label string) bool {
	if label == "" {
		label = DefaultSemiannualLabel
	}
	return tenor == label
}

// TenorWarnings reports every bond whose tenor parses to six months but does not match
// the semiannual label.
func TenorWarnings(bonds []Bond, label string) []TenorWarning {
	if label == "" {
		label = DefaultSemiannualLabel
	}
	var out []TenorWarning
	for _, b := range bonds {
		if IsSemiannual(b.Tenor, label) {
			continue
		}
		t, err := curve.ParseTenor(b.Tenor)
		if err != nil || t.Years() != 0.5 {
			continue
		}
		out = append(out, TenorWarning{BondID: b.ID, Tenor: b.Tenor, Label: label})
	}
	return out
}
