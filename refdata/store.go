package refdata

import (
	"errors"
	"fmt"
	"sort"

	"github.com/meenmo/bondmodel/curve"
	"github.com/meenmo/bondmodel/utils"
)

// Store holds the bond table and the zero curve. It is immutable once built.
type Store struct {
	bonds map[int]Bond
	ids   []int
	curve []ZeroPoint
}

// NewStore validates the tables and builds a store. Rows are numbered from 1 in the
// order given.
func NewStore(bonds []Bond, points []ZeroPoint) (*Store, error) {
	s := &Store{
		bonds: make(map[int]Bond, len(bonds)),
		ids:   make([]int, 0, len(bonds)),
		curve: append([]ZeroPoint(nil), points...),
	}
	for i, b := range bonds {
		if err := validateBond(b); err != nil {
			err.Row = i + 1
			return nil, err
		}
		if _, dup := s.bonds[b.ID]; dup {
			return nil, &LoadError{Source: BondSheet, Row: i + 1, Column: ColBondID, Err: fmt.Errorf("duplicate bond id %d", b.ID)}
		}
		s.bonds[b.ID] = b
		s.ids = append(s.ids, b.ID)
	}
	sort.Ints(s.ids)

	if err := validateCurve(points); err != nil {
		return nil, err
	}
	return s, nil
}

func validateBond(b Bond) *LoadError {
	fail := func(col string, format string, args ...any) *LoadError {
		return &LoadError{Source: BondSheet, Column: col, Err: fmt.Errorf(format, args...)}
	}
	switch {
	case b.SettlementDays < 0:
		return fail(ColSettlementDays, "negative settlement lag %d", b.SettlementDays)
	case b.FaceValue <= 0:
		return fail(ColFaceValue, "face value must be positive, got %v", b.FaceValue)
	case b.IssueDate.IsZero():
		return fail(ColIssueDate, "missing issue date")
	case b.MaturityDate.IsZero():
		return fail(ColMaturityDate, "missing maturity date")
	case !b.MaturityDate.After(b.IssueDate):
		return fail(ColMaturityDate, "maturity %s is not after issue %s",
			b.MaturityDate.Format(utils.DateLayout), b.IssueDate.Format(utils.DateLayout))
	case b.Tenor == "":
		return fail(ColTenor, "missing tenor label")
	}
	return nil
}

func validateCurve(points []ZeroPoint) error {
	if len(points) == 0 {
		return &LoadError{Source: CurveSheet, Err: ErrEmptyCurve}
	}
	prev := 0.0
	for i, p := range points {
		tenor, err := curve.ParseTenor(p.Duration)
		if err != nil {
			return &LoadError{Source: CurveSheet, Row: i + 1, Column: ColDuration, Err: err}
		}
		if tenor.N <= 0 {
			return &LoadError{Source: CurveSheet, Row: i + 1, Column: ColDuration, Err: fmt.Errorf("tenor %s must be positive", p.Duration)}
		}
		years := tenor.Years()
		if years <= prev {
			return &LoadError{Source: CurveSheet, Row: i + 1, Column: ColDuration, Err: fmt.Errorf("tenor %s does not increase", p.Duration)}
		}
		prev = years
	}
	return nil
}

// Bond returns the bond with the given id.
func (s *Store) Bond(id int) (Bond, error) {
	b, ok := s.bonds[id]
	if !ok {
		return Bond{}, fmt.Errorf("%w: %d", ErrUnknownBond, id)
	}
	return b, nil
}

// IDs returns the bond ids in ascending order.
func (s *Store) IDs() []int {
	return append([]int(nil), s.ids...)
}

// Bonds returns the bonds in ascending id order.
func (s *Store) Bonds() []Bond {
	out := make([]Bond, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.bonds[id])
	}
	return out
}

// Len returns the number of bonds.
func (s *Store) Len() int {
	return len(s.ids)
}

// ZeroCurve returns a copy of the zero curve points.
func (s *Store) ZeroCurve() []ZeroPoint {
	return append([]ZeroPoint(nil), s.curve...)
}

// CurveLabels splits the curve into tenor labels and rates.
func (s *Store) CurveLabels() ([]string, []float64) {
	labels := make([]string, len(s.curve))
	rates := make([]float64, len(s.curve))
	for i, p := range s.curve {
		labels[i] = p.Duration
		rates[i] = p.Rate
	}
	return labels, rates
}

// IsLoadError reports whether err carries a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
