package model

import (
	"fmt"
)

// NoPeriod marks a BondError that is not tied to a projection period.
const NoPeriod = -1

// BondError is a per-bond computation failure.
type BondError struct {
	BondID int
	Period int
	Op     string
	Err    error
}

func (e *BondError) Error() string {
	if e.Period == NoPeriod {
		return fmt.Sprintf("bond %d: %s: %v", e.BondID, e.Op, e.Err)
	}
	return fmt.Sprintf("bond %d period %d: %s: %v", e.BondID, e.Period, e.Op, e.Err)
}

func (e *BondError) Unwrap() error {
	return e.Err
}

func bondErr(id int, op string, err error) error {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BondError); ok && be.BondID == id {
		return be
	}
	return &BondError{BondID: id, Period: NoPeriod, Op: op, Err: err}
}
