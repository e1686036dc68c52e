package refdata

import (
	"errors"
	"fmt"
	"time"
)

// Sheet and column names of the reference workbook. They match the bond data
// generation tooling and must not change.
const (
	BondSheet  = "BondData"
	CurveSheet = "ZeroCurve"

	ColBondID         = "bond_id"
	ColSettlementDays = "settlement_days"
	ColFaceValue      = "face_value"
	ColIssueDate      = "issue_date"
	ColBondTerm       = "bond_term"
	ColMaturityDate   = "maturity_date"
	ColTenor          = "tenor"
	ColCouponRate     = "coupon_rate"
	ColZSpread        = "z_spread"

	ColDuration = "Duration"
	ColRate     = "Rate"
)

// BondColumns lists the bond table columns in workbook order.
var BondColumns = []string{
	ColBondID, ColSettlementDays, ColFaceValue, ColIssueDate, ColBondTerm,
	ColMaturityDate, ColTenor, ColCouponRate, ColZSpread,
}

// CurveColumns lists the zero curve table columns in workbook order.
var CurveColumns = []string{ColDuration, ColRate}

var (
	ErrUnknownBond = errors.New("unknown bond id")
	ErrEmptyCurve  = errors.New("zero curve has no points")
)

// Bond is one row of the bond table.
type Bond struct {
	ID             int       `json:"bond_id"`
	SettlementDays int       `json:"settlement_days"`
	FaceValue      float64   `json:"face_value"`
	IssueDate      time.Time `json:"issue_date"`
	BondTerm       int       `json:"bond_term"`
	MaturityDate   time.Time `json:"maturity_date"`
	Tenor          string    `json:"tenor"`
	CouponRate     float64   `json:"coupon_rate"`
	ZSpread        float64   `json:"z_spread"`
}

// ZeroPoint is one row of the zero curve table: a tenor label and its zero rate.
type ZeroPoint struct {
	Duration string  `json:"Duration"`
	Rate     float64 `json:"Rate"`
}

// LoadError describes a malformed reference data row. Row is 1-based within the
// source table; 0 means the error is not tied to a row.
type LoadError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("%s row %d column %s: %v", e.Source, e.Row, e.Column, e.Err)
	case e.Row > 0:
		return fmt.Sprintf("%s row %d: %v", e.Source, e.Row, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
