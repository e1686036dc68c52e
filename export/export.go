// Package export renders a portfolio run as a workbook or a one-page PDF summary.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/meenmo/bondmodel/model"
	"github.com/meenmo/bondmodel/utils"
)

const (
	CashflowSheet    = "Cashflows"
	MarketValueSheet = "MarketValues"
)

var (
	cashflowHeader    = []interface{}{"period", "date", "cashflows", "redemptions"}
	marketValueHeader = []interface{}{"bond_id", "market_value", "z_spread", "z_spread_recalc", "yield"}
)

// Cents rounds an amount half away from zero to two decimals.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func amount(v float64) float64 {
	return Cents(v).InexactFloat64()
}

// WriteXLSX writes the projected totals and per-bond values of res to w.
func WriteXLSX(w io.Writer, res *model.Result) error {
	if res == nil {
		return fmt.Errorf("WriteXLSX: nil result")
	}
	if len(res.Cashflows) != len(res.Redemptions) {
		return fmt.Errorf("WriteXLSX: %d cashflow periods but %d redemption periods", len(res.Cashflows), len(res.Redemptions))
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CashflowSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if _, err := f.NewSheet(MarketValueSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	if err := writeRow(f, CashflowSheet, 1, cashflowHeader); err != nil {
		return err
	}
	for t := range res.Cashflows {
		date := ""
		if t < len(res.Dates) {
			date = res.Dates[t].Format(utils.DateLayout)
		}
		cells := []interface{}{t, date, amount(res.Cashflows[t]), amount(res.Redemptions[t])}
		if err := writeRow(f, CashflowSheet, t+2, cells); err != nil {
			return err
		}
	}

	if err := writeRow(f, MarketValueSheet, 1, marketValueHeader); err != nil {
		return err
	}
	for i, v := range res.MarketValues {
		cells := []interface{}{v.BondID, amount(v.MarketValue), v.ZSpread, optional(v.ZSpreadRecalc), optional(v.Yield)}
		if err := writeRow(f, MarketValueSheet, i+2, cells); err != nil {
			return err
		}
	}
	total := []interface{}{"total", amount(res.TotalMarketValue)}
	if err := writeRow(f, MarketValueSheet, len(res.MarketValues)+2, total); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	return nil
}

// optional leaves the cell blank for nil.
func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func writeRow(f *excelize.File, sheet string, line int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("WriteXLSX: %s row %d: %w", sheet, line, err)
	}
	return nil
}

// WritePDF renders a one-page summary of res: run header, totals, and the projected
// cashflow table.
func WritePDF(w io.Writer, res *model.Result) error {
	if res == nil {
		return fmt.Errorf("WritePDF: nil result")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Bond Portfolio Projection")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Run: %s", res.RunID))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Fingerprint: %s", res.Fingerprint))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Valuation date: %s", res.ValuationDate.Format(utils.DateLayout)))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Horizon end: %s", res.HorizonEndDate.Format(utils.DateLayout)))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Bonds: %d", len(res.MarketValues)))
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("Total market value: %s", Cents(res.TotalMarketValue).StringFixed(2)))
	pdf.Ln(4)
	if d := res.Dropped; d.Before+d.After > 0 {
		pdf.Cell(0, 5, fmt.Sprintf("Outside horizon: %d before (%s), %d after (%s)",
			d.Before, Cents(d.BeforeAmount).StringFixed(2), d.After, Cents(d.AfterAmount).StringFixed(2)))
		pdf.Ln(4)
	}
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(7)

	// One row per annual period.
	const rowHeight = 4.5
	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(16, rowHeight, "Period", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, rowHeight, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, rowHeight, "Cashflows", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, rowHeight, "Redemptions", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for t := range res.Cashflows {
		date := ""
		if t < len(res.Dates) {
			date = res.Dates[t].Format(utils.DateLayout)
		}
		redemption := 0.0
		if t < len(res.Redemptions) {
			redemption = res.Redemptions[t]
		}
		pdf.CellFormat(16, rowHeight, fmt.Sprintf("%d", t), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, rowHeight, date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, rowHeight, Cents(res.Cashflows[t]).StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, rowHeight, Cents(redemption).StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("WritePDF: %w", err)
	}
	return nil
}
