package export_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meenmo/bondmodel/export"
	"github.com/meenmo/bondmodel/model"
	"github.com/meenmo/bondmodel/utils"
)

func sampleResult() *model.Result {
	z, y := 0.0213, 0.045
	return &model.Result{
		RunID:          "run-1",
		Fingerprint:    "00000000deadbeef",
		ValuationDate:  utils.Date(2022, 1, 1),
		HorizonEndDate: utils.Date(2025, 1, 1),
		Dates:          []time.Time{utils.Date(2022, 1, 1), utils.Date(2023, 1, 1), utils.Date(2024, 1, 1), utils.Date(2025, 1, 1)},
		Cashflows:      []float64{1234.567, 10, 0},
		Redemptions:    []float64{0, 0, 250000.004},
		MarketValues: []model.BondValue{
			{BondID: 1, MarketValue: 99876.555, ZSpread: 0.0213, ZSpreadRecalc: &z, Yield: &y},
			{BondID: 2, MarketValue: 0, ZSpread: 0.01},
		},
		TotalMarketValue: 99876.555,
	}
}

func TestCents(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		1.005:     "1.01",
		-2.345:    "-2.35",
		1234.5678: "1234.57",
		0:         "0.00",
	}
	for in, want := range cases {
		if got := export.Cents(in).StringFixed(2); got != want {
			t.Fatalf("Cents(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.CashflowSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 periods, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "period,date,cashflows,redemptions" {
		t.Fatalf("header %v", rows[0])
	}
	if rows[1][1] != "2022-01-01" || rows[1][2] != "1234.57" {
		t.Fatalf("period 0 row %v", rows[1])
	}
	if rows[3][0] != "2" || rows[3][3] != "250000" {
		t.Fatalf("period 2 row %v", rows[3])
	}

	mv, err := f.GetRows(export.MarketValueSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(mv) != 4 {
		t.Fatalf("expected header, 2 bonds and a total, got %d rows", len(mv))
	}
	if mv[1][0] != "1" || mv[1][1] != "99876.56" || mv[1][3] != "0.0213" || mv[1][4] != "0.045" {
		t.Fatalf("bond 1 row %v", mv[1])
	}
	// An expired bond has no recalculated spread.
	if len(mv[2]) > 3 && mv[2][3] != "" {
		t.Fatalf("bond 2 row %v", mv[2])
	}
	if mv[3][0] != "total" || mv[3][1] != "99876.56" {
		t.Fatalf("total row %v", mv[3])
	}
}

func TestWriteXLSX_Rejects(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	res := sampleResult()
	res.Redemptions = res.Redemptions[:1]
	if err := export.WriteXLSX(&buf, res); err == nil {
		t.Fatalf("expected error for mismatched series")
	}
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, sampleResult()); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if err := export.WritePDF(&buf, nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
