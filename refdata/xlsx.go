package refdata

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meenmo/bondmodel/utils"
)

// LoadXLSX reads the BondData and ZeroCurve sheets of the workbook at path.
func LoadXLSX(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadXLSX: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

// ReadXLSX reads a workbook from r.
func ReadXLSX(r io.Reader) (*Store, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ReadXLSX: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Store, error) {
	bondRows, err := sheetRows(f, BondSheet, BondColumns)
	if err != nil {
		return nil, err
	}
	bonds := make([]Bond, 0, len(bondRows))
	for _, r := range bondRows {
		b, err := parseBondRow(r)
		if err != nil {
			return nil, err
		}
		bonds = append(bonds, b)
	}

	curveRows, err := sheetRows(f, CurveSheet, CurveColumns)
	if err != nil {
		return nil, err
	}
	points := make([]ZeroPoint, 0, len(curveRows))
	for _, r := range curveRows {
		rate, err := r.number(ColRate)
		if err != nil {
			return nil, err
		}
		points = append(points, ZeroPoint{Duration: r.text(ColDuration), Rate: rate})
	}
	return NewStore(bonds, points)
}

// row is a data row keyed by header name.
type row struct {
	sheet string
	line  int
	cells map[string]string
}

func (r row) text(col string) string {
	return strings.TrimSpace(r.cells[col])
}

func (r row) fail(col string, err error) error {
	return &LoadError{Source: r.sheet, Row: r.line, Column: col, Err: err}
}

func (r row) number(col string) (float64, error) {
	s := r.text(col)
	if s == "" {
		return 0, r.fail(col, fmt.Errorf("missing value"))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.fail(col, fmt.Errorf("invalid number %q", s))
	}
	return v, nil
}

func (r row) integer(col string) (int, error) {
	v, err := r.number(col)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, r.fail(col, fmt.Errorf("expected an integer, got %v", v))
	}
	return int(v), nil
}

func (r row) day(col string) (time.Time, error) {
	s := r.text(col)
	if s == "" {
		return time.Time{}, r.fail(col, fmt.Errorf("missing date"))
	}
	d, err := parseDateCell(s)
	if err != nil {
		return time.Time{}, r.fail(col, err)
	}
	return d, nil
}

// parseDateCell accepts YYYY-MM-DD (optionally with a midnight time part) or an Excel
// serial day number.
func parseDateCell(s string) (time.Time, error) {
	iso := strings.TrimSuffix(strings.TrimSuffix(s, " 00:00:00"), "T00:00:00Z")
	if d, err := utils.ParseDate(iso); err == nil {
		return d, nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
	}
	return utils.Truncate(d), nil
}

// sheetRows returns the non-blank data rows of sheet. The first row is the header and
// must contain every name in required.
func sheetRows(f *excelize.File, sheet string, required []string) ([]row, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Source: sheet, Err: err}
	}
	if len(raw) == 0 {
		return nil, &LoadError{Source: sheet, Err: fmt.Errorf("sheet is empty")}
	}

	index := make(map[string]int, len(raw[0]))
	for i, h := range raw[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &LoadError{Source: sheet, Column: col, Err: fmt.Errorf("missing column")}
		}
	}

	rows := make([]row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		if blank(cells) {
			continue
		}
		r := row{sheet: sheet, line: i + 1, cells: make(map[string]string, len(index))}
		for name, j := range index {
			if j < len(cells) {
				r.cells[name] = cells[j]
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseBondRow(r row) (Bond, error) {
	var b Bond
	var err error
	if b.ID, err = r.integer(ColBondID); err != nil {
		return Bond{}, err
	}
	if b.SettlementDays, err = r.integer(ColSettlementDays); err != nil {
		return Bond{}, err
	}
	if b.FaceValue, err = r.number(ColFaceValue); err != nil {
		return Bond{}, err
	}
	if b.IssueDate, err = r.day(ColIssueDate); err != nil {
		return Bond{}, err
	}
	if b.BondTerm, err = r.integer(ColBondTerm); err != nil {
		return Bond{}, err
	}
	if b.MaturityDate, err = r.day(ColMaturityDate); err != nil {
		return Bond{}, err
	}
	b.Tenor = r.text(ColTenor)
	if b.CouponRate, err = r.number(ColCouponRate); err != nil {
		return Bond{}, err
	}
	if b.ZSpread, err = r.number(ColZSpread); err != nil {
		return Bond{}, err
	}
	return b, nil
}

// WriteXLSX writes the store as a reference workbook readable by ReadXLSX.
func WriteXLSX(w io.Writer, s *Store) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BondSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if _, err := f.NewSheet(CurveSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	if err := setRow(f, BondSheet, 1, stringsToCells(BondColumns)); err != nil {
		return err
	}
	for i, b := range s.Bonds() {
		cells := []interface{}{
			b.ID,
			b.SettlementDays,
			b.FaceValue,
			b.IssueDate.Format(utils.DateLayout),
			b.BondTerm,
			b.MaturityDate.Format(utils.DateLayout),
			b.Tenor,
			b.CouponRate,
			b.ZSpread,
		}
		if err := setRow(f, BondSheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := setRow(f, CurveSheet, 1, stringsToCells(CurveColumns)); err != nil {
		return err
	}
	for i, p := range s.ZeroCurve() {
		if err := setRow(f, CurveSheet, i+2, []interface{}{p.Duration, p.Rate}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, number int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, number)
	if err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("WriteXLSX: %s row %d: %w", sheet, number, err)
	}
	return nil
}

func stringsToCells(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
