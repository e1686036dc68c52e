package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meenmo/bondmodel/model"
	"github.com/meenmo/bondmodel/refdata"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "bondmodel dev") {
		t.Fatalf("stdout %q", stdout.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"price"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("stderr %q", stderr.String())
	}
}

func TestRun_MissingConfig(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if code := run([]string{"run", "--config", path}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestGenerateThenRun(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "bond_data.xlsx")
	cfgPath := filepath.Join(dir, "bondmodel.yaml")
	xlsxOut := filepath.Join(dir, "projection.xlsx")
	pdfOut := filepath.Join(dir, "summary.pdf")
	promOut := filepath.Join(dir, "bondmodel.prom")

	var stdout, stderr bytes.Buffer
	args := []string{"generate", "--out", workbook, "--bonds", "20", "--seed", "5", "--write-config", cfgPath}
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("generate exit %d: %s", code, stderr.String())
	}
	store, err := refdata.LoadXLSX(workbook)
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if store.Len() != 20 {
		t.Fatalf("workbook holds %d bonds, want 20", store.Len())
	}

	t.Setenv("BONDMODEL_OUTPUT_XLSX", xlsxOut)
	t.Setenv("BONDMODEL_OUTPUT_PDF", pdfOut)
	t.Setenv("BONDMODEL_OUTPUT_METRICS", promOut)
	t.Setenv("BONDMODEL_CACHE_REDIS_URL", "")

	stdout.Reset()
	stderr.Reset()
	if code := run([]string{"run", "--config", cfgPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("run exit %d: %s", code, stderr.String())
	}

	var res model.Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decoding result: %v\n%s", err, stdout.String())
	}
	if len(res.Cashflows) != 31 || len(res.Redemptions) != 31 {
		t.Fatalf("got %d cashflow and %d redemption periods, want 31", len(res.Cashflows), len(res.Redemptions))
	}
	if len(res.MarketValues) != 20 {
		t.Fatalf("got %d market values, want 20", len(res.MarketValues))
	}
	total := 0.0
	for _, v := range res.MarketValues {
		if v.MarketValue <= 0 {
			t.Fatalf("bond %d market value %v", v.BondID, v.MarketValue)
		}
		total += v.MarketValue
	}
	if res.TotalMarketValue != total {
		t.Fatalf("total %v, sum %v", res.TotalMarketValue, total)
	}

	for _, p := range []string{xlsxOut, pdfOut, promOut} {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Fatalf("output %s missing: %v", p, err)
		}
	}
	prom, err := os.ReadFile(promOut)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(prom), `bondmodel_bonds_priced_total{result="ok"} 20`) {
		t.Fatalf("metrics textfile:\n%s", prom)
	}
}
