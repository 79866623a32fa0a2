package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/assaysplit/internal/types"

	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestReadRows(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "export.xlsx")

	writeXLSX(t, path, [][]string{
		{"Sample Num", "Test Name", "Print", "Received Date"},
		{"S1", "Salmonella", "Y", "2024-01-02"},
		{"", "Salmonella"},
		{"S3"},
	})

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	if rows[0].SampleNum != "S1" || rows[0].TestName != "Salmonella" {
		t.Errorf("Row 0 = %+v; want SampleNum S1, TestName Salmonella", rows[0])
	}
	if rows[0].Print != "Y" || rows[0].ReceivedDate != "2024-01-02" {
		t.Errorf("Row 0 pass-through fields = %+v", rows[0])
	}

	// Short rows read missing cells as empty.
	if rows[1].SampleNum != "" || rows[1].TestName != "Salmonella" {
		t.Errorf("Row 1 = %+v; want empty SampleNum", rows[1])
	}
	if rows[2].SampleNum != "S3" || rows[2].TestName != "" {
		t.Errorf("Row 2 = %+v; want empty TestName", rows[2])
	}
}

func TestReadRowsMissingColumn(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "noheader.xlsx")

	writeXLSX(t, path, [][]string{
		{"Sample Num", "Test"},
		{"S1", "Salmonella"},
	})

	if _, err := ReadRows(path); err == nil {
		t.Error("Expected error for missing Test Name column, got nil")
	}
}

func TestReadRowsUnsupportedType(t *testing.T) {
	if _, err := ReadRows("results.txt"); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
}

func TestGrouperProcess(t *testing.T) {
	tmpDir := t.TempDir()

	file1 := filepath.Join(tmpDir, "batch1.xlsx")
	writeXLSX(t, file1, [][]string{
		{"Sample Num", "Test Name"},
		{"S100", "Sal-PCR GeneUp-375g v.3"},
		{"S101", "Salmonella"},
		{"S102", "Unknown Assay XYZ"},
		{"", "Salmonella"},
	})

	file2 := filepath.Join(tmpDir, "batch2.xlsx")
	writeXLSX(t, file2, [][]string{
		{"Sample Num", "Test Name"},
		{"S200", "Sal-PCR GeneUp-FP v.3"},
		{"S201", "EHEC Screen"},
		{"S202", "Salmonella"},
	})

	var g Grouper
	result, err := g.Process([]string{file1, file2}, nil)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d; want 2", result.FilesProcessed)
	}
	if len(result.FileErrors) != 0 {
		t.Errorf("FileErrors = %v; want none", result.FileErrors)
	}

	// Samples keep batch order within a bucket: file order, then row order.
	slm := result.Buckets["SLM"]
	wantSLM := []string{"S100", "S101", "S200", "S202"}
	if len(slm) != len(wantSLM) {
		t.Fatalf("SLM bucket has %d samples; want %d", len(slm), len(wantSLM))
	}
	for i, want := range wantSLM {
		if slm[i].SampleID != want || slm[i].Assay != "SLM" {
			t.Errorf("SLM[%d] = %+v; want {%s SLM}", i, slm[i], want)
		}
	}

	if len(result.Buckets["EH1"]) != 1 || result.Buckets["EH1"][0].SampleID != "S201" {
		t.Errorf("EH1 bucket = %+v; want [S201]", result.Buckets["EH1"])
	}

	// First-seen assay order.
	if len(result.Order) != 2 || result.Order[0] != "SLM" || result.Order[1] != "EH1" {
		t.Errorf("Order = %v; want [SLM EH1]", result.Order)
	}

	// Skips carry the reason.
	missing, noMatch := result.SkipCounts()
	if missing != 1 || noMatch != 1 {
		t.Errorf("SkipCounts = (%d, %d); want (1, 1)", missing, noMatch)
	}
	for _, s := range result.Skipped {
		if s.Reason == types.SkipNoMatch && s.SampleNum != "S102" {
			t.Errorf("no-match skip = %+v; want S102", s)
		}
	}

	if result.RowsMatched != 5 {
		t.Errorf("RowsMatched = %d; want 5", result.RowsMatched)
	}
}

func TestGrouperIsolatesFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	good := filepath.Join(tmpDir, "good.xlsx")
	writeXLSX(t, good, [][]string{
		{"Sample Num", "Test Name"},
		{"S1", "Listeria spp."},
	})

	bad := filepath.Join(tmpDir, "bad.xlsx")
	if err := os.WriteFile(bad, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	var g Grouper
	result, err := g.Process([]string{bad, good}, nil)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.FileErrors) != 1 || result.FileErrors[0].File != bad {
		t.Errorf("FileErrors = %v; want one entry for %s", result.FileErrors, bad)
	}
	if result.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d; want 1", result.FilesProcessed)
	}
	if len(result.Buckets["LIS"]) != 1 {
		t.Errorf("LIS bucket = %+v; want the sample from the good file", result.Buckets["LIS"])
	}
}

func TestGrouperSingleFlight(t *testing.T) {
	var g Grouper
	g.busy.Store(true)

	if _, err := g.Process(nil, nil); err != ErrBusy {
		t.Errorf("Process while busy = %v; want ErrBusy", err)
	}

	g.busy.Store(false)
	if _, err := g.Process(nil, nil); err != nil {
		t.Errorf("Process after release failed: %v", err)
	}
}
