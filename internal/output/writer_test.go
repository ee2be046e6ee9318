package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomin-mx/tomin/internal/domain"
)

func sampleReport() *Report {
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	stmt := &domain.ParsedStatement{
		Transactions: []domain.Transaction{
			domain.NewTransaction("user-1", -199.0, "SPOTIFY", date),
		},
		Savings: []domain.SavingsMovement{
			domain.NewSavingsMovement("user-1", 200.0, "Cajita: Vacaciones", date, domain.MovementDeposit, "Vacaciones"),
		},
	}
	return &Report{
		GeneratedAt: date,
		Files: []FileResult{
			NewFileResult("statements/nu/enero.txt", "Nu", "abc123", false, stmt),
		},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(sampleReport(), &buf); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := result["files"]; !ok {
		t.Errorf("output missing 'files' field")
	}
}

func TestWriteReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(nil, &buf); err == nil {
		t.Error("nil report should fail")
	}
}

func TestNewFileResult_EmptyStatement(t *testing.T) {
	result := NewFileResult("a.pdf", "Banamex", "ff00", true, nil)

	if result.Transactions == nil || result.Savings == nil {
		t.Error("rows must be empty slices, not nil, so JSON shows [] instead of null")
	}
	if !result.Duplicate {
		t.Error("duplicate flag lost")
	}
}

func TestWriteReportToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WriteReportToFile(sampleReport(), WriteOptions{FilePath: path}); err != nil {
		t.Fatalf("WriteReportToFile failed: %v", err)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if len(loaded.Files) != 1 {
		t.Fatalf("expected 1 file result, got %d", len(loaded.Files))
	}
	if loaded.Files[0].Bank != "Nu" {
		t.Errorf("bank = %q, want Nu", loaded.Files[0].Bank)
	}
	if len(loaded.Files[0].Transactions) != 1 {
		t.Errorf("expected 1 transaction row, got %d", len(loaded.Files[0].Transactions))
	}
}

func TestWriteReportToFile_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WriteReportToFile(sampleReport(), WriteOptions{FilePath: path}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := sampleReport()
	second.Files[0].Path = "statements/banamex/enero.pdf"
	second.Files[0].Bank = "Banamex"
	if err := WriteReportToFile(second, WriteOptions{FilePath: path, MergeMode: true}); err != nil {
		t.Fatalf("merge write failed: %v", err)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if len(loaded.Files) != 2 {
		t.Fatalf("merge should append, got %d file results", len(loaded.Files))
	}
}

func TestWriteReportToFile_MergeMissingFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WriteReportToFile(sampleReport(), WriteOptions{FilePath: path, MergeMode: true}); err != nil {
		t.Fatalf("merge onto missing file should create it: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func TestLoadReport_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadReport(path); err == nil {
		t.Error("corrupt report should fail to load")
	}
}
