package ingest

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = "testdata/admissions_sample.csv"

func TestReaderSkipsMalformedRows(t *testing.T) {
	r, err := NewReader(sampleCSV)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer r.Close()

	rows, err := ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}

	stats := r.Stats()
	if stats.RowsRead != 12 {
		t.Errorf("expected 12 data rows read, got %d", stats.RowsRead)
	}
	// bad date, bad amount and negative stay rows are dropped
	if len(rows) != 9 {
		t.Errorf("expected 9 surviving rows, got %d", len(rows))
	}
	if stats.BadDate != 1 {
		t.Errorf("expected 1 bad date, got %d", stats.BadDate)
	}
	if stats.BadAmount != 1 {
		t.Errorf("expected 1 bad amount, got %d", stats.BadAmount)
	}
	if stats.NegativeStay != 1 {
		t.Errorf("expected 1 negative stay, got %d", stats.NegativeStay)
	}
	if stats.Dropped() != 3 {
		t.Errorf("expected 3 dropped rows, got %d", stats.Dropped())
	}
	if int64(len(rows))+stats.Dropped() != stats.RowsRead {
		t.Errorf("surviving (%d) + dropped (%d) != read (%d)",
			len(rows), stats.Dropped(), stats.RowsRead)
	}
}

func TestReaderNullsUnparseableOptionalFields(t *testing.T) {
	r, err := NewReader(sampleCSV)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer r.Close()

	rows, err := ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}

	var ageless *Admission
	for i := range rows {
		if rows[i].Name == "Ageless Wonder" {
			ageless = &rows[i]
		}
	}
	if ageless == nil {
		t.Fatal("row with unparseable age was dropped, expected it kept with nil age")
	}
	if ageless.Age != nil {
		t.Errorf("expected nil age, got %d", *ageless.Age)
	}
	if ageless.RoomNumber != nil {
		t.Errorf("expected nil room number, got %d", *ageless.RoomNumber)
	}
	if r.Stats().BadAge != 1 {
		t.Errorf("expected BadAge=1, got %d", r.Stats().BadAge)
	}
}

func TestReaderParsesFieldsAndRoundsAmounts(t *testing.T) {
	r, err := NewReader(sampleCSV)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer r.Close()

	first, err := r.Next()
	if err != nil {
		t.Fatalf("failed to read first row: %v", err)
	}

	if first.Name != "Bobby Jackson" {
		t.Errorf("expected name 'Bobby Jackson', got %q", first.Name)
	}
	if first.Age == nil || *first.Age != 30 {
		t.Errorf("expected age 30, got %v", first.Age)
	}
	if first.BloodType != "B-" {
		t.Errorf("expected blood type B-, got %q", first.BloodType)
	}
	if first.Billing != 18856.28 {
		t.Errorf("expected billing 18856.28, got %v", first.Billing)
	}
	if first.RoomNumber == nil || *first.RoomNumber != 328 {
		t.Errorf("expected room 328, got %v", first.RoomNumber)
	}
	if got := first.DischargeDate.Sub(first.AdmissionDate).Hours() / 24; got != 2 {
		t.Errorf("expected 2-day stay, got %v", got)
	}
}

func TestReaderKeepsRowsWithMissingDoctor(t *testing.T) {
	// Referential exclusion is the normalizer's call, not the reader's.
	r, err := NewReader(sampleCSV)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer r.Close()

	rows, err := ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}

	found := false
	for i := range rows {
		if rows[i].Name == "No Doctor Row" {
			found = true
			if rows[i].Doctor != "" {
				t.Errorf("expected empty doctor, got %q", rows[i].Doctor)
			}
		}
	}
	if !found {
		t.Error("reader dropped a row with a missing doctor; that policy belongs to the normalizer")
	}
}

func TestReaderRejectsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	content := "Name,Age,Gender\nJane,30,Female\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp csv: %v", err)
	}

	if _, err := NewReader(path); err == nil {
		t.Fatal("expected error for header missing required columns")
	}
}

func TestReaderHandlesBOMAndHeaderCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.csv")
	content := "\xEF\xBB\xBFname,age,gender,blood_type,medical_condition,date_of_admission,doctor,hospital,insurance_provider,billing_amount,room_number,admission_type,discharge_date,medication,test_results\n" +
		"Jane Doe,30,Female,O+,Diabetes,2023-01-10,Gregory House,County General,Aetna,1200.50,101,Emergency,2023-01-12,Metformin,Normal\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp csv: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}
	defer r.Close()

	adm, err := r.Next()
	if err != nil {
		t.Fatalf("failed to read row: %v", err)
	}
	if adm.Name != "Jane Doe" {
		t.Errorf("expected 'Jane Doe', got %q", adm.Name)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last row, got %v", err)
	}
}
