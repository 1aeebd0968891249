package export

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"admittool/internal/ingest"
	"admittool/internal/star"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func agePtr(a int16) *int16 { return &a }

func TestWriteModelRoundTrip(t *testing.T) {
	raws := []ingest.Admission{
		{
			Name: "Jane Doe", Age: agePtr(34), Gender: "Female", BloodType: "O+",
			MedicalCondition: "Diabetes", AdmissionDate: day("2023-01-10"),
			Doctor: "Gregory House", Hospital: "County General", Insurer: "Aetna",
			Billing: 18856.28, AdmissionType: "Urgent",
			DischargeDate: day("2023-01-14"), Medication: "Metformin", TestResult: "Normal",
		},
		{
			Name: "John Roe", Gender: "Male", BloodType: "A-",
			MedicalCondition: "Asthma", AdmissionDate: day("2023-02-20"),
			Doctor: "Lisa Cuddy", Hospital: "Mercy West", Insurer: "Cigna",
			Billing: 433.10, AdmissionType: "Emergency",
			DischargeDate: day("2023-02-25"), Medication: "Albuterol", TestResult: "Abnormal",
		},
	}
	m, _ := star.Normalize(raws)

	path := filepath.Join(t.TempDir(), "facts.parquet")
	n, err := WriteModel(path, m)
	if err != nil {
		t.Fatalf("write model: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows written, got %d", n)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[FactRow](f)
	defer reader.Close()

	if reader.NumRows() != 2 {
		t.Fatalf("expected 2 rows in file, got %d", reader.NumRows())
	}

	buf := make([]FactRow, 2)
	var rows []FactRow
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read parquet: %v", err)
		}
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows read back, got %d", len(rows))
	}

	first := rows[0]
	if first.Patient != "Jane Doe" || first.Condition != "Diabetes" {
		t.Errorf("unexpected first row labels: %+v", first)
	}
	if first.Age == nil || *first.Age != 34 {
		t.Errorf("expected age 34, got %v", first.Age)
	}
	if first.RoomNumber != nil {
		t.Errorf("expected nil room number, got %d", *first.RoomNumber)
	}
	if first.Billing != 18856.28 {
		t.Errorf("expected billing 18856.28, got %v", first.Billing)
	}
	if first.AdmissionDate != "2023-01-10" || first.StayDays != 4 {
		t.Errorf("unexpected dates: %+v", first)
	}

	second := rows[1]
	if second.Age != nil {
		t.Errorf("expected nil age for second row, got %d", *second.Age)
	}
	if second.Doctor != "Lisa Cuddy" {
		t.Errorf("unexpected doctor: %q", second.Doctor)
	}
}
