package star

import (
	"testing"
	"time"

	"admittool/internal/ingest"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func agePtr(a int16) *int16 { return &a }

func rawAdmission(name string, admitted, discharged string) ingest.Admission {
	return ingest.Admission{
		Name:             name,
		Age:              agePtr(40),
		Gender:           "Female",
		BloodType:        "O+",
		MedicalCondition: "Diabetes",
		AdmissionDate:    day(admitted),
		Doctor:           "Gregory House",
		Hospital:         "County General",
		Insurer:          "Aetna",
		Billing:          1200.50,
		AdmissionType:    "Emergency",
		DischargeDate:    day(discharged),
		Medication:       "Metformin",
		TestResult:       "Normal",
	}
}

func TestNormalizeDeduplicatesDimensions(t *testing.T) {
	raws := []ingest.Admission{
		rawAdmission("Jane Doe", "2023-01-10", "2023-01-15"),
		rawAdmission("Jane Doe", "2023-03-01", "2023-03-02"),
		rawAdmission("John Roe", "2023-02-20", "2023-02-25"),
	}
	raws[2].Doctor = "Lisa Cuddy"
	raws[2].MedicalCondition = "Asthma"

	m, stats := Normalize(raws)

	if len(m.Facts) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(m.Facts))
	}
	if stats.Dropped() != 0 {
		t.Errorf("expected no dropped rows, got %d", stats.Dropped())
	}
	if len(m.Patients) != 2 {
		t.Errorf("expected 2 patients, got %d", len(m.Patients))
	}
	if len(m.Doctors) != 2 {
		t.Errorf("expected 2 doctors, got %d", len(m.Doctors))
	}
	if len(m.Conditions) != 2 {
		t.Errorf("expected 2 conditions, got %d", len(m.Conditions))
	}
	if len(m.Hospitals) != 1 || len(m.Insurers) != 1 || len(m.Medications) != 1 {
		t.Errorf("expected single-entry hospital/insurer/medication dimensions, got %d/%d/%d",
			len(m.Hospitals), len(m.Insurers), len(m.Medications))
	}

	// Both Jane Doe admissions reference the same surrogate
	if m.Facts[0].PatientID != m.Facts[1].PatientID {
		t.Errorf("same patient got different surrogate IDs: %d vs %d",
			m.Facts[0].PatientID, m.Facts[1].PatientID)
	}
	if m.Facts[0].PatientID == m.Facts[2].PatientID {
		t.Error("different patients share a surrogate ID")
	}
}

func TestNormalizePatientKeyIsComposite(t *testing.T) {
	a := rawAdmission("Jane Doe", "2023-01-10", "2023-01-12")
	b := rawAdmission("Jane Doe", "2023-02-10", "2023-02-12")
	b.BloodType = "AB-"

	m, _ := Normalize([]ingest.Admission{a, b})

	if len(m.Patients) != 2 {
		t.Fatalf("same name with different blood types must be two patients, got %d", len(m.Patients))
	}
}

func TestNormalizeDropsRowsMissingDimensionKeys(t *testing.T) {
	noDoctor := rawAdmission("Jane Doe", "2023-01-10", "2023-01-12")
	noDoctor.Doctor = ""
	noBlood := rawAdmission("John Roe", "2023-01-10", "2023-01-12")
	noBlood.BloodType = ""
	keep := rawAdmission("Mary Major", "2023-01-10", "2023-01-12")

	m, stats := Normalize([]ingest.Admission{noDoctor, noBlood, keep})

	if len(m.Facts) != 1 {
		t.Fatalf("expected 1 surviving fact, got %d", len(m.Facts))
	}
	if stats.NoDoctor != 1 {
		t.Errorf("expected NoDoctor=1, got %d", stats.NoDoctor)
	}
	if stats.NoPatientKey != 1 {
		t.Errorf("expected NoPatientKey=1, got %d", stats.NoPatientKey)
	}
	// The dropped doctor-less row must not have populated any dimension
	for _, p := range m.Patients {
		if p.Name == "Jane Doe" {
			t.Error("dropped row leaked into the patient dimension")
		}
	}
}

func TestNormalizeKeepsNullRoomNumber(t *testing.T) {
	a := rawAdmission("Jane Doe", "2023-01-10", "2023-01-12")
	a.RoomNumber = nil

	m, stats := Normalize([]ingest.Admission{a})

	if len(m.Facts) != 1 {
		t.Fatalf("row with missing room number must still produce a fact, dropped=%d", stats.Dropped())
	}
	if m.Facts[0].RoomNumber != nil {
		t.Errorf("expected nil room number, got %d", *m.Facts[0].RoomNumber)
	}
}

func TestNormalizeStayDays(t *testing.T) {
	cases := []struct {
		admitted, discharged string
		want                 int32
	}{
		{"2023-01-10", "2023-01-15", 5},
		{"2023-01-10", "2023-01-10", 0},
		{"2023-12-30", "2024-01-02", 3},
	}
	for _, tc := range cases {
		m, _ := Normalize([]ingest.Admission{rawAdmission("Jane Doe", tc.admitted, tc.discharged)})
		if got := m.Facts[0].StayDays; got != tc.want {
			t.Errorf("stay %s..%s: expected %d days, got %d", tc.admitted, tc.discharged, tc.want, got)
		}
		if m.Facts[0].StayDays < 0 {
			t.Errorf("stay %s..%s: negative length of stay", tc.admitted, tc.discharged)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raws := []ingest.Admission{
		rawAdmission("Jane Doe", "2023-01-10", "2023-01-15"),
		rawAdmission("John Roe", "2023-02-20", "2023-02-25"),
		rawAdmission("Jane Doe", "2023-03-01", "2023-03-02"),
	}
	raws[1].Doctor = "Lisa Cuddy"

	m1, _ := Normalize(raws)
	m2, _ := Normalize(raws)

	if len(m1.Facts) != len(m2.Facts) {
		t.Fatalf("fact counts differ between runs: %d vs %d", len(m1.Facts), len(m2.Facts))
	}
	for i := range m1.Patients {
		if m1.Patients[i] != m2.Patients[i] {
			t.Errorf("patient %d differs between runs: %+v vs %+v", i, m1.Patients[i], m2.Patients[i])
		}
	}
	for i := range m1.Facts {
		if m1.Facts[i].PatientID != m2.Facts[i].PatientID ||
			m1.Facts[i].DoctorID != m2.Facts[i].DoctorID {
			t.Errorf("fact %d re-keyed differently between runs", i)
		}
	}
}
