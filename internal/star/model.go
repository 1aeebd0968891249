package star

import "time"

// Patient is deduplicated on the composite (name, gender, blood type).
// Two admissions for the same name but different blood types are treated
// as different people.
type Patient struct {
	ID        int32
	Name      string
	Gender    string
	BloodType string
}

// Doctor, Hospital, Insurer, Condition and Medication are each
// deduplicated on their single descriptive field.
type Doctor struct {
	ID   int32
	Name string
}

type Hospital struct {
	ID   int32
	Name string
}

type Insurer struct {
	ID   int32
	Name string
}

type Condition struct {
	ID   int32
	Name string
}

type Medication struct {
	ID   int32
	Name string
}

// Fact is one admission, re-keyed onto dimension surrogate IDs. The
// descriptive attributes live on the dimensions; the fact keeps only
// measures and degenerate attributes.
type Fact struct {
	PatientID    int32
	DoctorID     int32
	HospitalID   int32
	InsurerID    int32
	ConditionID  int32
	MedicationID int32

	Age           *int16
	AdmissionDate time.Time
	DischargeDate time.Time
	AdmissionType string
	RoomNumber    *int32
	Billing       float64
	TestResult    string

	// StayDays is discharge minus admission in whole days, never negative.
	StayDays int32
}

// Model is the normalized star: six dimension slices indexed by
// surrogate ID minus one, plus the fact sequence in input order.
// Dimensions are created once during normalization and never mutated.
type Model struct {
	Patients    []Patient
	Doctors     []Doctor
	Hospitals   []Hospital
	Insurers    []Insurer
	Conditions  []Condition
	Medications []Medication
	Facts       []Fact
}

// Patient returns the patient for a surrogate ID.
func (m *Model) Patient(id int32) Patient { return m.Patients[id-1] }

// Doctor returns the doctor for a surrogate ID.
func (m *Model) Doctor(id int32) Doctor { return m.Doctors[id-1] }

// Hospital returns the hospital for a surrogate ID.
func (m *Model) Hospital(id int32) Hospital { return m.Hospitals[id-1] }

// Insurer returns the insurance provider for a surrogate ID.
func (m *Model) Insurer(id int32) Insurer { return m.Insurers[id-1] }

// Condition returns the medical condition for a surrogate ID.
func (m *Model) Condition(id int32) Condition { return m.Conditions[id-1] }

// Medication returns the medication for a surrogate ID.
func (m *Model) Medication(id int32) Medication { return m.Medications[id-1] }
