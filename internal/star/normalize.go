package star

import (
	"admittool/internal/ingest"
)

// Stats counts rows the normalizer excluded, by missing dimension key.
// A row missing the natural key for any dimension it must reference is
// dropped entirely, mirroring an inner-join-only policy.
type Stats struct {
	FactsBuilt   int64
	NoPatientKey int64 // name, gender or blood type missing
	NoDoctor     int64
	NoHospital   int64
	NoInsurer    int64
	NoCondition  int64
	NoMedication int64
}

// Dropped is the total number of rows excluded from the fact output.
func (s *Stats) Dropped() int64 {
	return s.NoPatientKey + s.NoDoctor + s.NoHospital + s.NoInsurer +
		s.NoCondition + s.NoMedication
}

// dim assigns surrogate IDs to single-field natural keys in first-seen
// order, the same ID for the same value across a run.
type dim struct {
	ids  map[string]int32
	vals []string
}

func newDim() *dim {
	return &dim{ids: make(map[string]int32)}
}

func (d *dim) id(val string) int32 {
	if id, ok := d.ids[val]; ok {
		return id
	}
	id := int32(len(d.vals) + 1)
	d.ids[val] = id
	d.vals = append(d.vals, val)
	return id
}

// patientKey is the composite natural key for the patient dimension.
type patientKey struct {
	name, gender, bloodType string
}

// Normalize deduplicates the six dimensions out of the raw rows and
// re-keys each row onto surrogate IDs. IDs are assigned in first-seen
// order, so the same input ordering always produces the same mapping.
// Rows with any unresolvable dimension reference are dropped and counted;
// a missing room number only nulls that column.
func Normalize(raws []ingest.Admission) (*Model, Stats) {
	var stats Stats

	patientIDs := make(map[patientKey]int32)
	var patients []Patient

	doctors := newDim()
	hospitals := newDim()
	insurers := newDim()
	conditions := newDim()
	medications := newDim()

	facts := make([]Fact, 0, len(raws))

	for i := range raws {
		raw := &raws[i]

		switch {
		case raw.Name == "" || raw.Gender == "" || raw.BloodType == "":
			stats.NoPatientKey++
			continue
		case raw.Doctor == "":
			stats.NoDoctor++
			continue
		case raw.Hospital == "":
			stats.NoHospital++
			continue
		case raw.Insurer == "":
			stats.NoInsurer++
			continue
		case raw.MedicalCondition == "":
			stats.NoCondition++
			continue
		case raw.Medication == "":
			stats.NoMedication++
			continue
		}

		pk := patientKey{raw.Name, raw.Gender, raw.BloodType}
		patientID, ok := patientIDs[pk]
		if !ok {
			patientID = int32(len(patients) + 1)
			patientIDs[pk] = patientID
			patients = append(patients, Patient{
				ID:        patientID,
				Name:      raw.Name,
				Gender:    raw.Gender,
				BloodType: raw.BloodType,
			})
		}

		stay := int32(raw.DischargeDate.Sub(raw.AdmissionDate).Hours() / 24)

		facts = append(facts, Fact{
			PatientID:     patientID,
			DoctorID:      doctors.id(raw.Doctor),
			HospitalID:    hospitals.id(raw.Hospital),
			InsurerID:     insurers.id(raw.Insurer),
			ConditionID:   conditions.id(raw.MedicalCondition),
			MedicationID:  medications.id(raw.Medication),
			Age:           raw.Age,
			AdmissionDate: raw.AdmissionDate,
			DischargeDate: raw.DischargeDate,
			AdmissionType: raw.AdmissionType,
			RoomNumber:    raw.RoomNumber,
			Billing:       raw.Billing,
			TestResult:    raw.TestResult,
			StayDays:      stay,
		})
	}
	stats.FactsBuilt = int64(len(facts))

	m := &Model{
		Patients:    patients,
		Doctors:     make([]Doctor, len(doctors.vals)),
		Hospitals:   make([]Hospital, len(hospitals.vals)),
		Insurers:    make([]Insurer, len(insurers.vals)),
		Conditions:  make([]Condition, len(conditions.vals)),
		Medications: make([]Medication, len(medications.vals)),
		Facts:       facts,
	}
	for i, v := range doctors.vals {
		m.Doctors[i] = Doctor{ID: int32(i + 1), Name: v}
	}
	for i, v := range hospitals.vals {
		m.Hospitals[i] = Hospital{ID: int32(i + 1), Name: v}
	}
	for i, v := range insurers.vals {
		m.Insurers[i] = Insurer{ID: int32(i + 1), Name: v}
	}
	for i, v := range conditions.vals {
		m.Conditions[i] = Condition{ID: int32(i + 1), Name: v}
	}
	for i, v := range medications.vals {
		m.Medications[i] = Medication{ID: int32(i + 1), Name: v}
	}

	return m, stats
}
