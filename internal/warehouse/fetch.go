package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"admittool/internal/star"
)

// ReadModel loads the entire star back into memory, dimensions ordered
// by surrogate ID and facts by insertion order, so reports see the same
// model the loader wrote.
func ReadModel(ctx context.Context, pool *pgxpool.Pool) (*star.Model, error) {
	m := &star.Model{}

	rows, err := pool.Query(ctx,
		`SELECT id, name, gender, blood_type FROM dim_patients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select patients: %w", err)
	}
	for rows.Next() {
		var p star.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Gender, &p.BloodType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		m.Patients = append(m.Patients, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read patients: %w", err)
	}

	readNamed := func(table string, assign func(id int32, name string)) error {
		rows, err := pool.Query(ctx, "SELECT id, name FROM "+table+" ORDER BY id")
		if err != nil {
			return fmt.Errorf("select %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var id int32
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				return fmt.Errorf("scan %s: %w", table, err)
			}
			assign(id, name)
		}
		return rows.Err()
	}

	if err := readNamed("dim_doctors", func(id int32, name string) {
		m.Doctors = append(m.Doctors, star.Doctor{ID: id, Name: name})
	}); err != nil {
		return nil, err
	}
	if err := readNamed("dim_hospitals", func(id int32, name string) {
		m.Hospitals = append(m.Hospitals, star.Hospital{ID: id, Name: name})
	}); err != nil {
		return nil, err
	}
	if err := readNamed("dim_insurers", func(id int32, name string) {
		m.Insurers = append(m.Insurers, star.Insurer{ID: id, Name: name})
	}); err != nil {
		return nil, err
	}
	if err := readNamed("dim_conditions", func(id int32, name string) {
		m.Conditions = append(m.Conditions, star.Condition{ID: id, Name: name})
	}); err != nil {
		return nil, err
	}
	if err := readNamed("dim_medications", func(id int32, name string) {
		m.Medications = append(m.Medications, star.Medication{ID: id, Name: name})
	}); err != nil {
		return nil, err
	}

	factRows, err := pool.Query(ctx, `
SELECT patient_id, doctor_id, hospital_id, insurer_id, condition_id,
       medication_id, age, admission_date, discharge_date, admission_type,
       room_number, billing_amount, test_result, stay_days
FROM fact_admissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select facts: %w", err)
	}
	defer factRows.Close()

	for factRows.Next() {
		var f star.Fact
		var age pgtype.Int2
		var room pgtype.Int4
		var admitted, discharged pgtype.Date
		var billing pgtype.Numeric

		err := factRows.Scan(
			&f.PatientID, &f.DoctorID, &f.HospitalID, &f.InsurerID,
			&f.ConditionID, &f.MedicationID, &age, &admitted, &discharged,
			&f.AdmissionType, &room, &billing, &f.TestResult, &f.StayDays)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}

		if age.Valid {
			v := age.Int16
			f.Age = &v
		}
		if room.Valid {
			v := room.Int32
			f.RoomNumber = &v
		}
		f.AdmissionDate = dateOnly(admitted.Time)
		f.DischargeDate = dateOnly(discharged.Time)
		f.Billing = numericToFloat(billing)

		m.Facts = append(m.Facts, f)
	}
	if err := factRows.Err(); err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}

	return m, nil
}
