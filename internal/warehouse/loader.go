package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"admittool/internal/star"
)

// LoadResult summarizes one warehouse load.
type LoadResult struct {
	Patients    int
	Doctors     int
	Hospitals   int
	Insurers    int
	Conditions  int
	Medications int
	Facts       int64
}

// Load replaces the warehouse contents with the given model: truncate,
// insert every dimension row under its normalizer-assigned surrogate ID,
// then COPY the facts. Runs in a single transaction so a failed load
// leaves the previous contents untouched.
func Load(ctx context.Context, pool *pgxpool.Pool, m *star.Model) (*LoadResult, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	q := New(tx)

	if err := q.Truncate(ctx); err != nil {
		return nil, err
	}

	for _, p := range m.Patients {
		err := q.InsertPatient(ctx, InsertPatientParams{
			ID: p.ID, Name: p.Name, Gender: p.Gender, BloodType: p.BloodType,
		})
		if err != nil {
			return nil, fmt.Errorf("insert patient %d: %w", p.ID, err)
		}
	}
	for _, d := range m.Doctors {
		if err := q.InsertDoctor(ctx, d.ID, d.Name); err != nil {
			return nil, fmt.Errorf("insert doctor %d: %w", d.ID, err)
		}
	}
	for _, h := range m.Hospitals {
		if err := q.InsertHospital(ctx, h.ID, h.Name); err != nil {
			return nil, fmt.Errorf("insert hospital %d: %w", h.ID, err)
		}
	}
	for _, ins := range m.Insurers {
		if err := q.InsertInsurer(ctx, ins.ID, ins.Name); err != nil {
			return nil, fmt.Errorf("insert insurer %d: %w", ins.ID, err)
		}
	}
	for _, c := range m.Conditions {
		if err := q.InsertCondition(ctx, c.ID, c.Name); err != nil {
			return nil, fmt.Errorf("insert condition %d: %w", c.ID, err)
		}
	}
	for _, med := range m.Medications {
		if err := q.InsertMedication(ctx, med.ID, med.Name); err != nil {
			return nil, fmt.Errorf("insert medication %d: %w", med.ID, err)
		}
	}

	rows := make([][]any, 0, len(m.Facts))
	for i := range m.Facts {
		rows = append(rows, factCopyRow(&m.Facts[i]))
	}
	copied, err := q.InsertFacts(ctx, rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &LoadResult{
		Patients:    len(m.Patients),
		Doctors:     len(m.Doctors),
		Hospitals:   len(m.Hospitals),
		Insurers:    len(m.Insurers),
		Conditions:  len(m.Conditions),
		Medications: len(m.Medications),
		Facts:       copied,
	}, nil
}

func factCopyRow(f *star.Fact) []any {
	age := pgtype.Int2{Valid: false}
	if f.Age != nil {
		age = pgtype.Int2{Int16: *f.Age, Valid: true}
	}
	room := pgtype.Int4{Valid: false}
	if f.RoomNumber != nil {
		room = pgtype.Int4{Int32: *f.RoomNumber, Valid: true}
	}
	return []any{
		f.PatientID, f.DoctorID, f.HospitalID, f.InsurerID,
		f.ConditionID, f.MedicationID,
		age,
		pgtype.Date{Time: f.AdmissionDate, Valid: true},
		pgtype.Date{Time: f.DischargeDate, Valid: true},
		f.AdmissionType,
		room,
		floatToNumeric(f.Billing),
		f.TestResult,
		f.StayDays,
	}
}

// dateOnly strips any time component so round-tripped dates compare equal.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
