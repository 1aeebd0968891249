// Package warehouse persists a normalized star model to PostgreSQL and
// reads it back. Dimension rows are inserted with the surrogate IDs the
// normalizer assigned; facts go in bulk via COPY.
package warehouse

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema.sql
var schema string

// DBTX is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Queries wraps a connection or transaction with the warehouse's typed
// statements.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// InitSchema creates the star schema tables if they do not exist.
func InitSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const insertPatient = `
INSERT INTO dim_patients (id, name, gender, blood_type)
VALUES ($1, $2, $3, $4)`

type InsertPatientParams struct {
	ID        int32
	Name      string
	Gender    string
	BloodType string
}

func (q *Queries) InsertPatient(ctx context.Context, p InsertPatientParams) error {
	_, err := q.db.Exec(ctx, insertPatient, p.ID, p.Name, p.Gender, p.BloodType)
	return err
}

const insertNamedDim = `INSERT INTO %s (id, name) VALUES ($1, $2)`

// namedDimTables maps the single-field dimensions onto their tables.
var namedDimTables = []string{
	"dim_doctors", "dim_hospitals", "dim_insurers", "dim_conditions", "dim_medications",
}

func (q *Queries) insertNamed(ctx context.Context, table string, id int32, name string) error {
	_, err := q.db.Exec(ctx, fmt.Sprintf(insertNamedDim, table), id, name)
	return err
}

func (q *Queries) InsertDoctor(ctx context.Context, id int32, name string) error {
	return q.insertNamed(ctx, "dim_doctors", id, name)
}

func (q *Queries) InsertHospital(ctx context.Context, id int32, name string) error {
	return q.insertNamed(ctx, "dim_hospitals", id, name)
}

func (q *Queries) InsertInsurer(ctx context.Context, id int32, name string) error {
	return q.insertNamed(ctx, "dim_insurers", id, name)
}

func (q *Queries) InsertCondition(ctx context.Context, id int32, name string) error {
	return q.insertNamed(ctx, "dim_conditions", id, name)
}

func (q *Queries) InsertMedication(ctx context.Context, id int32, name string) error {
	return q.insertNamed(ctx, "dim_medications", id, name)
}

// factColumns is the COPY column order for fact_admissions.
var factColumns = []string{
	"patient_id", "doctor_id", "hospital_id", "insurer_id",
	"condition_id", "medication_id", "age", "admission_date",
	"discharge_date", "admission_type", "room_number",
	"billing_amount", "test_result", "stay_days",
}

// InsertFacts bulk-inserts fact rows via COPY and returns the number of
// rows written.
func (q *Queries) InsertFacts(ctx context.Context, rows [][]any) (int64, error) {
	copied, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"fact_admissions"}, factColumns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return copied, fmt.Errorf("copy fact_admissions: %w", err)
	}
	return copied, nil
}

// Truncate empties the star so a load always reflects exactly one input
// file. Dimension IDs restart with the normalizer's numbering.
func (q *Queries) Truncate(ctx context.Context) error {
	tables := append([]string{"fact_admissions", "dim_patients"}, namedDimTables...)
	for _, table := range tables {
		if _, err := q.db.Exec(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// floatToNumeric converts a billing amount in dollars to a pgtype.Numeric
// with two fractional digits.
func floatToNumeric(f float64) pgtype.Numeric {
	cents := int64(f*100 + 0.5)
	if f < 0 {
		cents = int64(f*100 - 0.5)
	}
	return pgtype.Numeric{Int: big.NewInt(cents), Exp: -2, Valid: true}
}

// numericToFloat converts a pgtype.Numeric back to dollars.
func numericToFloat(n pgtype.Numeric) float64 {
	if !n.Valid || n.Int == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(n.Int).Float64()
	for i := int32(0); i < -n.Exp; i++ {
		f /= 10
	}
	for i := int32(0); i < n.Exp; i++ {
		f *= 10
	}
	return f
}
