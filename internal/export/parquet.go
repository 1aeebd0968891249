// Package export writes the denormalized fact extract as Parquet for
// downstream query engines and visualization tools.
package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"admittool/internal/star"
)

// FactRow is one admission with the dimension labels joined back in.
// Labels repeat per row and dictionary-encode to near nothing; optional
// fields use the Parquet null bitmap so IS NULL predicates push down.
type FactRow struct {
	Patient       string  `parquet:"patient"`
	Gender        string  `parquet:"gender"`
	BloodType     string  `parquet:"blood_type"`
	Age           *int32  `parquet:"age,optional"`
	Condition     string  `parquet:"medical_condition"`
	Doctor        string  `parquet:"doctor"`
	Hospital      string  `parquet:"hospital"`
	Insurer       string  `parquet:"insurance_provider"`
	Medication    string  `parquet:"medication"`
	AdmissionType string  `parquet:"admission_type"`
	AdmissionDate string  `parquet:"admission_date"`
	DischargeDate string  `parquet:"discharge_date"`
	StayDays      int32   `parquet:"stay_days"`
	RoomNumber    *int32  `parquet:"room_number,optional"`
	Billing       float64 `parquet:"billing_amount"`
	TestResult    string  `parquet:"test_results"`
}

// Writer writes FactRow records to a zstd-compressed Parquet file.
type Writer struct {
	file   *os.File
	writer *parquet.GenericWriter[FactRow]
	count  int
}

func NewWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[FactRow](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.CreatedBy("admittool", "1.0", ""),
	)

	return &Writer{file: file, writer: writer}, nil
}

// Write writes a batch of rows.
func (w *Writer) Write(rows []FactRow) (int, error) {
	n, err := w.writer.Write(rows)
	w.count += n
	if err != nil {
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	return n, nil
}

// Close flushes the final row group and closes the file.
func (w *Writer) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

// Count returns the total number of rows written.
func (w *Writer) Count() int { return w.count }

const writeBatch = 10000

// WriteModel denormalizes the model's facts and writes them to path.
func WriteModel(path string, m *star.Model) (int, error) {
	w, err := NewWriter(path)
	if err != nil {
		return 0, err
	}

	batch := make([]FactRow, 0, writeBatch)
	for i := range m.Facts {
		batch = append(batch, denormalize(m, &m.Facts[i]))
		if len(batch) >= writeBatch {
			if _, err := w.Write(batch); err != nil {
				w.Close()
				return w.Count(), err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := w.Write(batch); err != nil {
			w.Close()
			return w.Count(), err
		}
	}

	if err := w.Close(); err != nil {
		return w.Count(), err
	}
	return w.Count(), nil
}

func denormalize(m *star.Model, f *star.Fact) FactRow {
	row := FactRow{
		Patient:       m.Patient(f.PatientID).Name,
		Gender:        m.Patient(f.PatientID).Gender,
		BloodType:     m.Patient(f.PatientID).BloodType,
		Condition:     m.Condition(f.ConditionID).Name,
		Doctor:        m.Doctor(f.DoctorID).Name,
		Hospital:      m.Hospital(f.HospitalID).Name,
		Insurer:       m.Insurer(f.InsurerID).Name,
		Medication:    m.Medication(f.MedicationID).Name,
		AdmissionType: f.AdmissionType,
		AdmissionDate: f.AdmissionDate.Format("2006-01-02"),
		DischargeDate: f.DischargeDate.Format("2006-01-02"),
		StayDays:      f.StayDays,
		RoomNumber:    f.RoomNumber,
		Billing:       f.Billing,
		TestResult:    f.TestResult,
	}
	if f.Age != nil {
		age := int32(*f.Age)
		row.Age = &age
	}
	return row
}
