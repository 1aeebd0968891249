package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Admission is one raw flat row with every descriptive field inlined.
// Optional fields that failed to parse (or were empty) are nil; fields
// required downstream are left as zero values and the normalizer decides
// whether the row survives.
type Admission struct {
	Name             string
	Age              *int16
	Gender           string
	BloodType        string
	MedicalCondition string
	AdmissionDate    time.Time
	Doctor           string
	Hospital         string
	Insurer          string
	Billing          float64
	RoomNumber       *int32
	AdmissionType    string
	DischargeDate    time.Time
	Medication       string
	TestResult       string
}

// Stats counts rows discarded or degraded during ingestion, by reason.
// Discarded rows never reach the normalizer; degraded rows do, with the
// offending field nulled.
type Stats struct {
	RowsRead     int64 // data rows consumed from the file
	BadDate      int64 // dropped: unparseable admission or discharge date
	BadAmount    int64 // dropped: non-numeric billing amount
	NegativeStay int64 // dropped: discharge before admission
	ShortRow     int64 // dropped: fewer fields than the header
	BadAge       int64 // kept with nil age
	BadRoom      int64 // kept with nil room number
}

// Dropped is the total number of rows excluded from the output.
func (s *Stats) Dropped() int64 {
	return s.BadDate + s.BadAmount + s.NegativeStay + s.ShortRow
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// Reader streams flat admission rows from a CSV file. Column order is
// taken from the header row; header names are matched case-insensitively
// with spaces treated as underscores.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	rowNum int64
	cols   map[string]int
	maxIdx int // highest column index among required columns
	stats  Stats
}

// Columns the input must carry. room_number is the only one whose absence
// from the header is tolerated.
var requiredColumns = []string{
	"name", "age", "gender", "blood_type", "medical_condition",
	"date_of_admission", "doctor", "hospital", "insurance_provider",
	"billing_amount", "admission_type", "discharge_date",
	"medication", "test_results",
}

func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	r := &Reader{
		file: file,
		csv:  reader,
		cols: make(map[string]int),
	}

	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

// normalizeHeader maps "Blood Type" and "blood_type" to the same key.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	return strings.ReplaceAll(h, " ", "_")
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++

	for i, h := range header {
		r.cols[normalizeHeader(h)] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := r.cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("header is missing columns: %s", strings.Join(missing, ", "))
	}

	for _, c := range requiredColumns {
		if idx := r.cols[c]; idx > r.maxIdx {
			r.maxIdx = idx
		}
	}
	return nil
}

// Next returns the next well-formed admission row. Malformed rows are
// skipped with a diagnostic count; Next only fails on a hard read error.
// Returns io.EOF when the file is exhausted.
func (r *Reader) Next() (*Admission, error) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", r.rowNum+1, err)
		}
		r.rowNum++
		r.stats.RowsRead++

		adm, ok := r.parseRow(record)
		if !ok {
			continue
		}
		return adm, nil
	}
}

// parseRow applies the skip-and-continue policy: unparseable dates or
// billing amounts drop the row, unparseable age or room number null the
// field, missing descriptive fields pass through empty for the
// normalizer to judge.
func (r *Reader) parseRow(record []string) (*Admission, bool) {
	if len(record) <= r.maxIdx {
		r.stats.ShortRow++
		return nil, false
	}

	field := func(name string) string {
		idx, ok := r.cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	admitted, err := parseDate(field("date_of_admission"))
	if err != nil {
		r.stats.BadDate++
		return nil, false
	}
	discharged, err := parseDate(field("discharge_date"))
	if err != nil {
		r.stats.BadDate++
		return nil, false
	}
	if discharged.Before(admitted) {
		r.stats.NegativeStay++
		return nil, false
	}

	billing, err := parseAmount(field("billing_amount"))
	if err != nil {
		r.stats.BadAmount++
		return nil, false
	}

	adm := &Admission{
		Name:             field("name"),
		Gender:           field("gender"),
		BloodType:        field("blood_type"),
		MedicalCondition: field("medical_condition"),
		AdmissionDate:    admitted,
		Doctor:           field("doctor"),
		Hospital:         field("hospital"),
		Insurer:          field("insurance_provider"),
		Billing:          billing,
		AdmissionType:    field("admission_type"),
		DischargeDate:    discharged,
		Medication:       field("medication"),
		TestResult:       field("test_results"),
	}

	if raw := field("age"); raw != "" {
		if age, err := strconv.ParseInt(raw, 10, 16); err == nil && age >= 0 {
			v := int16(age)
			adm.Age = &v
		} else {
			r.stats.BadAge++
		}
	} else {
		r.stats.BadAge++
	}

	if raw := field("room_number"); raw != "" {
		if room, err := strconv.ParseInt(raw, 10, 32); err == nil {
			v := int32(room)
			adm.RoomNumber = &v
		} else {
			r.stats.BadRoom++
		}
	}

	return adm, true
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseAmount parses a decimal amount and rounds it to cents.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q: %w", s, err)
	}
	return math.Round(f*100) / 100, nil
}

// RowNum returns the current row number (header included).
func (r *Reader) RowNum() int64 { return r.rowNum }

// Stats returns the diagnostic counters accumulated so far.
func (r *Reader) Stats() Stats { return r.stats }

func (r *Reader) Close() error { return r.file.Close() }

// ReadAll drains the reader and returns every surviving row.
func ReadAll(r *Reader) ([]Admission, error) {
	var out []Admission
	for {
		adm, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *adm)
	}
}
