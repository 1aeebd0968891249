package report

import (
	"sort"
	"strconv"

	"admittool/internal/star"
)

// Repeat-visit bucket labels.
const (
	BucketOneTime     = "One-time"
	BucketTwoVisits   = "2 visits"
	BucketThreeVisits = "3+ visits"
)

// RepeatVisitRow is one visit-count bucket with its patient population
// share.
type RepeatVisitRow struct {
	Bucket   string
	Patients int
	Pct      float64
}

// RepeatVisitShare buckets each patient by total visit count and reports
// the share of the patient population per bucket.
func RepeatVisitShare(m *star.Model) []RepeatVisitRow {
	visits := make(map[int32]int, len(m.Patients))
	for i := range m.Facts {
		visits[m.Facts[i].PatientID]++
	}

	counts := map[string]int{}
	for _, n := range visits {
		switch {
		case n == 1:
			counts[BucketOneTime]++
		case n == 2:
			counts[BucketTwoVisits]++
		default:
			counts[BucketThreeVisits]++
		}
	}

	total := len(visits)
	buckets := []string{BucketOneTime, BucketTwoVisits, BucketThreeVisits}
	rows := make([]RepeatVisitRow, 0, len(buckets))
	for _, b := range buckets {
		pct := 0.0
		if total > 0 {
			pct = round2(float64(counts[b]) / float64(total) * 100)
		}
		rows = append(rows, RepeatVisitRow{Bucket: b, Patients: counts[b], Pct: pct})
	}
	return rows
}

func repeatVisitTable(m *star.Model) Table {
	t := Table{Name: "repeat-visits", Columns: []string{"bucket", "patients", "pct"}}
	for _, r := range RepeatVisitShare(m) {
		t.Rows = append(t.Rows, []string{r.Bucket, strconv.Itoa(r.Patients), fmtPct(r.Pct)})
	}
	return t
}

// readmissionWindowDays is the gap between a discharge and the next
// admission that still counts as a readmission.
const readmissionWindowDays = 30

// ReadmissionRow is one condition's 30-day readmission figures.
type ReadmissionRow struct {
	Condition    string
	Admissions   int
	Readmissions int
	Rate         float64 // percent of the condition's admissions
}

// ThirtyDayReadmissions orders each patient's admissions by date and
// counts an admission as a readmission when it starts within the window
// after the previous admission's discharge. A readmission is attributed
// to its own condition, not the prior stay's.
func ThirtyDayReadmissions(m *star.Model) []ReadmissionRow {
	byPatient := make(map[int32][]int)
	for i := range m.Facts {
		byPatient[m.Facts[i].PatientID] = append(byPatient[m.Facts[i].PatientID], i)
	}

	readmitted := make(map[int32]int) // condition ID → readmission count
	for _, idxs := range byPatient {
		sort.SliceStable(idxs, func(a, b int) bool {
			return m.Facts[idxs[a]].AdmissionDate.Before(m.Facts[idxs[b]].AdmissionDate)
		})
		for i := 1; i < len(idxs); i++ {
			prev, cur := &m.Facts[idxs[i-1]], &m.Facts[idxs[i]]
			gap := cur.AdmissionDate.Sub(prev.DischargeDate).Hours() / 24
			if gap >= 0 && gap <= readmissionWindowDays {
				readmitted[cur.ConditionID]++
			}
		}
	}

	admissions := make(map[int32]int)
	for i := range m.Facts {
		admissions[m.Facts[i].ConditionID]++
	}

	var rows []ReadmissionRow
	for _, condID := range sortedConditionIDs(m) {
		total := admissions[condID]
		rate := 0.0
		if total > 0 {
			rate = round2(float64(readmitted[condID]) / float64(total) * 100)
		}
		rows = append(rows, ReadmissionRow{
			Condition:    m.Condition(condID).Name,
			Admissions:   total,
			Readmissions: readmitted[condID],
			Rate:         rate,
		})
	}
	return rows
}

func readmissionTable(m *star.Model) Table {
	t := Table{
		Name:    "readmissions-30d",
		Columns: []string{"condition", "admissions", "readmissions_30d", "rate_pct"},
	}
	for _, r := range ThirtyDayReadmissions(m) {
		t.Rows = append(t.Rows, []string{
			r.Condition, strconv.Itoa(r.Admissions), strconv.Itoa(r.Readmissions), fmtPct(r.Rate),
		})
	}
	return t
}
