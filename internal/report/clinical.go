package report

import (
	"sort"
	"strconv"

	"admittool/internal/star"
)

// StayByTypeRow is one admission type's volume and average stay.
type StayByTypeRow struct {
	AdmissionType string
	Admissions    int
	AvgStayDays   float64
}

// StayByAdmissionType averages length of stay per admission type,
// ordered by type name.
func StayByAdmissionType(m *star.Model) []StayByTypeRow {
	sums := make(map[string]int64)
	counts := make(map[string]int)
	for i := range m.Facts {
		t := m.Facts[i].AdmissionType
		sums[t] += int64(m.Facts[i].StayDays)
		counts[t]++
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	rows := make([]StayByTypeRow, 0, len(types))
	for _, t := range types {
		rows = append(rows, StayByTypeRow{
			AdmissionType: t,
			Admissions:    counts[t],
			AvgStayDays:   round2(float64(sums[t]) / float64(counts[t])),
		})
	}
	return rows
}

func stayByTypeTable(m *star.Model) Table {
	t := Table{
		Name:    "stay-by-admission-type",
		Columns: []string{"admission_type", "admissions", "avg_stay_days"},
	}
	for _, r := range StayByAdmissionType(m) {
		t.Rows = append(t.Rows, []string{
			r.AdmissionType, strconv.Itoa(r.Admissions), fmtPct(r.AvgStayDays),
		})
	}
	return t
}

// TestResultRow is one (condition, result) pair with its share of the
// condition's admissions.
type TestResultRow struct {
	Condition  string
	Result     string
	Admissions int
	Pct        float64
}

// TestResultBreakdown counts test results per condition. Results are
// ordered by count descending within each condition.
func TestResultBreakdown(m *star.Model) []TestResultRow {
	type key struct {
		cond   int32
		result string
	}
	counts := make(map[key]int)
	totals := make(map[int32]int)
	for i := range m.Facts {
		counts[key{m.Facts[i].ConditionID, m.Facts[i].TestResult}]++
		totals[m.Facts[i].ConditionID]++
	}

	byCondition := make(map[int32][]TestResultRow)
	for k, n := range counts {
		byCondition[k.cond] = append(byCondition[k.cond], TestResultRow{
			Condition:  m.Condition(k.cond).Name,
			Result:     k.result,
			Admissions: n,
			Pct:        round2(float64(n) / float64(totals[k.cond]) * 100),
		})
	}

	var rows []TestResultRow
	for _, condID := range sortedConditionIDs(m) {
		group := byCondition[condID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Admissions != group[j].Admissions {
				return group[i].Admissions > group[j].Admissions
			}
			return group[i].Result < group[j].Result
		})
		rows = append(rows, group...)
	}
	return rows
}

func testResultTable(m *star.Model) Table {
	t := Table{
		Name:    "test-results-by-condition",
		Columns: []string{"condition", "test_result", "admissions", "pct"},
	}
	for _, r := range TestResultBreakdown(m) {
		t.Rows = append(t.Rows, []string{
			r.Condition, r.Result, strconv.Itoa(r.Admissions), fmtPct(r.Pct),
		})
	}
	return t
}
