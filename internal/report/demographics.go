package report

import (
	"sort"
	"strconv"

	"admittool/internal/star"
)

// Fixed age ranges. 66+ has no upper bound.
var ageGroups = []struct {
	label    string
	min, max int16
}{
	{"0-17", 0, 17},
	{"18-34", 18, 34},
	{"35-49", 35, 49},
	{"50-65", 50, 65},
	{"66+", 66, 32767},
}

func ageGroupLabel(age int16) string {
	for _, g := range ageGroups {
		if age >= g.min && age <= g.max {
			return g.label
		}
	}
	return ""
}

// AgeGroupRow is one age bucket with its admission count and share.
type AgeGroupRow struct {
	AgeGroup   string
	Admissions int
	Pct        float64
}

// AgeGroupDistribution buckets every admission with a resolvable age
// into the fixed ranges. Percentages are of admissions with an age, not
// of all admissions.
func AgeGroupDistribution(m *star.Model) []AgeGroupRow {
	counts := make(map[string]int, len(ageGroups))
	total := 0
	for i := range m.Facts {
		if m.Facts[i].Age == nil {
			continue
		}
		counts[ageGroupLabel(*m.Facts[i].Age)]++
		total++
	}
	return bucketRows(counts, total)
}

// UniquePatientAgeGroups buckets each patient once, at the age recorded
// on their earliest admission. Ties on date keep the first row seen, so
// the result is stable for a given input order.
func UniquePatientAgeGroups(m *star.Model) []AgeGroupRow {
	first := make(map[int32]*star.Fact, len(m.Patients))
	for i := range m.Facts {
		f := &m.Facts[i]
		cur, ok := first[f.PatientID]
		if !ok || f.AdmissionDate.Before(cur.AdmissionDate) {
			first[f.PatientID] = f
		}
	}

	counts := make(map[string]int, len(ageGroups))
	total := 0
	for _, f := range first {
		if f.Age == nil {
			continue
		}
		counts[ageGroupLabel(*f.Age)]++
		total++
	}
	return bucketRows(counts, total)
}

func bucketRows(counts map[string]int, total int) []AgeGroupRow {
	rows := make([]AgeGroupRow, 0, len(ageGroups))
	for _, g := range ageGroups {
		n := counts[g.label]
		pct := 0.0
		if total > 0 {
			pct = round2(float64(n) / float64(total) * 100)
		}
		rows = append(rows, AgeGroupRow{AgeGroup: g.label, Admissions: n, Pct: pct})
	}
	return rows
}

func ageGroupTable(m *star.Model) Table {
	return ageGroupRowsToTable("age-groups", "admissions", AgeGroupDistribution(m))
}

func uniquePatientAgeGroupTable(m *star.Model) Table {
	return ageGroupRowsToTable("unique-patient-age-groups", "patients", UniquePatientAgeGroups(m))
}

func ageGroupRowsToTable(name, countCol string, rows []AgeGroupRow) Table {
	t := Table{Name: name, Columns: []string{"age_group", countCol, "pct"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.AgeGroup, strconv.Itoa(r.Admissions), fmtPct(r.Pct)})
	}
	return t
}

// GenderRow is one gender with its unique patient count.
type GenderRow struct {
	Gender   string
	Patients int
}

// GenderBreakdown counts unique patients per gender.
func GenderBreakdown(m *star.Model) []GenderRow {
	counts := make(map[string]int)
	for _, p := range m.Patients {
		counts[p.Gender]++
	}
	genders := make([]string, 0, len(counts))
	for g := range counts {
		genders = append(genders, g)
	}
	sort.Strings(genders)

	rows := make([]GenderRow, 0, len(genders))
	for _, g := range genders {
		rows = append(rows, GenderRow{Gender: g, Patients: counts[g]})
	}
	return rows
}

func genderTable(m *star.Model) Table {
	t := Table{Name: "gender-breakdown", Columns: []string{"gender", "patients"}}
	for _, r := range GenderBreakdown(m) {
		t.Rows = append(t.Rows, []string{r.Gender, strconv.Itoa(r.Patients)})
	}
	return t
}
