package report

import (
	"sort"
	"strconv"

	"admittool/internal/star"
)

// DoctorRankRow is one (condition, doctor) pair ranked by average
// billing within the condition.
type DoctorRankRow struct {
	Condition  string
	Doctor     string
	Admissions int
	AvgBilling float64
	Rank       int
}

// DoctorBillingRank ranks doctors by descending average billing within
// each condition. Equal averages share a rank and the next distinct
// average skips the tied positions (competition ranking).
func DoctorBillingRank(m *star.Model) []DoctorRankRow {
	type key struct{ cond, doc int32 }
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for i := range m.Facts {
		k := key{m.Facts[i].ConditionID, m.Facts[i].DoctorID}
		sums[k] += m.Facts[i].Billing
		counts[k]++
	}

	byCondition := make(map[int32][]DoctorRankRow)
	for k, sum := range sums {
		byCondition[k.cond] = append(byCondition[k.cond], DoctorRankRow{
			Condition:  m.Condition(k.cond).Name,
			Doctor:     m.Doctor(k.doc).Name,
			Admissions: counts[k],
			AvgBilling: round2(sum / float64(counts[k])),
		})
	}

	var rows []DoctorRankRow
	for _, condID := range sortedConditionIDs(m) {
		group := byCondition[condID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].AvgBilling != group[j].AvgBilling {
				return group[i].AvgBilling > group[j].AvgBilling
			}
			return group[i].Doctor < group[j].Doctor
		})
		// Standard competition ranking: ties share a rank, the next
		// distinct value skips the tied positions.
		for i := range group {
			if i > 0 && group[i].AvgBilling == group[i-1].AvgBilling {
				group[i].Rank = group[i-1].Rank
			} else {
				group[i].Rank = i + 1
			}
		}
		rows = append(rows, group...)
	}
	return rows
}

// MedicationRankRow is one (condition, medication) pair ranked by
// prescription count within the condition.
type MedicationRankRow struct {
	Condition     string
	Medication    string
	Prescriptions int
	Rank          int
}

// MedicationUsageRank ranks medications by descending prescription count
// within each condition, competition ranking as for doctors.
func MedicationUsageRank(m *star.Model) []MedicationRankRow {
	type key struct{ cond, med int32 }
	counts := make(map[key]int)
	for i := range m.Facts {
		counts[key{m.Facts[i].ConditionID, m.Facts[i].MedicationID}]++
	}

	byCondition := make(map[int32][]MedicationRankRow)
	for k, n := range counts {
		byCondition[k.cond] = append(byCondition[k.cond], MedicationRankRow{
			Condition:     m.Condition(k.cond).Name,
			Medication:    m.Medication(k.med).Name,
			Prescriptions: n,
		})
	}

	var rows []MedicationRankRow
	for _, condID := range sortedConditionIDs(m) {
		group := byCondition[condID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Prescriptions != group[j].Prescriptions {
				return group[i].Prescriptions > group[j].Prescriptions
			}
			return group[i].Medication < group[j].Medication
		})
		for i := range group {
			if i > 0 && group[i].Prescriptions == group[i-1].Prescriptions {
				group[i].Rank = group[i-1].Rank
			} else {
				group[i].Rank = i + 1
			}
		}
		rows = append(rows, group...)
	}
	return rows
}

func doctorRankTable(m *star.Model) Table {
	t := Table{
		Name:    "doctor-billing-rank",
		Columns: []string{"condition", "doctor", "admissions", "avg_billing", "rank"},
	}
	for _, r := range DoctorBillingRank(m) {
		t.Rows = append(t.Rows, []string{
			r.Condition, r.Doctor, strconv.Itoa(r.Admissions),
			fmtMoney(r.AvgBilling), strconv.Itoa(r.Rank),
		})
	}
	return t
}

func medicationRankTable(m *star.Model) Table {
	t := Table{
		Name:    "medication-usage-rank",
		Columns: []string{"condition", "medication", "prescriptions", "rank"},
	}
	for _, r := range MedicationUsageRank(m) {
		t.Rows = append(t.Rows, []string{
			r.Condition, r.Medication, strconv.Itoa(r.Prescriptions), strconv.Itoa(r.Rank),
		})
	}
	return t
}
