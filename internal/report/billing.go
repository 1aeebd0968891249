package report

import (
	"math"
	"sort"
	"strconv"

	"admittool/internal/star"
)

// Outlier flag values.
const (
	FlagNormal      = "Normal"
	FlagHighOutlier = "High Outlier"
	FlagLowOutlier  = "Low Outlier"
)

// zThreshold is the |z| beyond which an admission's billing is flagged.
const zThreshold = 2.0

// OutlierRow is one admission with its billing z-score relative to the
// other admissions for the same condition.
type OutlierRow struct {
	Condition     string
	Patient       string
	AdmissionDate string
	Billing       float64
	Z             *float64 // nil when the condition's stddev is zero
	Flag          string
}

// BillingOutliers computes, per condition, the mean and sample standard
// deviation (n-1) of billing amounts and flags each admission whose
// z-score exceeds the threshold. Conditions with fewer than two
// admissions, or identical amounts throughout, have no defined z-score
// and every row is flagged Normal.
func BillingOutliers(m *star.Model) []OutlierRow {
	byCondition := make(map[int32][]int)
	for i := range m.Facts {
		byCondition[m.Facts[i].ConditionID] = append(byCondition[m.Facts[i].ConditionID], i)
	}

	var rows []OutlierRow
	for _, condID := range sortedConditionIDs(m) {
		idxs := byCondition[condID]
		mean, stddev := meanAndSampleStddev(m, idxs)

		for _, i := range idxs {
			f := &m.Facts[i]
			row := OutlierRow{
				Condition:     m.Condition(condID).Name,
				Patient:       m.Patient(f.PatientID).Name,
				AdmissionDate: f.AdmissionDate.Format("2006-01-02"),
				Billing:       f.Billing,
				Flag:          FlagNormal,
			}
			if stddev > 0 {
				z := (f.Billing - mean) / stddev
				switch {
				case z > zThreshold:
					row.Flag = FlagHighOutlier
				case z < -zThreshold:
					row.Flag = FlagLowOutlier
				}
				z = round2(z)
				row.Z = &z
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func meanAndSampleStddev(m *star.Model, idxs []int) (mean, stddev float64) {
	n := float64(len(idxs))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range idxs {
		sum += m.Facts[i].Billing
	}
	mean = sum / n

	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, i := range idxs {
		d := m.Facts[i].Billing - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

func billingOutlierTable(m *star.Model) Table {
	t := Table{
		Name:    "billing-outliers",
		Columns: []string{"condition", "patient", "admission_date", "billing", "z", "flag"},
	}
	for _, r := range BillingOutliers(m) {
		t.Rows = append(t.Rows, []string{
			r.Condition, r.Patient, r.AdmissionDate,
			fmtMoney(r.Billing), fmtOptPct(r.Z), r.Flag,
		})
	}
	return t
}

// RevenueYoYRow is one calendar month's billing total with the percent
// change against the same month one year earlier.
type RevenueYoYRow struct {
	Year      int
	Month     int
	Revenue   float64
	PctChange *float64 // nil when there is no prior year or its total is zero
}

// MonthlyRevenueYoY groups billing by (year, month) and computes the
// percent change against the same calendar month one year prior.
func MonthlyRevenueYoY(m *star.Model) []RevenueYoYRow {
	type ym struct{ year, month int }
	totals := make(map[ym]float64)
	for i := range m.Facts {
		d := m.Facts[i].AdmissionDate
		totals[ym{d.Year(), int(d.Month())}] += m.Facts[i].Billing
	}

	keys := make([]ym, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	rows := make([]RevenueYoYRow, 0, len(keys))
	for _, k := range keys {
		row := RevenueYoYRow{Year: k.year, Month: k.month, Revenue: round2(totals[k])}
		if prior, ok := totals[ym{k.year - 1, k.month}]; ok && prior != 0 {
			delta := round2((totals[k] - prior) / prior * 100)
			row.PctChange = &delta
		}
		rows = append(rows, row)
	}
	return rows
}

func revenueYoYTable(m *star.Model) Table {
	t := Table{
		Name:    "monthly-revenue-yoy",
		Columns: []string{"year", "month", "revenue", "yoy_pct_change"},
	}
	for _, r := range MonthlyRevenueYoY(m) {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Year), strconv.Itoa(r.Month),
			fmtMoney(r.Revenue), fmtOptPct(r.PctChange),
		})
	}
	return t
}

// InsurerRevenueRow is one insurance provider's billing totals.
type InsurerRevenueRow struct {
	Insurer    string
	Admissions int
	Revenue    float64
	Share      float64 // percent of overall revenue
}

// InsurerRevenue totals billing per insurance provider, ordered by
// revenue descending.
func InsurerRevenue(m *star.Model) []InsurerRevenueRow {
	totals := make(map[int32]float64)
	counts := make(map[int32]int)
	var overall float64
	for i := range m.Facts {
		id := m.Facts[i].InsurerID
		totals[id] += m.Facts[i].Billing
		counts[id]++
		overall += m.Facts[i].Billing
	}

	rows := make([]InsurerRevenueRow, 0, len(totals))
	for id, total := range totals {
		share := 0.0
		if overall > 0 {
			share = round2(total / overall * 100)
		}
		rows = append(rows, InsurerRevenueRow{
			Insurer:    m.Insurer(id).Name,
			Admissions: counts[id],
			Revenue:    round2(total),
			Share:      share,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].Insurer < rows[j].Insurer
	})
	return rows
}

func insurerRevenueTable(m *star.Model) Table {
	t := Table{
		Name:    "insurer-revenue",
		Columns: []string{"insurance_provider", "admissions", "revenue", "revenue_share_pct"},
	}
	for _, r := range InsurerRevenue(m) {
		t.Rows = append(t.Rows, []string{
			r.Insurer, strconv.Itoa(r.Admissions), fmtMoney(r.Revenue), fmtPct(r.Share),
		})
	}
	return t
}
