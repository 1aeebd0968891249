// Package report computes the fixed battery of analytical questions over
// a normalized admission model. Every report is a pure function of the
// model: no I/O, no shared state, deterministic output for a given input.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"admittool/internal/star"
)

// Table is the render-ready form of one report: named columns and
// stringified rows, in presentation order.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Render writes the table as aligned text.
func (t Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== %s ==\n", t.Name)
	for i, c := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Definition names one report in the battery and knows how to build it.
type Definition struct {
	Name        string
	Description string
	Build       func(*star.Model) Table
}

// Battery is the full set of reports in presentation order.
var Battery = []Definition{
	{
		Name:        "age-groups",
		Description: "Admission count and share per age group",
		Build:       ageGroupTable,
	},
	{
		Name:        "unique-patient-age-groups",
		Description: "Unique patients per age group, bucketed at first admission",
		Build:       uniquePatientAgeGroupTable,
	},
	{
		Name:        "gender-breakdown",
		Description: "Unique patient count per gender",
		Build:       genderTable,
	},
	{
		Name:        "billing-outliers",
		Description: "Per-condition billing z-scores with outlier flags",
		Build:       billingOutlierTable,
	},
	{
		Name:        "monthly-revenue-yoy",
		Description: "Monthly billing totals with year-over-year percent change",
		Build:       revenueYoYTable,
	},
	{
		Name:        "doctor-billing-rank",
		Description: "Doctors ranked by average billing within each condition",
		Build:       doctorRankTable,
	},
	{
		Name:        "medication-usage-rank",
		Description: "Medications ranked by prescription count within each condition",
		Build:       medicationRankTable,
	},
	{
		Name:        "repeat-visits",
		Description: "Population share of one-time, two-visit and 3+ visit patients",
		Build:       repeatVisitTable,
	},
	{
		Name:        "stay-by-admission-type",
		Description: "Average length of stay per admission type",
		Build:       stayByTypeTable,
	},
	{
		Name:        "test-results-by-condition",
		Description: "Test result breakdown per condition",
		Build:       testResultTable,
	},
	{
		Name:        "insurer-revenue",
		Description: "Billing totals and revenue share per insurance provider",
		Build:       insurerRevenueTable,
	},
	{
		Name:        "readmissions-30d",
		Description: "30-day readmission rate per condition",
		Build:       readmissionTable,
	},
}

// Find returns the definition for a report name, or nil.
func Find(name string) *Definition {
	for i := range Battery {
		if Battery[i].Name == name {
			return &Battery[i]
		}
	}
	return nil
}

// round2 rounds to two decimal places, the precision every percentage
// and currency column reports at.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func fmtMoney(f float64) string { return fmt.Sprintf("%.2f", f) }

func fmtPct(f float64) string { return fmt.Sprintf("%.2f", f) }

// fmtOptPct renders an undefined percentage as n/a rather than zero.
func fmtOptPct(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}

// sortedConditionIDs returns condition surrogate IDs ordered by name, the
// presentation order for every per-condition report.
func sortedConditionIDs(m *star.Model) []int32 {
	ids := make([]int32, len(m.Conditions))
	for i, c := range m.Conditions {
		ids[i] = c.ID
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.Condition(ids[i]).Name < m.Condition(ids[j]).Name
	})
	return ids
}
