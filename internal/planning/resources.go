package planning

import (
	"fmt"
	"sort"
)

// Granularity selects the time-period bucket for resource planning.
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// periodUnscheduled buckets containers whose due date cannot be parsed;
// they still count toward the plan totals.
const periodUnscheduled = "unscheduled"

// DisciplineAllocation sums effort for one discipline.
type DisciplineAllocation struct {
	Teams          int     `json:"teams"`
	Containers     int     `json:"containers"`
	EstimatedHours float64 `json:"estimatedHours"`
}

// PeriodAllocation sums effort for one time-period bucket.
type PeriodAllocation struct {
	Containers     int     `json:"containers"`
	EstimatedHours float64 `json:"estimatedHours"`
	Disciplines    int     `json:"disciplines"`
}

// PeakUtilization is the single busiest period bucket.
type PeakUtilization struct {
	Period         string  `json:"period"`
	EstimatedHours float64 `json:"estimatedHours"`
	Disciplines    int     `json:"disciplines"`
}

// Recommendation is advisory output; the planner never mutates the MIDP.
type Recommendation struct {
	Priority string `json:"priority"`
	Target   string `json:"target"`
	Message  string `json:"message"`
}

// ResourcePlan is the discipline/period effort breakdown for a MIDP.
type ResourcePlan struct {
	Granularity     string                          `json:"granularity"`
	ByDiscipline    map[string]DisciplineAllocation `json:"byDiscipline"`
	ByTimePeriod    map[string]PeriodAllocation     `json:"byTimePeriod"`
	PeakUtilization *PeakUtilization                `json:"peakUtilization,omitempty"`
	Recommendations []Recommendation                `json:"recommendations"`
}

// PlanResources buckets aggregated containers by discipline and,
// independently, by a due-date period key. Every container lands in
// exactly one discipline bucket and exactly one period bucket, so both
// groupings sum to the aggregation's total hours.
func PlanResources(agg *AggregatedData, granularity Granularity) *ResourcePlan {
	if granularity != GranularityMonth {
		granularity = GranularityWeek
	}

	plan := &ResourcePlan{
		Granularity:     string(granularity),
		ByDiscipline:    map[string]DisciplineAllocation{},
		ByTimePeriod:    map[string]PeriodAllocation{},
		Recommendations: []Recommendation{},
	}

	teamsPerDiscipline := map[string]map[string]bool{}
	disciplinesPerPeriod := map[string]map[string]bool{}

	for i := range agg.Containers {
		c := &agg.Containers[i]

		d := plan.ByDiscipline[c.TIDPSource.Discipline]
		d.Containers++
		d.EstimatedHours += c.EstimatedHours
		plan.ByDiscipline[c.TIDPSource.Discipline] = d
		markTeam(teamsPerDiscipline, c.TIDPSource.Discipline, c.TIDPSource.TeamName)

		period := periodKey(c.DueDate, granularity)
		p := plan.ByTimePeriod[period]
		p.Containers++
		p.EstimatedHours += c.EstimatedHours
		plan.ByTimePeriod[period] = p
		markTeam(disciplinesPerPeriod, period, c.TIDPSource.Discipline)
	}

	for disc, teams := range teamsPerDiscipline {
		d := plan.ByDiscipline[disc]
		d.Teams = len(teams)
		plan.ByDiscipline[disc] = d
	}
	for period, discs := range disciplinesPerPeriod {
		p := plan.ByTimePeriod[period]
		p.Disciplines = len(discs)
		plan.ByTimePeriod[period] = p
	}

	plan.PeakUtilization = findPeak(plan.ByTimePeriod)
	plan.Recommendations = recommend(agg, plan)
	return plan
}

// periodKey derives the bucket key for a due date: ISO week ("2026-W05")
// or calendar month ("2026-01"). Unparsable dates land in the
// unscheduled bucket.
func periodKey(dueDate string, granularity Granularity) string {
	t, ok := parseDate(dueDate)
	if !ok {
		return periodUnscheduled
	}
	if granularity == GranularityMonth {
		return t.Format("2006-01")
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// findPeak picks the scheduled period with the highest hours; ties break
// toward the earliest period key so output is deterministic.
func findPeak(periods map[string]PeriodAllocation) *PeakUtilization {
	var peak *PeakUtilization
	keys := make([]string, 0, len(periods))
	for k := range periods {
		if k != periodUnscheduled {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := periods[k]
		if peak == nil || p.EstimatedHours > peak.EstimatedHours {
			peak = &PeakUtilization{Period: k, EstimatedHours: p.EstimatedHours, Disciplines: p.Disciplines}
		}
	}
	return peak
}

// recommend applies the fixed workload thresholds: a discipline holding
// over 40% of total hours, and any period exceeding 1.5x the mean period
// load.
func recommend(agg *AggregatedData, plan *ResourcePlan) []Recommendation {
	recs := []Recommendation{}

	if agg.TotalEstimatedHours > 0 && len(plan.ByDiscipline) > 1 {
		discs := make([]string, 0, len(plan.ByDiscipline))
		for d := range plan.ByDiscipline {
			discs = append(discs, d)
		}
		sort.Strings(discs)
		for _, d := range discs {
			share := plan.ByDiscipline[d].EstimatedHours / agg.TotalEstimatedHours
			if share > 0.4 {
				recs = append(recs, Recommendation{
					Priority: "High",
					Target:   d,
					Message:  fmt.Sprintf("Rebalance workload: %s carries %.0f%% of total estimated hours", d, share*100),
				})
			}
		}
	}

	if n := len(plan.ByTimePeriod); n > 1 {
		mean := 0.0
		for _, p := range plan.ByTimePeriod {
			mean += p.EstimatedHours
		}
		mean /= float64(n)

		periods := make([]string, 0, n)
		for k := range plan.ByTimePeriod {
			periods = append(periods, k)
		}
		sort.Strings(periods)
		for _, k := range periods {
			if p := plan.ByTimePeriod[k]; mean > 0 && p.EstimatedHours > 1.5*mean {
				recs = append(recs, Recommendation{
					Priority: "Medium",
					Target:   k,
					Message:  fmt.Sprintf("Schedule review: period %s is loaded at %.0f hours against a %.0f hour average", k, p.EstimatedHours, mean),
				})
			}
		}
	}

	return recs
}
