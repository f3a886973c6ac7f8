package planning

import (
	"math"
	"time"
)

// Snapshot is one immutable record of a MIDP's aggregated totals.
type Snapshot struct {
	TakenAt             time.Time `json:"takenAt"`
	TotalContainers     int       `json:"totalContainers"`
	TotalEstimatedHours float64   `json:"totalEstimatedHours"`
	CompletedContainers int       `json:"completedContainers"`
}

// Velocity is the rate of container growth between the first and last
// snapshot.
type Velocity struct {
	ContainersPerDay     float64 `json:"containersPerDay"`
	ContainersPerWeek    float64 `json:"containersPerWeek"`
	PeriodDays           float64 `json:"periodDays"`
	TotalContainerGrowth int     `json:"totalContainerGrowth"`
}

// HourDrift tracks how the estimated-hours total moves over time.
type HourDrift struct {
	DriftPerDay     float64 `json:"driftPerDay"`
	TotalHourGrowth float64 `json:"totalHourGrowth"`
}

// Projection is the naive linear completion estimate.
type Projection struct {
	ProjectedCompletionDate time.Time `json:"projectedCompletionDate"`
	RemainingContainers     int       `json:"remainingContainers"`
	DaysToComplete          int       `json:"daysToComplete"`
}

// TrendReport is the trend analysis over a MIDP's snapshot history.
// Projection is nil when velocity is zero or negative: a meaningless rate
// fails closed to "unknown" instead of producing a nonsense date.
type TrendReport struct {
	InsufficientData bool        `json:"insufficientData,omitempty"`
	SnapshotCount    int         `json:"snapshotCount"`
	Velocity         *Velocity   `json:"velocity,omitempty"`
	HourDrift        *HourDrift  `json:"hourDrift,omitempty"`
	Projection       *Projection `json:"projection,omitempty"`
}

// ProjectTrends computes velocity, hour drift and a completion projection
// from a time-ascending snapshot series. Fewer than two snapshots, or two
// snapshots with no elapsed time between them, report insufficient data
// rather than guessing.
func ProjectTrends(snapshots []Snapshot) *TrendReport {
	report := &TrendReport{SnapshotCount: len(snapshots)}
	if len(snapshots) < 2 {
		report.InsufficientData = true
		return report
	}

	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	days := last.TakenAt.Sub(first.TakenAt).Hours() / 24
	if days <= 0 {
		report.InsufficientData = true
		return report
	}

	containerGrowth := last.TotalContainers - first.TotalContainers
	perDay := float64(containerGrowth) / days

	report.Velocity = &Velocity{
		ContainersPerDay:     perDay,
		ContainersPerWeek:    perDay * 7,
		PeriodDays:           days,
		TotalContainerGrowth: containerGrowth,
	}
	report.HourDrift = &HourDrift{
		DriftPerDay:     (last.TotalEstimatedHours - first.TotalEstimatedHours) / days,
		TotalHourGrowth: last.TotalEstimatedHours - first.TotalEstimatedHours,
	}

	if perDay > 0 {
		remaining := last.TotalContainers - last.CompletedContainers
		if remaining < 0 {
			remaining = 0
		}
		daysToComplete := int(math.Ceil(float64(remaining) / perDay))
		report.Projection = &Projection{
			ProjectedCompletionDate: last.TakenAt.AddDate(0, 0, daysToComplete),
			RemainingContainers:     remaining,
			DaysToComplete:          daysToComplete,
		}
	}

	return report
}
