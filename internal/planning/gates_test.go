package planning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveQualityGates(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	gates := DeriveQualityGates(agg)
	require.Len(t, gates, 2)

	require.Equal(t, "Stage 2", gates[0].Milestone)
	require.Empty(t, gates[0].DependsOn)
	require.InDelta(t, 80, gates[0].EstimatedHours, 1e-9)

	require.Equal(t, "Stage 3", gates[1].Milestone)
	require.Equal(t, []string{"Stage 2"}, gates[1].DependsOn)
	require.InDelta(t, 64, gates[1].EstimatedHours, 1e-9)

	require.Contains(t, gates[0].Criteria[0], "1 information containers")
	require.Equal(t, []string{"Information Manager", "Lead Appointed Party"}, gates[0].Approvers)
}

func TestDeriveRiskRegisterConcentration(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	// Architecture holds 120 of 144 hours
	reg := DeriveRiskRegister(agg)

	var titles []string
	for _, r := range reg.Risks {
		titles = append(titles, r.Title)
	}
	require.Contains(t, titles, "Workload concentration in Architecture")
	require.Equal(t, reg.Summary.Total, len(reg.Risks))
	require.GreaterOrEqual(t, reg.Summary.High, 1)
}

func TestDeriveRiskRegisterUnscheduledAndDangling(t *testing.T) {
	tidps := []TIDP{{
		TeamName:   "Team",
		Discipline: "Architecture",
		Containers: []Container{
			{ID: "A", Name: "A", Milestone: "S", DueDate: "tbd", EstimatedTime: "1 day"},
			{ID: "B", Name: "B", Milestone: "S", DueDate: "2026-02-01", Dependencies: []string{"MISSING"}},
		},
	}}
	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	reg := DeriveRiskRegister(agg)

	var titles []string
	for _, r := range reg.Risks {
		titles = append(titles, r.Title)
	}
	require.Contains(t, titles, "Unscheduled deliverables")
	require.Contains(t, titles, "Unresolved dependency references")
}

func TestDeriveRiskRegisterMilestoneCongestion(t *testing.T) {
	var containers []Container
	for i := 0; i < 10; i++ {
		containers = append(containers, Container{
			ID: string(rune('A' + i)), Name: "c", Milestone: "Stage 4",
			DueDate: "2026-06-01", EstimatedTime: "1 day",
		})
	}
	tidps := []TIDP{{TeamName: "Team", Discipline: "Architecture", Containers: containers}}

	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	reg := DeriveRiskRegister(agg)
	var found bool
	for _, r := range reg.Risks {
		if r.Category == "schedule" && r.Severity == "Medium" && r.Title == `Milestone congestion at "Stage 4"` {
			found = true
		}
	}
	require.True(t, found)
}
