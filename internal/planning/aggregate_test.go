package planning

import (
	"testing"

	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/stretchr/testify/require"
)

// twoTeamPlan is the shared fixture: an architecture team and a structural
// team with a cross-team dependency chain.
func twoTeamPlan() []TIDP {
	return []TIDP{
		{
			ID:         "t-arch",
			TeamName:   "Architecture Team",
			Discipline: "Architecture",
			Containers: []Container{
				{
					ID:            "ARC-001",
					Name:          "Site plan",
					Author:        "A. Mason",
					Milestone:     "Stage 2",
					DueDate:       "2026-03-01",
					EstimatedTime: "2 weeks",
					Status:        "In Progress",
				},
				{
					ID:            "ARC-002",
					Name:          "Floor plans",
					Author:        "A. Mason",
					Milestone:     "Stage 3",
					DueDate:       "2026-04-01",
					EstimatedTime: "1 week",
					Status:        "Planned",
					Dependencies:  []string{"ARC-001"},
				},
			},
		},
		{
			ID:         "t-str",
			TeamName:   "Structural Team",
			Discipline: "Structural",
			Containers: []Container{
				{
					ID:            "STR-001",
					Name:          "Framing model",
					Author:        "B. Chen",
					Milestone:     "Stage 3",
					DueDate:       "2026-04-15",
					EstimatedTime: "3 days",
					Status:        "Completed",
					Dependencies:  []string{"ARC-001"},
				},
			},
		},
	}
}

func TestAggregateTotals(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	require.Equal(t, 3, agg.TotalContainers)
	require.InDelta(t, 80+40+24, agg.TotalEstimatedHours, 1e-9)
	require.Equal(t, 1, agg.CompletedContainers)
}

func TestAggregateMilestoneOrderIsFirstAppearance(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	require.Equal(t, []string{"Stage 2", "Stage 3"}, agg.MilestoneOrder)

	stage3 := agg.ByMilestone["Stage 3"]
	require.Equal(t, 2, stage3.Containers)
	require.Equal(t, 2, stage3.Teams)
	require.InDelta(t, 64, stage3.EstimatedHours, 1e-9)
}

func TestAggregateDisciplinesSorted(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	require.Equal(t, []string{"Architecture", "Structural"}, agg.Disciplines)
	require.Equal(t, 1, agg.ByDiscipline["Structural"].Containers)
	require.Equal(t, 1, agg.ByTeam["Architecture Team"].Teams)
}

func TestAggregateCarriesSourceRef(t *testing.T) {
	agg, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)

	require.Len(t, agg.Containers, 3)
	last := agg.Containers[2]
	require.Equal(t, "STR-001", last.ID)
	require.Equal(t, "Structural Team", last.TIDPSource.TeamName)
	require.Equal(t, "Structural", last.TIDPSource.Discipline)
}

func TestAggregateUnparsableEstimateCountsZeroHours(t *testing.T) {
	tidps := []TIDP{{
		TeamName:   "Team",
		Discipline: "MEP",
		Containers: []Container{
			{ID: "MEP-001", Name: "Duct layout", EstimatedTime: "bananas", Milestone: "Stage 4"},
			{ID: "MEP-002", Name: "Pipe routing", EstimatedTime: "5 hours", Milestone: "Stage 4"},
		},
	}}
	agg, err := Aggregate(tidps)
	require.NoError(t, err)
	require.InDelta(t, 5, agg.TotalEstimatedHours, 1e-9)
	require.InDelta(t, 0, agg.Containers[0].EstimatedHours, 1e-9)
}

func TestAggregateEmptyProject(t *testing.T) {
	_, err := Aggregate(nil)
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeEmptyProject))

	_, err = Aggregate([]TIDP{{TeamName: "Empty", Discipline: "Architecture"}})
	require.True(t, appErr.IsCode(err, appErr.CodeEmptyProject))
}

func TestAggregateIsDeterministic(t *testing.T) {
	a, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)
	b, err := Aggregate(twoTeamPlan())
	require.NoError(t, err)
	require.Equal(t, a, b)
}
