package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func analysisTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return ts
}

// chainPlan builds A -> B -> C (B depends on A, C depends on B) with A
// overdue.
func chainPlan() []TIDP {
	return []TIDP{{
		TeamName:   "Architecture Team",
		Discipline: "Architecture",
		Containers: []Container{
			{ID: "A", Name: "A", Milestone: "Stage 2", DueDate: "2026-01-10", Status: "In Progress"},
			{ID: "B", Name: "B", Milestone: "Stage 3", DueDate: "2026-02-01", Status: "Planned", Dependencies: []string{"A"}},
			{ID: "C", Name: "C", Milestone: "Stage 4", DueDate: "2026-03-01", Status: "Planned", Dependencies: []string{"B"}},
		},
	}}
}

func TestCascadingImpactChain(t *testing.T) {
	agg, err := Aggregate(chainPlan())
	require.NoError(t, err)

	// 5 days after A's due date
	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-15"))

	require.Equal(t, 1, a.LateContainerCount)
	require.Equal(t, 2, a.TotalAffected)
	require.Len(t, a.Impacts, 1)

	impact := a.Impacts[0]
	require.Equal(t, "A", impact.LateContainer.ID)
	require.Equal(t, 5, impact.LateContainer.DelayDays)
	require.Equal(t, 2, impact.AffectedContainers)

	// depth 1 keeps the source delay, each hop past it adds one day
	require.Equal(t, "B", impact.Cascade[0].ContainerID)
	require.Equal(t, 1, impact.Cascade[0].Depth)
	require.Equal(t, 5, impact.Cascade[0].PropagatedDelay)
	require.Equal(t, "C", impact.Cascade[1].ContainerID)
	require.Equal(t, 2, impact.Cascade[1].Depth)
	require.Equal(t, 6, impact.Cascade[1].PropagatedDelay)
}

func TestCascadingImpactCycleTerminates(t *testing.T) {
	tidps := []TIDP{{
		TeamName:   "Team",
		Discipline: "Architecture",
		Containers: []Container{
			{ID: "A", Name: "A", Milestone: "S", DueDate: "2026-01-10", Status: "Planned", Dependencies: []string{"C"}},
			{ID: "B", Name: "B", Milestone: "S", DueDate: "2026-02-01", Status: "Planned", Dependencies: []string{"A"}},
			{ID: "C", Name: "C", Milestone: "S", DueDate: "2026-03-01", Status: "Planned", Dependencies: []string{"B"}},
		},
	}}
	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-15"))
	require.Equal(t, 1, a.LateContainerCount)
	// every node is visited exactly once despite the cycle
	require.Equal(t, 2, a.Impacts[0].AffectedContainers)
}

func TestCascadingImpactCompletedIsNeverLate(t *testing.T) {
	tidps := chainPlan()
	tidps[0].Containers[0].Status = "Completed"

	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-15"))
	require.Equal(t, 0, a.LateContainerCount)
	require.Empty(t, a.Impacts)
	require.Equal(t, SeverityLow, a.OverallSeverity)
}

func TestCascadingImpactUnparsableDueDateIsNotLate(t *testing.T) {
	tidps := chainPlan()
	tidps[0].Containers[0].DueDate = "sometime soon"

	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-15"))
	require.Equal(t, 0, a.LateContainerCount)
}

func TestSeverityThresholds(t *testing.T) {
	cases := []struct {
		delay, affected int
		want            string
	}{
		{14, 0, SeverityCritical},
		{0, 10, SeverityCritical},
		{7, 0, SeverityHigh},
		{0, 5, SeverityHigh},
		{3, 0, SeverityMedium},
		{0, 2, SeverityMedium},
		{2, 1, SeverityLow},
		{0, 0, SeverityLow},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, severityFor(tc.delay, tc.affected), "delay=%d affected=%d", tc.delay, tc.affected)
	}
}

func TestOverallSeverityIsWorstImpact(t *testing.T) {
	tidps := []TIDP{{
		TeamName:   "Team",
		Discipline: "Architecture",
		Containers: []Container{
			// 20 days late at analysis time
			{ID: "A", Name: "A", Milestone: "S", DueDate: "2026-01-01", Status: "Planned"},
			// 2 days late, no dependents
			{ID: "B", Name: "B", Milestone: "S", DueDate: "2026-01-19", Status: "Planned"},
		},
	}}
	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-21"))
	require.Equal(t, 2, a.LateContainerCount)
	require.Equal(t, SeverityCritical, a.OverallSeverity)
}

func TestSuggestionsForWideImpact(t *testing.T) {
	containers := []Container{
		{ID: "ROOT", Name: "Root", Milestone: "S", DueDate: "2026-01-01", Status: "Planned"},
	}
	for _, dep := range []struct{ id, disc string }{
		{"D1", "Architecture"}, {"D2", "Structural"}, {"D3", "MEP"}, {"D4", "MEP"}, {"D5", "Civil"},
	} {
		containers = append(containers, Container{
			ID: dep.id, Name: dep.id, Milestone: "S", DueDate: "2026-06-01",
			Status: "Planned", Dependencies: []string{"ROOT"},
		})
	}
	// give each dependent its own discipline via separate TIDPs
	tidps := []TIDP{}
	for i, c := range containers {
		disc := "Architecture"
		switch {
		case i >= 5:
			disc = "Civil"
		case i >= 3:
			disc = "MEP"
		case i >= 2:
			disc = "Structural"
		}
		tidps = append(tidps, TIDP{TeamName: "Team " + c.ID, Discipline: disc, Containers: []Container{c}})
	}

	agg, err := Aggregate(tidps)
	require.NoError(t, err)

	a := AnalyzeCascadingImpact(agg, analysisTime(t, "2026-01-11"))
	require.Equal(t, 1, a.LateContainerCount)
	impact := a.Impacts[0]
	require.Equal(t, 5, impact.AffectedContainers)
	require.GreaterOrEqual(t, len(impact.AffectedDisciplines), 3)

	require.Contains(t, impact.Suggestions[0], "fast-tracking")
	joined := ""
	for _, s := range impact.Suggestions {
		joined += s + "\n"
	}
	require.Contains(t, joined, "coordination meeting")
	require.Contains(t, joined, "Escalate")
	require.Contains(t, joined, "Notify affected task teams")
}
