package planning

import "sort"

// Edge is one derived deliverable-to-deliverable dependency. Edges are
// recomputed from container predecessor lists on every query, never
// stored.
type Edge struct {
	FromContainerID string `json:"fromContainerId"`
	ToContainerID   string `json:"toContainerId"`
	FromTeam        string `json:"fromTeam"`
	ToTeam          string `json:"toTeam"`
	Critical        bool   `json:"critical"`
}

// GraphSummary aggregates the edge list for dashboard display.
type GraphSummary struct {
	TotalDependencies     int `json:"totalDependencies"`
	CrossTeamDependencies int `json:"crossTeamDependencies"`
	CriticalDependencies  int `json:"criticalDependencies"`
	TeamsInvolved         int `json:"teamsInvolved"`
}

// DependencyMatrix is the full derived graph: the edge list, a square
// team-by-team grid (grid[targetTeam][sourceTeam] = edge count) and a
// summary.
type DependencyMatrix struct {
	Edges   []Edge                    `json:"edges"`
	Teams   []string                  `json:"teams"`
	Grid    map[string]map[string]int `json:"grid"`
	Summary GraphSummary              `json:"summary"`
}

// BuildDependencyMatrix derives the dependency graph of an aggregated
// container set. Predecessor references that do not resolve inside the
// aggregation (dangling, user-authored) are dropped silently. An edge is
// marked critical when its target sits in the project's last milestone by
// declared stage order.
func BuildDependencyMatrix(agg *AggregatedData) *DependencyMatrix {
	byID := containerIndex(agg)

	lastMilestone := ""
	if n := len(agg.MilestoneOrder); n > 0 {
		lastMilestone = agg.MilestoneOrder[n-1]
	}

	teams := make([]string, 0, len(agg.ByTeam))
	for team := range agg.ByTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	grid := make(map[string]map[string]int, len(teams))
	for _, target := range teams {
		row := make(map[string]int, len(teams))
		for _, source := range teams {
			row[source] = 0
		}
		grid[target] = row
	}

	m := &DependencyMatrix{Edges: []Edge{}, Teams: teams, Grid: grid}
	teamsInvolved := map[string]bool{}

	for i := range agg.Containers {
		target := &agg.Containers[i]
		for _, depID := range target.Dependencies {
			source, ok := byID[depID]
			if !ok || depID == target.ID {
				continue
			}

			e := Edge{
				FromContainerID: source.ID,
				ToContainerID:   target.ID,
				FromTeam:        source.TIDPSource.TeamName,
				ToTeam:          target.TIDPSource.TeamName,
				Critical:        lastMilestone != "" && target.Milestone == lastMilestone,
			}
			m.Edges = append(m.Edges, e)

			m.Summary.TotalDependencies++
			if e.Critical {
				m.Summary.CriticalDependencies++
			}
			grid[e.ToTeam][e.FromTeam]++
			if e.FromTeam != e.ToTeam {
				m.Summary.CrossTeamDependencies++
			}
			teamsInvolved[e.FromTeam] = true
			teamsInvolved[e.ToTeam] = true
		}
	}

	m.Summary.TeamsInvolved = len(teamsInvolved)
	return m
}

// containerIndex builds the id -> container lookup used to resolve
// predecessor references. First occurrence wins on duplicate ids.
func containerIndex(agg *AggregatedData) map[string]*AggregatedContainer {
	byID := make(map[string]*AggregatedContainer, len(agg.Containers))
	for i := range agg.Containers {
		c := &agg.Containers[i]
		if _, exists := byID[c.ID]; !exists {
			byID[c.ID] = c
		}
	}
	return byID
}
