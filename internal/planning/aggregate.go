package planning

import (
	"sort"

	appErr "github.com/bimflow/engine/pkg/errors"
)

// Container is the planning view of a single information deliverable.
// TeamName and Discipline are the denormalized copies taken from the
// parent TIDP, never back-references into it.
type Container struct {
	ID                 string
	Name               string
	Author             string
	LOIN               string
	Format             string
	Milestone          string
	DueDate            string
	EstimatedTime      string
	AcceptanceCriteria string
	Status             string
	Dependencies       []string
	TeamName           string
	Discipline         string
}

// TIDP is the planning view of one task team's delivery plan.
type TIDP struct {
	ID         string
	TeamName   string
	Discipline string
	Leader     string
	Containers []Container
}

// SourceRef identifies the TIDP a container was aggregated from. The JSON
// field names are load-bearing: exports and dashboards key off them.
type SourceRef struct {
	TeamName   string `json:"teamName"`
	Discipline string `json:"discipline"`
}

// AggregatedContainer is a container as it appears inside a MIDP's
// aggregated dataset.
type AggregatedContainer struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Author             string    `json:"author,omitempty"`
	LOIN               string    `json:"loin,omitempty"`
	Format             string    `json:"format,omitempty"`
	AcceptanceCriteria string    `json:"acceptanceCriteria,omitempty"`
	Milestone          string    `json:"milestone"`
	DueDate            string    `json:"dueDate"`
	EstimatedTime      string    `json:"estimatedTime"`
	EstimatedHours     float64   `json:"estimatedHours"`
	Status             string    `json:"status"`
	Dependencies       []string  `json:"dependencies,omitempty"`
	TIDPSource         SourceRef `json:"tidpSource"`
}

// GroupTotals accumulates counts and hours for one milestone, discipline
// or team bucket.
type GroupTotals struct {
	Containers     int     `json:"containers"`
	EstimatedHours float64 `json:"estimatedHours"`
	Teams          int     `json:"teams"`
}

// AggregatedData is the full computed dataset stored on a MIDP. It is
// rebuilt wholesale on every aggregation; nothing in it is hand-edited.
type AggregatedData struct {
	TotalContainers     int                    `json:"totalContainers"`
	TotalEstimatedHours float64                `json:"totalEstimatedHours"`
	CompletedContainers int                    `json:"completedContainers"`
	Disciplines         []string               `json:"disciplines"`
	MilestoneOrder      []string               `json:"milestoneOrder"`
	ByMilestone         map[string]GroupTotals `json:"byMilestone"`
	ByDiscipline        map[string]GroupTotals `json:"byDiscipline"`
	ByTeam              map[string]GroupTotals `json:"byTeam"`
	Containers          []AggregatedContainer  `json:"containers"`
}

// Aggregate flattens the containers of the given TIDPs into one dataset:
// totals, per-milestone/discipline/team groupings and the ordered
// container list. Container order is source TIDP order then authoring
// order — stable across runs, so aggregating twice over unchanged input
// yields identical output.
//
// Returns CodeEmptyProject when the TIDP set resolves to zero containers;
// the caller decides whether that is fatal.
func Aggregate(tidps []TIDP) (*AggregatedData, error) {
	agg := &AggregatedData{
		Disciplines:    []string{},
		MilestoneOrder: []string{},
		ByMilestone:    map[string]GroupTotals{},
		ByDiscipline:   map[string]GroupTotals{},
		ByTeam:         map[string]GroupTotals{},
		Containers:     []AggregatedContainer{},
	}

	milestoneSeen := map[string]bool{}
	teamsPerMilestone := map[string]map[string]bool{}
	teamsPerDiscipline := map[string]map[string]bool{}

	for _, t := range tidps {
		for _, c := range t.Containers {
			hours, _ := ParseHours(c.EstimatedTime)

			ac := AggregatedContainer{
				ID:                 c.ID,
				Name:               c.Name,
				Author:             c.Author,
				LOIN:               c.LOIN,
				Format:             c.Format,
				AcceptanceCriteria: c.AcceptanceCriteria,
				Milestone:          c.Milestone,
				DueDate:            c.DueDate,
				EstimatedTime:      c.EstimatedTime,
				EstimatedHours:     hours,
				Status:             c.Status,
				Dependencies:       append([]string(nil), c.Dependencies...),
				TIDPSource:         SourceRef{TeamName: c.TeamName, Discipline: c.Discipline},
			}
			agg.Containers = append(agg.Containers, ac)

			agg.TotalContainers++
			agg.TotalEstimatedHours += hours
			if c.Status == "Completed" || c.Status == "Approved" {
				agg.CompletedContainers++
			}

			if !milestoneSeen[c.Milestone] {
				milestoneSeen[c.Milestone] = true
				agg.MilestoneOrder = append(agg.MilestoneOrder, c.Milestone)
			}

			bumpGroup(agg.ByMilestone, c.Milestone, hours)
			bumpGroup(agg.ByDiscipline, c.Discipline, hours)
			bumpGroup(agg.ByTeam, c.TeamName, hours)
			markTeam(teamsPerMilestone, c.Milestone, c.TeamName)
			markTeam(teamsPerDiscipline, c.Discipline, c.TeamName)
		}
	}

	if agg.TotalContainers == 0 {
		return nil, appErr.New(appErr.CodeEmptyProject, "no containers to aggregate for project")
	}

	for m, teams := range teamsPerMilestone {
		g := agg.ByMilestone[m]
		g.Teams = len(teams)
		agg.ByMilestone[m] = g
	}
	for d, teams := range teamsPerDiscipline {
		g := agg.ByDiscipline[d]
		g.Teams = len(teams)
		agg.ByDiscipline[d] = g
	}
	for team, g := range agg.ByTeam {
		g.Teams = 1
		agg.ByTeam[team] = g
	}

	for d := range agg.ByDiscipline {
		agg.Disciplines = append(agg.Disciplines, d)
	}
	sort.Strings(agg.Disciplines)

	return agg, nil
}

func bumpGroup(m map[string]GroupTotals, key string, hours float64) {
	g := m[key]
	g.Containers++
	g.EstimatedHours += hours
	m[key] = g
}

func markTeam(m map[string]map[string]bool, key, team string) {
	if m[key] == nil {
		m[key] = map[string]bool{}
	}
	m[key][team] = true
}
