package planning

import (
	"sort"
	"time"
)

// Severity levels for cascading impact, ordered weakest to strongest.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// LateContainer describes the overdue deliverable at the root of an
// impact chain.
type LateContainer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TIDPName   string `json:"tidpName"`
	Discipline string `json:"discipline"`
	DueDate    string `json:"dueDate"`
	DelayDays  int    `json:"delayDays"`
}

// CascadeItem is one downstream deliverable reached from a late container.
type CascadeItem struct {
	ContainerID     string `json:"containerId"`
	ContainerName   string `json:"containerName"`
	TIDPName        string `json:"tidpName"`
	Discipline      string `json:"discipline"`
	Depth           int    `json:"depth"`
	PropagatedDelay int    `json:"propagatedDelay"`
	DueDate         string `json:"dueDate"`
}

// Impact is the full downstream picture for one late container.
type Impact struct {
	LateContainer       LateContainer `json:"lateContainer"`
	Severity            string        `json:"severity"`
	AffectedContainers  int           `json:"affectedContainers"`
	Cascade             []CascadeItem `json:"cascade"`
	AffectedDisciplines []string      `json:"affectedDisciplines"`
	Suggestions         []string      `json:"suggestions"`
}

// ImpactAnalysis is the result of one cascading-impact pass.
type ImpactAnalysis struct {
	AnalysisDate       time.Time `json:"analysisDate"`
	LateContainerCount int       `json:"lateContainerCount"`
	TotalAffected      int       `json:"totalAffected"`
	OverallSeverity    string    `json:"overallSeverity"`
	Impacts            []Impact  `json:"impacts"`
}

// AnalyzeCascadingImpact finds containers overdue at `now` and walks the
// dependency graph downstream of each, computing propagated delay per
// node. Zero late containers is a successful "no impact" result with
// overall severity Low, not an error.
func AnalyzeCascadingImpact(agg *AggregatedData, now time.Time) *ImpactAnalysis {
	result := &ImpactAnalysis{
		AnalysisDate:    now,
		OverallSeverity: SeverityLow,
		Impacts:         []Impact{},
	}

	// successor adjacency: container id -> containers that depend on it
	byID := containerIndex(agg)
	successors := map[string][]*AggregatedContainer{}
	for i := range agg.Containers {
		c := &agg.Containers[i]
		for _, depID := range c.Dependencies {
			if _, ok := byID[depID]; ok && depID != c.ID {
				successors[depID] = append(successors[depID], c)
			}
		}
	}

	for i := range agg.Containers {
		c := &agg.Containers[i]
		delay, late := delayDays(c, now)
		if !late {
			continue
		}

		impact := buildImpact(c, delay, successors)
		result.Impacts = append(result.Impacts, impact)
		result.LateContainerCount++
		result.TotalAffected += impact.AffectedContainers
		if severityRank[impact.Severity] > severityRank[result.OverallSeverity] {
			result.OverallSeverity = impact.Severity
		}
	}

	return result
}

// delayDays reports how many whole days overdue a container is. A
// container with an unparsable due date is never late (data-quality
// degradation; compliance flags it instead), nor is one already
// Completed or Approved.
func delayDays(c *AggregatedContainer, now time.Time) (int, bool) {
	if c.Status == "Completed" || c.Status == "Approved" {
		return 0, false
	}
	due, ok := parseDate(c.DueDate)
	if !ok || !due.Before(now) {
		return 0, false
	}
	return int(now.Sub(due).Hours() / 24), true
}

// buildImpact runs a cycle-safe breadth-first traversal downstream of one
// late container. Propagated delay is sourceDelay + max(0, depth-1) — a
// deliberate heuristic, not a critical-path re-schedule; converging paths
// keep the shortest-path visit.
func buildImpact(late *AggregatedContainer, delay int, successors map[string][]*AggregatedContainer) Impact {
	impact := Impact{
		LateContainer: LateContainer{
			ID:         late.ID,
			Name:       late.Name,
			TIDPName:   late.TIDPSource.TeamName,
			Discipline: late.TIDPSource.Discipline,
			DueDate:    late.DueDate,
			DelayDays:  delay,
		},
		Cascade:             []CascadeItem{},
		AffectedDisciplines: []string{},
	}

	visited := map[string]bool{late.ID: true}
	disciplines := map[string]bool{}

	type queued struct {
		node  *AggregatedContainer
		depth int
	}
	queue := []queued{{late, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range successors[cur.node.ID] {
			if visited[next.ID] {
				continue
			}
			visited[next.ID] = true

			depth := cur.depth + 1
			extra := depth - 1
			if extra < 0 {
				extra = 0
			}
			impact.Cascade = append(impact.Cascade, CascadeItem{
				ContainerID:     next.ID,
				ContainerName:   next.Name,
				TIDPName:        next.TIDPSource.TeamName,
				Discipline:      next.TIDPSource.Discipline,
				Depth:           depth,
				PropagatedDelay: delay + extra,
				DueDate:         next.DueDate,
			})
			disciplines[next.TIDPSource.Discipline] = true
			queue = append(queue, queued{next, depth})
		}
	}

	sort.SliceStable(impact.Cascade, func(i, j int) bool {
		if impact.Cascade[i].Depth != impact.Cascade[j].Depth {
			return impact.Cascade[i].Depth < impact.Cascade[j].Depth
		}
		return impact.Cascade[i].DueDate < impact.Cascade[j].DueDate
	})

	for d := range disciplines {
		impact.AffectedDisciplines = append(impact.AffectedDisciplines, d)
	}
	sort.Strings(impact.AffectedDisciplines)

	impact.AffectedContainers = len(impact.Cascade)
	impact.Severity = severityFor(delay, impact.AffectedContainers)
	impact.Suggestions = suggestionsFor(delay, impact.AffectedContainers, len(impact.AffectedDisciplines))
	return impact
}

// severityFor applies the fixed delay/spread thresholds.
func severityFor(delayDays, affected int) string {
	switch {
	case delayDays >= 14 || affected >= 10:
		return SeverityCritical
	case delayDays >= 7 || affected >= 5:
		return SeverityHigh
	case delayDays >= 3 || affected >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// suggestionsFor picks canned remediation actions. Rule-based and
// deterministic so the output is auditable.
func suggestionsFor(delayDays, affected, disciplines int) []string {
	var out []string
	if affected >= 5 {
		out = append(out, "Multiple critical-path items depend on this deliverable - consider fast-tracking or splitting the work")
	}
	if delayDays >= 7 {
		out = append(out, "Escalate to the information manager and re-baseline the delivery milestone")
	}
	if disciplines >= 3 {
		out = append(out, "Convene a cross-discipline coordination meeting to re-sequence dependent deliverables")
	}
	if affected == 0 {
		out = append(out, "No downstream dependencies - recover the deliverable within its own task team")
	} else {
		out = append(out, "Notify affected task teams of the revised delivery date")
	}
	return out
}

// parseDate accepts the due-date formats users actually enter.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
