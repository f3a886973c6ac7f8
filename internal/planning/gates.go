package planning

import "fmt"

// QualityGate is a review checkpoint derived from one delivery milestone.
type QualityGate struct {
	Milestone      string   `json:"milestone"`
	Criteria       []string `json:"criteria"`
	Approvers      []string `json:"approvers"`
	EstimatedHours float64  `json:"estimatedHours"`
	DependsOn      []string `json:"dependsOn,omitempty"`
}

// RiskEntry is one auto-derived schedule risk.
type RiskEntry struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// RiskSummary counts register entries by severity.
type RiskSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// RiskRegister is the derived risk block stored on a MIDP.
type RiskRegister struct {
	Risks   []RiskEntry `json:"risks"`
	Summary RiskSummary `json:"summary"`
}

// DeriveQualityGates builds one gate per milestone in declared stage
// order; each gate depends on the one before it.
func DeriveQualityGates(agg *AggregatedData) []QualityGate {
	gates := make([]QualityGate, 0, len(agg.MilestoneOrder))
	for i, milestone := range agg.MilestoneOrder {
		g := agg.ByMilestone[milestone]
		gate := QualityGate{
			Milestone: milestone,
			Criteria: []string{
				fmt.Sprintf("All %d information containers delivered", g.Containers),
				"Level of information need verified against the exchange requirements",
				"File formats validated for the common data environment",
				"Suitability codes reviewed and authorized",
			},
			Approvers:      []string{"Information Manager", "Lead Appointed Party"},
			EstimatedHours: g.EstimatedHours,
		}
		if i > 0 {
			gate.DependsOn = []string{agg.MilestoneOrder[i-1]}
		}
		gates = append(gates, gate)
	}
	return gates
}

// DeriveRiskRegister scans the aggregated groupings for schedule risks:
// workload concentration, congested milestones, unscheduled deliverables
// and unresolved dependency references.
func DeriveRiskRegister(agg *AggregatedData) *RiskRegister {
	reg := &RiskRegister{Risks: []RiskEntry{}}

	if agg.TotalEstimatedHours > 0 {
		for _, d := range agg.Disciplines {
			share := agg.ByDiscipline[d].EstimatedHours / agg.TotalEstimatedHours
			if share > 0.4 {
				reg.add(RiskEntry{
					Title:       fmt.Sprintf("Workload concentration in %s", d),
					Category:    "resource",
					Severity:    "High",
					Description: fmt.Sprintf("%s holds %.0f%% of total estimated hours; a slip there affects the whole programme", d, share*100),
				})
			}
		}
	}

	for _, m := range agg.MilestoneOrder {
		if g := agg.ByMilestone[m]; g.Containers >= 10 {
			reg.add(RiskEntry{
				Title:       fmt.Sprintf("Milestone congestion at %q", m),
				Category:    "schedule",
				Severity:    "Medium",
				Description: fmt.Sprintf("%d containers are due at %q across %d team(s)", g.Containers, m, g.Teams),
			})
		}
	}

	unscheduled := 0
	dangling := 0
	byID := containerIndex(agg)
	for i := range agg.Containers {
		c := &agg.Containers[i]
		if _, ok := parseDate(c.DueDate); !ok {
			unscheduled++
		}
		for _, depID := range c.Dependencies {
			if _, ok := byID[depID]; !ok {
				dangling++
			}
		}
	}
	if unscheduled > 0 {
		reg.add(RiskEntry{
			Title:       "Unscheduled deliverables",
			Category:    "schedule",
			Severity:    "Medium",
			Description: fmt.Sprintf("%d container(s) have missing or unparsable due dates and cannot be sequenced", unscheduled),
		})
	}
	if dangling > 0 {
		reg.add(RiskEntry{
			Title:       "Unresolved dependency references",
			Category:    "data",
			Severity:    "Low",
			Description: fmt.Sprintf("%d predecessor reference(s) point outside the included TIDP set", dangling),
		})
	}

	return reg
}

func (r *RiskRegister) add(e RiskEntry) {
	r.Risks = append(r.Risks, e)
	r.Summary.Total++
	switch e.Severity {
	case "High":
		r.Summary.High++
	case "Medium":
		r.Summary.Medium++
	default:
		r.Summary.Low++
	}
}
