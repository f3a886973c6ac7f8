package planning

import (
	"fmt"
	"math"
	"regexp"
)

// Finding is one rule violation or advisory note.
type Finding struct {
	Rule        string `json:"rule"`
	Severity    string `json:"severity"`
	ContainerID string `json:"containerId,omitempty"`
	Message     string `json:"message"`
}

// Finding severities. Only errors block compliance; warnings and info are
// advisory.
const (
	FindingError   = "error"
	FindingWarning = "warning"
	FindingInfo    = "info"
)

// ComplianceReport carries both the go/no-go boolean and the continuous
// score, so gate-style callers and dashboards read the same result.
type ComplianceReport struct {
	Compliant    bool      `json:"compliant"`
	Score        int       `json:"score"`
	TotalChecks  int       `json:"totalChecks"`
	PassedChecks int       `json:"passedChecks"`
	Findings     []Finding `json:"findings"`
}

// Permissive identifier pattern: alphanumeric with ., _, - separators.
var containerIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*$`)

// CheckCompliance runs the fixed ISO 19650 rule set over an aggregated
// MIDP. Rules are independent; none short-circuits another. Each
// rule-per-container evaluation counts one check, and the score is the
// passed fraction of all checks.
func CheckCompliance(agg *AggregatedData, tidpCount int) *ComplianceReport {
	r := &ComplianceReport{Findings: []Finding{}}

	for i := range agg.Containers {
		c := &agg.Containers[i]

		// Rule 1: LOIN and format present.
		r.check(c.LOIN != "" && c.Format != "", Finding{
			Rule:        "loin-and-format",
			Severity:    FindingWarning,
			ContainerID: c.ID,
			Message:     fmt.Sprintf("container %q is missing its LOIN or format", c.Name),
		})

		// Rule 2: required fields — due date, responsible party,
		// acceptance criteria.
		r.check(c.DueDate != "" && c.Author != "" && c.AcceptanceCriteria != "", Finding{
			Rule:        "required-fields",
			Severity:    FindingError,
			ContainerID: c.ID,
			Message:     fmt.Sprintf("container %q is missing a due date, responsible party or acceptance criteria", c.Name),
		})

		// Rule 4: naming convention (advisory).
		r.check(containerIDPattern.MatchString(c.ID), Finding{
			Rule:        "naming-convention",
			Severity:    FindingInfo,
			ContainerID: c.ID,
			Message:     fmt.Sprintf("container id %q does not follow the alphanumeric naming convention", c.ID),
		})

		// Rule 5: due date parses when present. Absence is rule 2's
		// problem, not a date-consistency one.
		_, parses := parseDate(c.DueDate)
		r.check(c.DueDate == "" || parses, Finding{
			Rule:        "date-consistency",
			Severity:    FindingWarning,
			ContainerID: c.ID,
			Message:     fmt.Sprintf("container %q has an invalid due date %q", c.Name, c.DueDate),
		})
	}

	// Rule 3: TIDP completeness.
	r.check(tidpCount >= 1 && len(agg.Disciplines) >= 1, Finding{
		Rule:     "tidp-completeness",
		Severity: FindingError,
		Message:  "MIDP must include at least one TIDP and one discipline",
	})

	// Rule 6: discipline coverage (advisory).
	r.check(len(agg.Disciplines) >= 2, Finding{
		Rule:     "discipline-coverage",
		Severity: FindingInfo,
		Message:  fmt.Sprintf("only %d discipline(s) covered; multi-discipline coordination cannot be verified", len(agg.Disciplines)),
	})

	if r.TotalChecks > 0 {
		r.Score = int(math.Round(float64(r.PassedChecks) / float64(r.TotalChecks) * 100))
	}
	r.Compliant = true
	for _, f := range r.Findings {
		if f.Severity == FindingError {
			r.Compliant = false
			break
		}
	}
	return r
}

func (r *ComplianceReport) check(passed bool, finding Finding) {
	r.TotalChecks++
	if passed {
		r.PassedChecks++
		return
	}
	r.Findings = append(r.Findings, finding)
}
