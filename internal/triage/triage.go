// Package triage computes case priority and the candidate responder set for
// a new report. Triage is a pure function over a responder registry snapshot;
// it has no side effects and tolerates a stale or empty registry.
package triage

import (
	"sort"

	"github.com/strayaid-systems/strayaid/internal/geo"
	"github.com/strayaid-systems/strayaid/internal/models"
)

// Priority is a total ordering key over cases. Urgency dominates; reports at
// equal urgency are served FIFO by report time.
type Priority struct {
	UrgencyRank int   `json:"urgency_rank"`
	ReportedAt  int64 `json:"reported_at"` // unix nanos
}

// Before reports whether p outranks other (served first).
func (p Priority) Before(other Priority) bool {
	if p.UrgencyRank != other.UrgencyRank {
		return p.UrgencyRank > other.UrgencyRank
	}
	return p.ReportedAt < other.ReportedAt
}

// Result is the output of a triage run. An empty candidate list is a
// reportable condition (unassignable), not an error.
type Result struct {
	Priority   Priority
	Candidates []models.Candidate
}

// Unassignable reports whether no eligible responder was found.
func (r *Result) Unassignable() bool {
	return len(r.Candidates) == 0
}

// Triage ranks responders for a report. Role filter: veterinarians for
// medical condition tags, NGOs otherwise, both for critical urgency. With
// known coordinates, responders outside all of their registered service radii
// are excluded entirely; within a priority class ties break by ascending
// distance. Unknown coordinates disable radius filtering and distance
// ranking (role-only fallback).
func Triage(report *models.Report, responders []*models.Responder) *Result {
	res := &Result{
		Priority: Priority{
			UrgencyRank: models.UrgencyRank(report.Urgency),
			ReportedAt:  report.ReportedAt.UnixNano(),
		},
	}

	for _, r := range responders {
		if r == nil || !r.Available {
			continue
		}
		if !roleEligible(r.Role, report) {
			continue
		}

		if !report.Location.Known {
			res.Candidates = append(res.Candidates, models.Candidate{
				ResponderID: r.ID,
				Role:        r.Role,
			})
			continue
		}

		dist, within := nearestServiceDistance(r, report.Location)
		if !within {
			continue
		}
		res.Candidates = append(res.Candidates, models.Candidate{
			ResponderID: r.ID,
			Role:        r.Role,
			DistanceKm:  dist,
			HasDistance: true,
		})
	}

	sort.SliceStable(res.Candidates, func(i, j int) bool {
		a, b := res.Candidates[i], res.Candidates[j]
		if a.HasDistance != b.HasDistance {
			return a.HasDistance
		}
		if !a.HasDistance {
			return false // keep registry order in the role-only fallback
		}
		return a.DistanceKm < b.DistanceKm
	})

	return res
}

// roleEligible applies the role filter: medical conditions need a
// veterinarian, everything else an NGO, and critical cases take both.
func roleEligible(role string, report *models.Report) bool {
	if report.Urgency == models.UrgencyCritical {
		return role == models.RoleVeterinarian || role == models.RoleNGO
	}
	if models.IsMedicalCondition(report.Condition) {
		return role == models.RoleVeterinarian
	}
	return role == models.RoleNGO
}

// nearestServiceDistance returns the distance from the report to the
// responder and whether the report falls inside any registered service
// radius. Responders outside every radius are excluded, not ranked last.
func nearestServiceDistance(r *models.Responder, loc models.Location) (float64, bool) {
	best := 0.0
	within := false
	for _, area := range r.ServiceAreas {
		d := geo.DistanceKm(area.Latitude, area.Longitude, loc.Latitude, loc.Longitude)
		if d <= area.RadiusKm {
			if !within || d < best {
				best = d
				within = true
			}
		}
	}
	return best, within
}
