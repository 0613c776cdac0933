// Package report builds registration exports and summary statistics.
package report

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/accordlabs/checkin/internal/event"
)

// Stats summarizes the registration log.
type Stats struct {
	Total              int `json:"total"`
	Official           int `json:"official"`
	WalkIn             int `json:"walk_in"`
	BadgesIssued       int `json:"badges_issued"`
	CertificatesIssued int `json:"certificates_issued"`
}

// Summarize computes counts over the registration log.
func Summarize(regs []event.Registration) Stats {
	var s Stats
	s.Total = len(regs)
	for _, reg := range regs {
		switch reg.Origin {
		case event.OriginOfficial:
			s.Official++
		case event.OriginWalkIn:
			s.WalkIn++
		}
		if reg.BadgeIssued {
			s.BadgesIssued++
		}
		if reg.CertificateIssued {
			s.CertificatesIssued++
		}
	}
	return s
}

// Timeline buckets registrations by hour of day in the given location.
func Timeline(regs []event.Registration, loc *time.Location) [24]int {
	if loc == nil {
		loc = time.UTC
	}
	var buckets [24]int
	for _, reg := range regs {
		buckets[reg.RegisteredAt.In(loc).Hour()]++
	}
	return buckets
}

// WriteCSV writes the registration log in export order. When two
// registrations share a display name (case-insensitively), each name is
// suffixed with its phone number so the rows stay tellable apart.
func WriteCSV(w *csv.Writer, regs []event.Registration) error {
	if err := w.Write([]string{"Name", "Phone Number", "Registration Type", "Registration Time"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	nameCounts := make(map[string]int, len(regs))
	for _, reg := range regs {
		nameCounts[strings.ToLower(reg.Name)]++
	}

	for _, reg := range regs {
		name := reg.Name
		if nameCounts[strings.ToLower(reg.Name)] > 1 {
			name = fmt.Sprintf("%s (%s)", reg.Name, reg.Phone)
		}
		row := []string{
			name,
			reg.Phone,
			reg.Origin.Label(),
			reg.RegisteredAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
