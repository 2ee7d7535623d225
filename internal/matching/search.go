package matching

import (
	"fmt"
	"strings"
	"time"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

// DeferralInterval is the minimum gap between two whole-blood donations.
const DeferralInterval = 90 * 24 * time.Hour

type SearchResult struct {
	Candidates          []domain.RankedCandidate
	RadiusKm            float64
	LocationUnavailable bool
}

// Searcher applies the donor directory filters on top of the ranker.
type Searcher struct {
	ranker        *Ranker
	defaultRadius float64
	maxRadius     float64
}

func NewSearcher(ranker *Ranker, defaultRadiusKm float64) *Searcher {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 10
	}
	return &Searcher{ranker: ranker, defaultRadius: defaultRadiusKm}
}

// WithMaxRadius rejects searches wider than maxKm. Zero means unlimited.
func (s *Searcher) WithMaxRadius(maxKm float64) *Searcher {
	s.maxRadius = maxKm
	return s
}

func (s *Searcher) Search(origin *domain.Coordinate, pool []domain.DonorRecord, f domain.DonorFilter, now time.Time) (SearchResult, error) {
	radius := f.RadiusKm
	if radius == 0 {
		radius = s.defaultRadius
	}
	if radius < 0 || (s.maxRadius > 0 && radius > s.maxRadius) {
		return SearchResult{}, fmt.Errorf("radius %.2f: %w", radius, e.ErrInvalidInput)
	}
	if f.BloodGroup != "" && !f.BloodGroup.Valid() {
		return SearchResult{}, e.ErrInvalidBloodGroup
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	matched := make([]domain.DonorRecord, 0, len(pool))
	for _, d := range pool {
		if s.matches(d, f, query, now) {
			matched = append(matched, d)
		}
	}

	if origin == nil {
		return SearchResult{Candidates: unbounded(matched), RadiusKm: radius, LocationUnavailable: true}, nil
	}
	if err := origin.Validate(); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Candidates: s.ranker.withinRadius(*origin, matched, radius), RadiusKm: radius}, nil
}

func (s *Searcher) matches(d domain.DonorRecord, f domain.DonorFilter, query string, now time.Time) bool {
	if f.BloodGroup != "" {
		if f.Compatible {
			if !s.ranker.compat.Allows(d.BloodGroup, f.BloodGroup) {
				return false
			}
		} else if d.BloodGroup != f.BloodGroup {
			return false
		}
	}

	switch f.Availability {
	case domain.AvailabilityAvailable:
		if !d.Available {
			return false
		}
	case domain.AvailabilityUnavailable:
		if d.Available {
			return false
		}
	}

	if f.Gender != "" && d.Gender != f.Gender {
		return false
	}

	switch f.LastDonation {
	case domain.DonationRecent:
		if d.LastDonationDate == nil || now.Sub(*d.LastDonationDate) >= DeferralInterval {
			return false
		}
	case domain.DonationEligible:
		if d.LastDonationDate != nil && now.Sub(*d.LastDonationDate) < DeferralInterval {
			return false
		}
	}

	if query != "" {
		if !strings.Contains(strings.ToLower(d.Name), query) &&
			!strings.Contains(strings.ToLower(d.LocationName), query) &&
			!strings.Contains(strings.ToLower(string(d.BloodGroup)), query) {
			return false
		}
	}
	return true
}
