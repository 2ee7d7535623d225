package matching

import (
	"fmt"
	"sort"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

type Ranker struct {
	compat   Compatibility
	distance DistanceFunc
}

func NewRanker(compat Compatibility, distance DistanceFunc) *Ranker {
	if distance == nil {
		distance = DistanceKm
	}
	return &Ranker{compat: compat, distance: distance}
}

func (r *Ranker) Compatibility() Compatibility { return r.compat }

// RankNearby returns compatible available donors within radiusKm of origin,
// nearest first. Donors with no usable location are skipped.
func (r *Ranker) RankNearby(origin *domain.Coordinate, pool []domain.DonorRecord, radiusKm float64, requested domain.BloodGroup) ([]domain.RankedCandidate, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius %.2f: %w", radiusKm, e.ErrInvalidInput)
	}
	if origin == nil {
		return nil, e.ErrInvalidCoordinates
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	return r.withinRadius(*origin, r.compat.CompatibleDonors(requested, pool), radiusKm), nil
}

// RankUnbounded is used when the requester location is unknown: every compatible
// available donor, ordered by id, with a zero distance.
func (r *Ranker) RankUnbounded(pool []domain.DonorRecord, requested domain.BloodGroup) []domain.RankedCandidate {
	return unbounded(r.compat.CompatibleDonors(requested, pool))
}

func (r *Ranker) withinRadius(origin domain.Coordinate, donors []domain.DonorRecord, radiusKm float64) []domain.RankedCandidate {
	out := make([]domain.RankedCandidate, 0, len(donors))
	for _, d := range donors {
		if d.Location == nil {
			continue
		}
		dist, err := r.distance(origin, *d.Location)
		if err != nil {
			continue
		}
		if dist <= radiusKm {
			out = append(out, domain.RankedCandidate{Donor: d, DistanceKm: dist})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Donor.ID.String() < out[j].Donor.ID.String()
	})
	return out
}

func unbounded(donors []domain.DonorRecord) []domain.RankedCandidate {
	out := make([]domain.RankedCandidate, 0, len(donors))
	for _, d := range donors {
		out = append(out, domain.RankedCandidate{Donor: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Donor.ID.String() < out[j].Donor.ID.String()
	})
	return out
}

var defaultRanker = NewRanker(Compatibility{mode: ModeStandard}, DistanceKm)

// RankNearby ranks with the standard table and haversine distance.
func RankNearby(origin *domain.Coordinate, pool []domain.DonorRecord, radiusKm float64, requested domain.BloodGroup) ([]domain.RankedCandidate, error) {
	return defaultRanker.RankNearby(origin, pool, radiusKm, requested)
}
