package matching

import (
	"fmt"
	"math"

	"github.com/jftuga/geodist"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

const EarthRadiusKm = 6371.0

// DistanceFunc returns the great-circle distance in kilometres between two points.
type DistanceFunc func(a, b domain.Coordinate) (float64, error)

type DistanceMethod string

const (
	MethodHaversine DistanceMethod = "haversine"
	MethodVincenty  DistanceMethod = "vincenty"
)

func DistanceFor(method DistanceMethod) (DistanceFunc, error) {
	switch method {
	case MethodHaversine, "":
		return DistanceKm, nil
	case MethodVincenty:
		return VincentyKm, nil
	default:
		return nil, fmt.Errorf("unknown distance method %q: %w", method, e.ErrInvalidInput)
	}
}

// DistanceKm is the haversine distance on a sphere of radius EarthRadiusKm,
// rounded to two decimals.
func DistanceKm(a, b domain.Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return round2(haversine(a, b)), nil
}

func haversine(a, b domain.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// VincentyKm uses the ellipsoidal Vincenty formula. Near-antipodal points where
// the iteration does not converge fall back to haversine.
func VincentyKm(a, b domain.Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}
	// fixed argument order keeps the iterative result symmetric
	if b.Latitude < a.Latitude || (b.Latitude == a.Latitude && b.Longitude < a.Longitude) {
		a, b = b, a
	}
	_, km, err := geodist.VincentyDistance(
		geodist.Coord{Lat: a.Latitude, Lon: a.Longitude},
		geodist.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	if err != nil {
		return round2(haversine(a, b)), nil
	}
	return round2(km), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
