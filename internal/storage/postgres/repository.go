package postgres

import (
	"bloodLink/internal/domain"
	"bloodLink/internal/service"
	"bloodLink/internal/workers"
)

var (
	_ service.DonorRepository   = (*DonorRepo)(nil)
	_ service.RequestRepository = (*RequestRepo)(nil)
	_ service.StatsRepository   = (*StatsRepo)(nil)
	_ workers.RequestExpirer    = (*RequestRepo)(nil)
)

func (p *Postgres) Donors() *DonorRepo     { return p.Donor }
func (p *Postgres) Requests() *RequestRepo { return p.Request }
func (p *Postgres) Stats() *StatsRepo      { return p.Stat }

// pointArgs returns the (lng, lat) pair for ST_MakePoint; nil yields SQL NULLs.
func pointArgs(loc *domain.Coordinate) (*float64, *float64) {
	if loc == nil {
		return nil, nil
	}
	lng, lat := loc.Longitude, loc.Latitude
	return &lng, &lat
}

func pointFrom(lat, lng *float64) *domain.Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &domain.Coordinate{Latitude: *lat, Longitude: *lng}
}
