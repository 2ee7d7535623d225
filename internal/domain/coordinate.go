package domain

import (
	"math"

	"bloodLink/pkg/e"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"lat"`  // -90..90
	Longitude float64 `json:"longitude" validate:"lng"` // -180..180
}

func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return e.ErrInvalidCoordinates
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return e.ErrInvalidCoordinates
	}
	return nil
}
