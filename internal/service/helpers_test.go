package service_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }

func mustClassifier(t *testing.T) *matching.Classifier {
	t.Helper()
	c, err := matching.NewClassifier(nil)
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return c
}

var (
	dhaka  = domain.Coordinate{Latitude: 23.8103, Longitude: 90.4125}
	nearby = domain.Coordinate{Latitude: 23.7269, Longitude: 90.4125}
)

func donorPool() []domain.DonorRecord {
	return []domain.DonorRecord{
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Name: "Rahim", BloodGroup: domain.ONegative, Location: ptr(nearby), Available: true},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "Karim", BloodGroup: domain.BPositive, Location: ptr(nearby), Available: true},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), Name: "Nadia", BloodGroup: domain.APositive, Available: true},
	}
}

func fixedTime() time.Time {
	return time.Date(2025, 12, 23, 12, 0, 0, 0, time.UTC)
}
