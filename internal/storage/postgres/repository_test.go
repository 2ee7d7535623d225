//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

var (
	testPool *pgxpool.Pool
	testPG   *Postgres
	tc       testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	user := "postgres"
	pass := "postgres"
	db := "postgres"

	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       db,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, mappedPort.Port(), db)

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("pgxpool.New:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := testPool.Ping(ctx); err != nil {
		fmt.Println("pool.Ping:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
	testPG = New(testPool, logger)
	if err := testPG.Migrate(ctx); err != nil {
		fmt.Println("migrate:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE donor_responses, blood_requests, donors`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func newRequest(status domain.RequestStatus, createdAt time.Time) *domain.BloodRequest {
	return &domain.BloodRequest{
		ID:               uuid.New(),
		RequesterID:      "user-1",
		PatientName:      "Karim",
		BloodGroup:       domain.OPositive,
		UnitsNeeded:      2,
		UrgencyLevel:     domain.UrgencyUrgent,
		HospitalName:     "Dhaka Medical College",
		HospitalAddress:  "Bakshibazar, Dhaka",
		ContactPerson:    "Ayesha",
		ContactPhone:     "01700000000",
		MedicalCondition: "surgery",
		RequiredBy:       createdAt.Add(48 * time.Hour),
		Location:         &domain.Coordinate{Latitude: 23.8103, Longitude: 90.4125},
		Priority:         2,
		RespondBy:        createdAt.Add(4 * time.Hour),
		CreatedAt:        createdAt,
		Status:           status,
	}
}

func TestDonorRepo_CreateGet_LngLatRoundTrip(t *testing.T) {
	truncateAll(t)

	repo := testPG.Donors()
	d := &domain.DonorRecord{
		Name:       "Rahim",
		BloodGroup: domain.ONegative,
		Phone:      "01711111111",
		Location:   &domain.Coordinate{Latitude: 49.281441, Longitude: -123.055913},
		Available:  true,
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID == uuid.Nil || d.CreatedAt.IsZero() {
		t.Fatalf("expected defaults set: %+v", d)
	}

	got, err := repo.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Location == nil || got.Location.Latitude != d.Location.Latitude || got.Location.Longitude != d.Location.Longitude {
		t.Fatalf("location mismatch got=%+v want=%+v", got.Location, d.Location)
	}
	if got.BloodGroup != domain.ONegative || !got.Available {
		t.Fatalf("unexpected donor: %+v", got)
	}
}

func TestDonorRepo_NullLocation(t *testing.T) {
	truncateAll(t)

	repo := testPG.Donors()
	d := &domain.DonorRecord{Name: "Nadia", BloodGroup: domain.APositive, Phone: "01800000000"}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || all[0].Location != nil {
		t.Fatalf("expected one donor without location, got %+v", all)
	}
}

func TestDonorRepo_Update(t *testing.T) {
	truncateAll(t)

	repo := testPG.Donors()
	d := &domain.DonorRecord{Name: "Karim", BloodGroup: domain.BPositive, Phone: "01900000000", Available: true}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	last := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d.Available = false
	d.LastDonationDate = &last
	d.Location = &domain.Coordinate{Latitude: 23.7, Longitude: 90.4}
	if err := repo.Update(context.Background(), d); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Available || got.LastDonationDate == nil || !got.LastDonationDate.Equal(last) || got.Location == nil {
		t.Fatalf("unexpected updated row: %+v", got)
	}

	err = repo.Update(context.Background(), &domain.DonorRecord{ID: uuid.New()})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRequestRepo_SaveGetAndRespond(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	r := newRequest(domain.RequestActive, time.Now().UTC().Truncate(time.Microsecond))
	if err := repo.SaveRequest(context.Background(), r); err != nil {
		t.Fatalf("SaveRequest: %v", err)
	}

	resp := domain.DonorResponse{DonorID: "donor-1", DonorName: "Rahim", Message: "coming", Phone: "017", RespondedAt: time.Now().UTC()}
	if err := repo.AppendResponse(context.Background(), r.ID, resp); err != nil {
		t.Fatalf("AppendResponse: %v", err)
	}

	got, err := repo.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.RequestActive || got.Priority != 2 || len(got.Responses) != 1 || got.Responses[0].DonorID != "donor-1" {
		t.Fatalf("unexpected request: %+v", got)
	}

	if _, err := repo.Get(context.Background(), uuid.New()); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestRepo_SaveDuplicateIsAtomic(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	r := newRequest(domain.RequestActive, time.Now().UTC())
	if err := repo.SaveRequest(context.Background(), r); err != nil {
		t.Fatalf("SaveRequest: %v", err)
	}
	err := repo.SaveRequest(context.Background(), r)
	if !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestRequestRepo_SecondRequestFromSameDraft(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	draftID := uuid.New()
	first := newRequest(domain.RequestActive, time.Now().UTC())
	first.DraftID = &draftID
	if err := repo.SaveRequest(context.Background(), first); err != nil {
		t.Fatalf("SaveRequest: %v", err)
	}

	second := newRequest(domain.RequestActive, time.Now().UTC())
	second.DraftID = &draftID
	if err := repo.SaveRequest(context.Background(), second); !errors.Is(err, e.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if _, err := repo.Get(context.Background(), second.ID); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("second request must not be stored, got %v", err)
	}

	got, err := repo.Get(context.Background(), first.ID)
	if err != nil || got.DraftID == nil || *got.DraftID != draftID {
		t.Fatalf("draft id not stored: got=%+v err=%v", got, err)
	}
}

func TestRequestRepo_StatusTransitions(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	r := newRequest(domain.RequestActive, time.Now().UTC())
	if err := repo.SaveRequest(context.Background(), r); err != nil {
		t.Fatalf("SaveRequest: %v", err)
	}

	if err := repo.UpdateStatus(context.Background(), r.ID, domain.RequestFulfilled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), r.ID, domain.RequestExpired); !errors.Is(err, e.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	err := repo.AppendResponse(context.Background(), r.ID, domain.DonorResponse{DonorID: "d", Message: "late", RespondedAt: time.Now()})
	if !errors.Is(err, e.ErrRequestClosed) {
		t.Fatalf("expected ErrRequestClosed, got %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), uuid.New(), domain.RequestFulfilled); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestRepo_ListActiveFiltersAndOrder(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	now := time.Now().UTC()

	critical := newRequest(domain.RequestActive, now.Add(-48*time.Hour))
	critical.Priority = 1
	critical.BloodGroup = domain.ABNegative
	routine := newRequest(domain.RequestActive, now.Add(-time.Hour))
	routine.Priority = 4
	routine.HospitalName = "Square Hospital"
	routine.HospitalAddress = "Panthapath"
	fulfilled := newRequest(domain.RequestFulfilled, now)

	for _, r := range []*domain.BloodRequest{critical, routine, fulfilled} {
		if err := repo.SaveRequest(context.Background(), r); err != nil {
			t.Fatalf("SaveRequest: %v", err)
		}
	}

	all, err := repo.ListActive(context.Background(), domain.RequestFilter{})
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(all) != 2 || all[0].ID != critical.ID {
		t.Fatalf("expected critical first among 2 active, got %d", len(all))
	}

	since := now.Add(-24 * time.Hour)
	recent, err := repo.ListActive(context.Background(), domain.RequestFilter{Since: &since})
	if err != nil || len(recent) != 1 || recent[0].ID != routine.ID {
		t.Fatalf("recent filter: got=%v err=%v", recent, err)
	}

	byLoc, err := repo.ListActive(context.Background(), domain.RequestFilter{Location: "square"})
	if err != nil || len(byLoc) != 1 || byLoc[0].ID != routine.ID {
		t.Fatalf("location filter: got=%v err=%v", byLoc, err)
	}

	for _, pattern := range []string{"%", "_", "Sq%re"} {
		got, err := repo.ListActive(context.Background(), domain.RequestFilter{Location: pattern})
		if err != nil || len(got) != 0 {
			t.Fatalf("location %q must match literally: got=%d err=%v", pattern, len(got), err)
		}
	}

	byGroup, err := repo.ListActive(context.Background(), domain.RequestFilter{BloodGroup: domain.ABNegative})
	if err != nil || len(byGroup) != 1 || byGroup[0].ID != critical.ID {
		t.Fatalf("group filter: got=%v err=%v", byGroup, err)
	}

	page, total, err := repo.List(context.Background(), 1, 2, "")
	if err != nil || total != 3 || len(page) != 2 {
		t.Fatalf("List: total=%d len=%d err=%v", total, len(page), err)
	}
}

func TestRequestRepo_ExpireDueAndStats(t *testing.T) {
	truncateAll(t)

	repo := testPG.Requests()
	now := time.Now().UTC()

	overdue := newRequest(domain.RequestActive, now.Add(-72*time.Hour))
	overdue.RequiredBy = now.Add(-time.Hour)
	fresh := newRequest(domain.RequestActive, now)
	for _, r := range []*domain.BloodRequest{overdue, fresh} {
		if err := repo.SaveRequest(context.Background(), r); err != nil {
			t.Fatalf("SaveRequest: %v", err)
		}
	}

	n, err := repo.ExpireDue(context.Background(), now)
	if err != nil || n != 1 {
		t.Fatalf("ExpireDue: n=%d err=%v", n, err)
	}

	if err := testPG.Donors().Create(context.Background(), &domain.DonorRecord{Name: "A", BloodGroup: domain.APositive, Phone: "1", Available: true}); err != nil {
		t.Fatalf("Create donor: %v", err)
	}
	if err := testPG.Donors().Create(context.Background(), &domain.DonorRecord{Name: "B", BloodGroup: domain.BPositive, Phone: "2"}); err != nil {
		t.Fatalf("Create donor: %v", err)
	}

	byStatus, err := testPG.Stats().CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if byStatus[domain.RequestExpired] != 1 || byStatus[domain.RequestActive] != 1 {
		t.Fatalf("unexpected counts: %+v", byStatus)
	}

	total, available, err := testPG.Stats().CountDonors(context.Background())
	if err != nil || total != 2 || available != 1 {
		t.Fatalf("CountDonors: total=%d available=%d err=%v", total, available, err)
	}
}
