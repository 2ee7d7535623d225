package public_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"bloodLink/internal/api/handlers/http/public"
	mock_public "bloodLink/internal/api/handlers/http/public/mocks"
	"bloodLink/internal/domain"
	"bloodLink/internal/middleware"
	"bloodLink/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func addChiURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func newHandler(ctrl *gomock.Controller) (*public.Handler, *mock_public.MockDonors, *mock_public.MockRequests) {
	donors := mock_public.NewMockDonors(ctrl)
	requests := mock_public.NewMockRequests(ctrl)
	return public.NewHandler(newTestLogger(), donors, requests), donors, requests
}

func TestDonorRegister_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, donors, _ := newHandler(ctrl)

	body := `{"name":"Rahim","blood_group":"O-","phone":"+8801711111111","location":{"latitude":23.81,"longitude":90.41}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/donors", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	wantID := uuid.New()
	donors.EXPECT().
		Register(gomock.Any(), domain.CreateDonorRequest{
			Name:       "Rahim",
			BloodGroup: "O-",
			Phone:      "+8801711111111",
			Location:   &domain.Coordinate{Latitude: 23.81, Longitude: 90.41},
		}).
		Return(wantID, nil).
		Times(1)

	h.DonorRegister(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d, body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string]string](t, rr)
	if got["id"] != wantID.String() {
		t.Fatalf("expected id=%s got=%s", wantID, got["id"])
	}
}

func TestDonorRegister_Invalid_400(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{bad json"},
		{"unknown blood group", `{"name":"Rahim","blood_group":"Z+","phone":"+8801711111111"}`},
		{"latitude out of range", `{"name":"Rahim","blood_group":"A+","phone":"+8801711111111","location":{"latitude":91,"longitude":0}}`},
		{"extra field", `{"name":"Rahim","blood_group":"A+","phone":"+8801711111111","role":"admin"}`},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h, _, _ := newHandler(ctrl)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/donors", bytes.NewBufferString(c.body))
			rr := httptest.NewRecorder()

			h.DonorRegister(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDonorGet_NotFound_404(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, donors, _ := newHandler(ctrl)

	id := uuid.New()
	req := addChiURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/donors/"+id.String(), nil), "id", id.String())
	rr := httptest.NewRecorder()

	donors.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound).Times(1)

	h.DonorGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d body=%s", http.StatusNotFound, rr.Code, rr.Body.String())
	}
}

func TestDonorUpdate_OK_204(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, donors, _ := newHandler(ctrl)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/donors/"+id.String(), bytes.NewBufferString(`{"available":false}`))
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	no := false
	donors.EXPECT().
		Update(gomock.Any(), id, domain.UpdateDonorRequest{Available: &no}).
		Return(nil).
		Times(1)

	h.DonorUpdate(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected %d got %d body=%s", http.StatusNoContent, rr.Code, rr.Body.String())
	}
}

func TestDonorSearch_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, donors, _ := newHandler(ctrl)

	body := `{"origin":{"latitude":23.8103,"longitude":90.4125},"filter":{"blood_group":"O-","compatible":true,"radius_km":10}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/donors/search", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	wantReq := domain.DonorSearchRequest{
		Origin: &domain.Coordinate{Latitude: 23.8103, Longitude: 90.4125},
		Filter: domain.DonorFilter{BloodGroup: domain.ONegative, Compatible: true, RadiusKm: 10},
	}
	wantResp := domain.DonorSearchResponse{
		Candidates: []domain.RankedCandidate{{
			Donor:      domain.DonorRecord{ID: uuid.New(), Name: "Rahim", BloodGroup: domain.ONegative, Available: true},
			DistanceKm: 9.27,
		}},
		RadiusKm: 10,
	}

	donors.EXPECT().Search(gomock.Any(), wantReq).Return(wantResp, nil).Times(1)

	h.DonorSearch(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.DonorSearchResponse](t, rr)
	if len(got.Candidates) != 1 || got.Candidates[0].DistanceKm != 9.27 || got.Candidates[0].Donor.ID != wantResp.Candidates[0].Donor.ID {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestDonorSearch_InvalidCoordinates_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, donors, _ := newHandler(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/donors/search", bytes.NewBufferString(`{"filter":{}}`))
	rr := httptest.NewRecorder()

	donors.EXPECT().Search(gomock.Any(), gomock.Any()).Return(domain.DonorSearchResponse{}, e.ErrInvalidCoordinates).Times(1)

	h.DonorSearch(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestRequestCreate_UsesSession(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, requests := newHandler(ctrl)

	body := `{"patient_name":"Ayesha","blood_group":"AB+","units_needed":2,"urgency_level":"urgent",
"hospital_name":"Dhaka Medical","hospital_address":"Bakshibazar","contact_person":"Karim",
"contact_phone":"+8801700000000","medical_condition":"surgery","required_by":"2030-01-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBufferString(body))
	session := domain.Session{UserID: "u-1", Name: "Karim", Phone: "+8801700000000"}
	req = req.WithContext(middleware.WithSession(req.Context(), session))
	rr := httptest.NewRecorder()

	want := &domain.BloodRequest{ID: uuid.New(), Status: domain.RequestActive, UrgencyLevel: domain.UrgencyUrgent, Priority: 2}
	requests.EXPECT().
		Create(gomock.Any(), session, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Session, r domain.CreateBloodRequestRequest) (*domain.BloodRequest, error) {
			if r.BloodGroup != "AB+" || r.UnitsNeeded != 2 {
				t.Errorf("unexpected dto: %+v", r)
			}
			return want, nil
		}).
		Times(1)

	h.RequestCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.BloodRequest](t, rr)
	if got.ID != want.ID || got.Status != domain.RequestActive {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestRequestCreate_UnitsOutOfRange_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, _ := newHandler(ctrl)

	body := `{"patient_name":"Ayesha","blood_group":"AB+","units_needed":11,"urgency_level":"urgent",
"hospital_name":"Dhaka Medical","hospital_address":"Bakshibazar","contact_person":"Karim",
"contact_phone":"+8801700000000","medical_condition":"surgery","required_by":"2030-01-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	h.RequestCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestRequestList_Filters(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, requests := newHandler(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests?blood_group=ab%2B&location=dhaka&recent=true", nil)
	rr := httptest.NewRecorder()

	requests.EXPECT().
		ListActive(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f domain.RequestFilter) ([]*domain.BloodRequest, error) {
			if f.BloodGroup != domain.ABPositive || f.Location != "dhaka" || f.Since == nil {
				t.Errorf("unexpected filter: %+v", f)
			}
			return nil, nil
		}).
		Times(1)

	h.RequestList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string][]domain.BloodRequest](t, rr)
	if got["requests"] == nil || len(got["requests"]) != 0 {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestRequestGet_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, requests := newHandler(ctrl)

	id := uuid.New()
	want := &domain.BloodRequest{
		ID:        id,
		Status:    domain.RequestActive,
		Responses: []domain.DonorResponse{{DonorID: "u-2", Message: "on my way"}},
	}
	req := addChiURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+id.String(), nil), "id", id.String())
	rr := httptest.NewRecorder()

	requests.EXPECT().Get(gomock.Any(), id).Return(want, nil).Times(1)

	h.RequestGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.BloodRequest](t, rr)
	if !reflect.DeepEqual(got.Responses[0].Message, "on my way") {
		t.Fatalf("unexpected responses: %+v", got.Responses)
	}
}

func TestRequestRespond(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusNoContent},
		{"closed", e.ErrRequestClosed, http.StatusConflict},
		{"missing", e.ErrNotFound, http.StatusNotFound},
		{"boom", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			h, _, requests := newHandler(ctrl)

			id := uuid.New()
			session := domain.Session{UserID: "u-2", Name: "Nadia"}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id.String()+"/responses", bytes.NewBufferString(`{"message":"I can donate"}`))
			req = addChiURLParam(req, "id", id.String())
			req = req.WithContext(middleware.WithSession(req.Context(), session))
			rr := httptest.NewRecorder()

			requests.EXPECT().
				Respond(gomock.Any(), session, id, domain.RespondRequest{Message: "I can donate"}).
				Return(c.err).
				Times(1)

			h.RequestRespond(rr, req)

			if rr.Code != c.want {
				t.Fatalf("expected %d got %d body=%s", c.want, rr.Code, rr.Body.String())
			}
		})
	}
}
