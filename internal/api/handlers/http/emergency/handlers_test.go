package emergency_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"bloodLink/internal/api/handlers/http/emergency"
	mock_emergency "bloodLink/internal/api/handlers/http/emergency/mocks"
	"bloodLink/internal/domain"
	"bloodLink/internal/middleware"
	"bloodLink/internal/workflow"
	"bloodLink/pkg/e"
)

var session = domain.Session{UserID: "u-1", Name: "Karim", Phone: "+8801700000000"}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRequest(method, target, body string, id string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	ctx := middleware.WithSession(req.Context(), session)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func TestDraftStart_WithLocation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	loc := &domain.Coordinate{Latitude: 23.8103, Longitude: 90.4125}
	draft := &domain.EmergencyDraft{ID: uuid.New(), OwnerID: session.UserID, ContactPerson: session.Name, Location: loc}

	svc.EXPECT().
		Start(gomock.Any(), session, domain.StartEmergencyRequest{Location: loc}).
		Return(draft, nil).
		Times(1)

	rr := httptest.NewRecorder()
	h.DraftStart(rr, newRequest(http.MethodPost, "/api/v1/emergency", `{"location":{"latitude":23.8103,"longitude":90.4125}}`, ""))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.EmergencyDraft](t, rr)
	if got.ID != draft.ID || got.ContactPerson != "Karim" || got.CurrentStep != domain.StepPatientInfo {
		t.Fatalf("unexpected draft: %+v", got)
	}
}

func TestDraftStart_EmptyBody(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	svc.EXPECT().
		Start(gomock.Any(), session, domain.StartEmergencyRequest{}).
		Return(&domain.EmergencyDraft{ID: uuid.New()}, nil).
		Times(1)

	rr := httptest.NewRecorder()
	h.DraftStart(rr, newRequest(http.MethodPost, "/api/v1/emergency", "", ""))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected %d got %d body=%s", http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func TestDraftStart_EmptyChunkedBody(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	svc.EXPECT().
		Start(gomock.Any(), session, domain.StartEmergencyRequest{}).
		Return(&domain.EmergencyDraft{ID: uuid.New()}, nil).
		Times(2)

	for _, body := range []string{"", "  \n"} {
		req := newRequest(http.MethodPost, "/api/v1/emergency", body, "")
		req.Body = io.NopCloser(strings.NewReader(body))
		req.ContentLength = -1

		rr := httptest.NewRecorder()
		h.DraftStart(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("body %q: expected %d got %d body=%s", body, http.StatusCreated, rr.Code, rr.Body.String())
		}
	}
}

func TestDraftStart_MalformedBody(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)
	svc.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	rr := httptest.NewRecorder()
	h.DraftStart(rr, newRequest(http.MethodPost, "/api/v1/emergency", `{"location":`, ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestDraftUpdate_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	id := uuid.New()
	svc.EXPECT().
		Update(gomock.Any(), session, id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Session, _ uuid.UUID, p domain.DraftPatch) (*domain.EmergencyDraft, error) {
			if p.PatientName == nil || *p.PatientName != "Ayesha" || p.BloodGroup == nil || *p.BloodGroup != "B-" {
				t.Errorf("unexpected patch: %+v", p)
			}
			return &domain.EmergencyDraft{ID: id, PatientName: "Ayesha", BloodGroup: domain.BNegative}, nil
		}).
		Times(1)

	rr := httptest.NewRecorder()
	h.DraftUpdate(rr, newRequest(http.MethodPatch, "/api/v1/emergency/"+id.String(), `{"patient_name":"Ayesha","blood_group":"B-"}`, id.String()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestDraftUpdate_BadUnits_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := emergency.NewHandler(newTestLogger(), mock_emergency.NewMockEmergency(ctrl))

	id := uuid.New()
	rr := httptest.NewRecorder()
	h.DraftUpdate(rr, newRequest(http.MethodPatch, "/api/v1/emergency/"+id.String(), `{"units_needed":0}`, id.String()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestDraftNext_ValidationError_422(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	id := uuid.New()
	svc.EXPECT().
		Next(gomock.Any(), session, id).
		Return(nil, &workflow.ValidationError{
			Step:          domain.StepPatientInfo,
			MissingFields: []string{"patient_name", "blood_group"},
		}).
		Times(1)

	rr := httptest.NewRecorder()
	h.DraftNext(rr, newRequest(http.MethodPost, "/api/v1/emergency/"+id.String()+"/next", "", id.String()))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d body=%s", http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	}
	body := decodeJSON[struct {
		MissingFields []string `json:"missing_fields"`
	}](t, rr)
	if len(body.MissingFields) != 2 || body.MissingFields[0] != "patient_name" {
		t.Fatalf("unexpected missing_fields: %+v", body.MissingFields)
	}
}

func TestDraftNext_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	id := uuid.New()
	svc.EXPECT().
		Next(gomock.Any(), session, id).
		Return(&domain.EmergencyDraft{ID: id, CurrentStep: domain.StepMedicalDetails}, nil).
		Times(1)

	rr := httptest.NewRecorder()
	h.DraftNext(rr, newRequest(http.MethodPost, "/api/v1/emergency/"+id.String()+"/next", "", id.String()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.EmergencyDraft](t, rr)
	if got.CurrentStep != domain.StepMedicalDetails {
		t.Fatalf("unexpected step %v", got.CurrentStep)
	}
}

func TestDraftBack_FromFirstStep_409(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	id := uuid.New()
	svc.EXPECT().Back(gomock.Any(), session, id).Return(nil, e.ErrInvalidTransition).Times(1)

	rr := httptest.NewRecorder()
	h.DraftBack(rr, newRequest(http.MethodPost, "/api/v1/emergency/"+id.String()+"/back", "", id.String()))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected %d got %d body=%s", http.StatusConflict, rr.Code, rr.Body.String())
	}
}

func TestDraftSubmit(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	reqID := uuid.New()

	cases := []struct {
		name string
		ret  *domain.BloodRequest
		err  error
		want int
	}{
		{"created", &domain.BloodRequest{ID: reqID, Status: domain.RequestActive}, nil, http.StatusCreated},
		{"already submitted", nil, e.ErrAlreadySubmitted, http.StatusConflict},
		{"not found", nil, e.ErrNotFound, http.StatusNotFound},
		{"invalid urgency", nil, e.ErrInvalidUrgency, http.StatusBadRequest},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mock_emergency.NewMockEmergency(ctrl)
			h := emergency.NewHandler(newTestLogger(), svc)

			svc.EXPECT().Submit(gomock.Any(), session, id).Return(c.ret, c.err).Times(1)

			rr := httptest.NewRecorder()
			h.DraftSubmit(rr, newRequest(http.MethodPost, "/api/v1/emergency/"+id.String()+"/submit", "", id.String()))

			if rr.Code != c.want {
				t.Fatalf("expected %d got %d body=%s", c.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDraftAbandon_204(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mock_emergency.NewMockEmergency(ctrl)
	h := emergency.NewHandler(newTestLogger(), svc)

	id := uuid.New()
	svc.EXPECT().Abandon(gomock.Any(), session, id).Return(nil).Times(1)

	rr := httptest.NewRecorder()
	h.DraftAbandon(rr, newRequest(http.MethodDelete, "/api/v1/emergency/"+id.String(), "", id.String()))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected %d got %d body=%s", http.StatusNoContent, rr.Code, rr.Body.String())
	}
}

func TestDraftGet_InvalidID_400(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := emergency.NewHandler(newTestLogger(), mock_emergency.NewMockEmergency(ctrl))

	rr := httptest.NewRecorder()
	h.DraftGet(rr, newRequest(http.MethodGet, "/api/v1/emergency/nope", "", "nope"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}
