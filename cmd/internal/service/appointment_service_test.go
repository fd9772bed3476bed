package service

import (
	"context"
	"encoding/json"
	"errors"
	"hospitalintake/cmd/internal/domain/entity"
	"hospitalintake/cmd/internal/utils"
	"hospitalintake/cmd/internal/utils/apierror"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
)

type fakeRepo struct {
	saved []*entity.Appointment
	err   error
}

func (f *fakeRepo) Save(_ context.Context, appointment *entity.Appointment) error {
	if f.err != nil {
		return f.err
	}
	appointment.ID = len(f.saved) + 1
	f.saved = append(f.saved, appointment)
	return nil
}

type fakeReadiness struct {
	calls int
	err   error
}

func (f *fakeReadiness) EnsureReady(context.Context) error {
	f.calls++
	return f.err
}

func ptr(s string) *string {
	return &s
}

func validRequest() *AppointmentRequest {
	return &AppointmentRequest{
		Name:       ptr("Jane Doe"),
		Email:      ptr("jane@example.com"),
		Phone:      ptr("555-1234"),
		Date:       ptr("2024-05-01"),
		Time:       ptr("10:00"),
		Department: ptr("Cardiology"),
		Message:    "",
	}
}

func newTestService(repo *fakeRepo, ready *fakeReadiness, hide bool) *DefaultAppointmentService {
	validate := validator.New()
	validate.RegisterTagNameFunc(utils.JSONFieldName)
	return NewAppointmentService(repo, ready, validate, hide)
}

func TestCreateAppointment_Saves(t *testing.T) {
	repo := &fakeRepo{}
	ready := &fakeReadiness{}
	svc := newTestService(repo, ready, false)

	if apierr := svc.CreateAppointment(context.Background(), validRequest()); apierr != nil {
		t.Fatalf("CreateAppointment() = %v", apierr)
	}

	if len(repo.saved) != 1 {
		t.Fatalf("saved %d appointments, want 1", len(repo.saved))
	}
	want := entity.Appointment{
		ID:         1,
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "555-1234",
		Date:       "2024-05-01",
		Time:       "10:00",
		Department: "Cardiology",
		Message:    "",
	}
	if got := *repo.saved[0]; got != want {
		t.Errorf("saved %+v, want %+v", got, want)
	}
	if ready.calls != 1 {
		t.Errorf("EnsureReady called %d times, want 1", ready.calls)
	}
}

func TestCreateAppointment_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(r *AppointmentRequest)
		wantFields []string
	}{
		{
			name:       "missing department",
			mutate:     func(r *AppointmentRequest) { r.Department = nil },
			wantFields: []string{"department"},
		},
		{
			name: "missing several",
			mutate: func(r *AppointmentRequest) {
				r.Name = nil
				r.Date = nil
				r.Time = nil
			},
			wantFields: []string{"name", "date", "time"},
		},
		{
			name:       "everything missing",
			mutate:     func(r *AppointmentRequest) { *r = AppointmentRequest{} },
			wantFields: []string{"name", "email", "phone", "date", "time", "department"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			ready := &fakeReadiness{}
			svc := newTestService(repo, ready, false)

			req := validRequest()
			tt.mutate(req)

			apierr := svc.CreateAppointment(context.Background(), req)
			if apierr == nil {
				t.Fatal("expected a validation error")
			}
			if apierr.Code() != http.StatusUnprocessableEntity {
				t.Errorf("Code() = %d, want 422", apierr.Code())
			}

			var verr *apierror.ValidationError
			if !errors.As(apierr, &verr) {
				t.Fatalf("error is %T, want *apierror.ValidationError", apierr)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("got fields %+v, want %v", verr.Fields, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if verr.Fields[i].Field != field {
					t.Errorf("field %d = %q, want %q", i, verr.Fields[i].Field, field)
				}
			}

			if len(repo.saved) != 0 {
				t.Errorf("saved %d appointments on invalid input", len(repo.saved))
			}
			if ready.calls != 0 {
				t.Errorf("EnsureReady called on invalid input")
			}
		})
	}
}

func TestCreateAppointment_EmptyStringsAccepted(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeReadiness{}, false)

	empty := ptr("")
	req := &AppointmentRequest{Name: empty, Email: empty, Phone: empty, Date: empty, Time: empty, Department: empty}
	if apierr := svc.CreateAppointment(context.Background(), req); apierr != nil {
		t.Fatalf("CreateAppointment() = %v", apierr)
	}
	if len(repo.saved) != 1 || repo.saved[0].Message != "" {
		t.Errorf("saved = %+v", repo.saved)
	}
}

func TestCreateAppointment_StorageFailure(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

	tests := []struct {
		name       string
		hide       bool
		wantDetail string
	}{
		{name: "raw detail", hide: false, wantDetail: cause.Error()},
		{name: "hidden detail", hide: true, wantDetail: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeRepo{err: cause}, &fakeReadiness{err: cause}, tt.hide)

			apierr := svc.CreateAppointment(context.Background(), validRequest())
			if apierr == nil {
				t.Fatal("expected an error")
			}
			if apierr.Code() != http.StatusInternalServerError {
				t.Errorf("Code() = %d, want 500", apierr.Code())
			}
			if apierr.Error() != tt.wantDetail {
				t.Errorf("detail = %q, want %q", apierr.Error(), tt.wantDetail)
			}
		})
	}
}

func TestCreateAppointment_WithoutReadiness(t *testing.T) {
	repo := &fakeRepo{}
	validate := validator.New()
	svc := NewAppointmentService(repo, nil, validate, false)

	if apierr := svc.CreateAppointment(context.Background(), validRequest()); apierr != nil {
		t.Fatalf("CreateAppointment() = %v", apierr)
	}
	if len(repo.saved) != 1 {
		t.Errorf("saved %d appointments, want 1", len(repo.saved))
	}
}

func TestAppointmentRequest_MessageDecoding(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      Text
		wantField string
	}{
		{name: "omitted", body: `{}`, want: ""},
		{name: "empty", body: `{"message":""}`, want: ""},
		{name: "text", body: `{"message":"first visit"}`, want: "first visit"},
		{name: "null", body: `{"message":null}`, wantField: "message"},
		{name: "number", body: `{"message":42}`, wantField: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AppointmentRequest
			err := json.Unmarshal([]byte(tt.body), &req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Unmarshal() error = %v", err)
				}
				if req.Message != tt.want {
					t.Errorf("Message = %q, want %q", req.Message, tt.want)
				}
				return
			}

			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				t.Fatalf("Unmarshal() error = %v, want a type error", err)
			}
			if typeErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", typeErr.Field, tt.wantField)
			}
		})
	}
}
