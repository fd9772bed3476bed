package service

import (
	"context"
	"encoding/json"
	"hospitalintake/cmd/internal/domain/entity"
	"hospitalintake/cmd/internal/utils/apierror"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type AppointmentRepository interface {
	Save(ctx context.Context, appointment *entity.Appointment) error
}

// Readiness lets the service retry schema provisioning before it writes.
type Readiness interface {
	EnsureReady(ctx context.Context) error
}

// AppointmentRequest is the intake form. Pointers distinguish a missing
// field from an empty one; only missing fields are rejected.
type AppointmentRequest struct {
	Name       *string `json:"name" validate:"required"`
	Email      *string `json:"email" validate:"required"`
	Phone      *string `json:"phone" validate:"required"`
	Date       *string `json:"date" validate:"required"`
	Time       *string `json:"time" validate:"required"`
	Department *string `json:"department" validate:"required"`
	Message    Text    `json:"message"`
}

// Text is an optional string that may be left out but never sent as null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return &json.UnmarshalTypeError{Value: "null", Type: reflect.TypeOf("")}
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	Readiness       Readiness
	Validate        *validator.Validate

	// HideErrorDetail replaces storage errors with a generic message in responses.
	HideErrorDetail bool
}

func NewAppointmentService(apptRepo AppointmentRepository, readiness Readiness, validate *validator.Validate, hideErrorDetail bool) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo: apptRepo,
		Readiness:       readiness,
		Validate:        validate,
		HideErrorDetail: hideErrorDetail,
	}
}

func (a *DefaultAppointmentService) CreateAppointment(ctx context.Context, req *AppointmentRequest) apierror.ErrorResponse {
	if valerr := a.Validate.Struct(req); valerr != nil {
		return apierror.FromValidationError(valerr)
	}

	if a.Readiness != nil {
		if err := a.Readiness.EnsureReady(ctx); err != nil {
			log.Warnf("database still not provisioned: %v", err)
		}
	}

	appointment := toAppointment(req)
	if err := a.AppointmentRepo.Save(ctx, appointment); err != nil {
		log.Errorf("failed to save appointment for %s: %v", appointment.Email, err)
		return a.internalError(err)
	}

	log.Debugf("saved appointment %d for department %s", appointment.ID, appointment.Department)
	return nil
}

func (a *DefaultAppointmentService) internalError(err error) apierror.ErrorResponse {
	if a.HideErrorDetail {
		return apierror.InternalServerError
	}
	return apierror.NewInternalError(err)
}

func toAppointment(req *AppointmentRequest) *entity.Appointment {
	return &entity.Appointment{
		Name:       deref(req.Name),
		Email:      deref(req.Email),
		Phone:      deref(req.Phone),
		Date:       deref(req.Date),
		Time:       deref(req.Time),
		Department: deref(req.Department),
		Message:    string(req.Message),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
