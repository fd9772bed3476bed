package routes

import (
	"context"
	"hospitalintake/cmd/internal/service"
	"hospitalintake/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, req *service.AppointmentRequest) apierror.ErrorResponse
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	// Bodies sent without a content type are read as JSON.
	if c.Request().Header.Get(echo.HeaderContentType) == "" {
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		apierr := apierror.FromBindError(err)
		return c.JSON(apierr.Code(), apierr)
	}

	apierr := a.AppointmentService.CreateAppointment(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
