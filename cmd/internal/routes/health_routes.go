package routes

import (
	"hospitalintake/cmd/internal/domain/database"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ProvisioningStatus interface {
	Status() database.Status
}

type DefaultHealthRoute struct {
	Provisioning ProvisioningStatus
}

func NewHealthDefault(provisioning ProvisioningStatus) *DefaultHealthRoute {
	return &DefaultHealthRoute{Provisioning: provisioning}
}

// Health answers as long as the process is up, whatever the database state.
func (h *DefaultHealthRoute) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":       "alive",
		"provisioning": h.Provisioning.Status(),
	})
}

// Ready reports the last known provisioning outcome without touching the database.
func (h *DefaultHealthRoute) Ready(c echo.Context) error {
	status := h.Provisioning.Status()
	if status.State == database.StateReady {
		return c.JSON(http.StatusOK, echo.Map{"status": status.State})
	}

	body := echo.Map{"status": status.State}
	if status.Reason != "" {
		body["reason"] = status.Reason
	}
	return c.JSON(http.StatusServiceUnavailable, body)
}
