package main

import (
	"context"
	"errors"
	"hospitalintake/cmd/internal/config"
	"hospitalintake/cmd/internal/domain/database"
	"hospitalintake/cmd/internal/domain/database/repository"
	"hospitalintake/cmd/internal/routes"
	"hospitalintake/cmd/internal/service"
	"hospitalintake/cmd/internal/utils"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const (
	provisionTimeout = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
)

func main() {
	// The .env file is optional; the environment alone is enough.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("failed to load .env file: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	log.SetLevel(logLevel(cfg.Log.Level))

	validate := validator.New()
	registerValidators(validate)

	connector, err := database.NewConnector(cfg)
	if err != nil {
		log.Fatal("failed to initialize database connector: ", err)
	}

	// A failed provisioning is not fatal: requests retry it and report errors.
	provisioner := database.NewProvisioner(connector, cfg.Database.Name)
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	if err := provisioner.Provision(ctx); err != nil {
		log.Warnf("database provisioning failed, continuing in degraded mode: %v", err)
	} else {
		log.Infof("database %s is ready", cfg.Database.Name)
	}
	cancel()

	// Getting repositories
	apptRepo := repository.NewAppointmentRepository(connector, cfg.Database.Name)

	// Getting services
	apptService := service.NewAppointmentService(apptRepo, provisioner, validate, cfg.API.HideErrorDetail)

	// Getting routes
	apptRoutes := routes.NewAppointmentDefault(apptService)
	healthRoutes := routes.NewHealthDefault(provisioner)

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = routes.StrictJSONSerializer{}
	e.Logger.SetLevel(logLevel(cfg.Log.Level))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	// Appointments
	e.POST("/appointments", apptRoutes.CreateAppointment)

	// Liveness and readiness
	e.GET("/health", healthRoutes.Health)
	e.GET("/ready", healthRoutes.Ready)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr())
		errCh <- e.Start(cfg.Server.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Errorf("graceful shutdown failed: %v", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}
}

func registerValidators(validate *validator.Validate) {
	validate.RegisterTagNameFunc(utils.JSONFieldName)
}

func logLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
