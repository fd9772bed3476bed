package repository

import (
	"context"
	"hospitalintake/cmd/internal/domain/database"
	"hospitalintake/cmd/internal/domain/entity"
)

// DefaultAppointmentRepository opens a dedicated connection for every call
// and releases it before returning, whatever the outcome.
type DefaultAppointmentRepository struct {
	connector database.Connector
	database  string
}

func NewAppointmentRepository(connector database.Connector, databaseName string) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{connector: connector, database: databaseName}
}

func (a *DefaultAppointmentRepository) Save(ctx context.Context, appointment *entity.Appointment) error {
	db, err := a.connector.Open(a.database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return db.WithContext(ctx).Create(appointment).Error
}
