package database

import (
	"context"
	"fmt"
	"hospitalintake/cmd/internal/domain/entity"
	"hospitalintake/cmd/internal/utils"
	"sync"

	"github.com/labstack/gommon/log"
)

type State string

const (
	StatePending  State = "pending"
	StateReady    State = "ready"
	StateDegraded State = "degraded"
)

// Status is the outcome of the most recent provisioning attempt.
type Status struct {
	State     State  `json:"state"`
	Reason    string `json:"reason,omitempty"`
	CheckedAt string `json:"checked_at,omitempty"`
}

// Provisioner makes sure the target database and the appointments table
// exist. A failed attempt leaves the service running in degraded mode.
type Provisioner struct {
	connector Connector
	database  string

	running sync.Mutex // held for the duration of an attempt

	mu     sync.RWMutex
	status Status
}

func NewProvisioner(connector Connector, database string) *Provisioner {
	return &Provisioner{
		connector: connector,
		database:  database,
		status:    Status{State: StatePending},
	}
}

// Provision creates the database and then the appointments table when they
// are missing. Each step uses its own connection.
func (p *Provisioner) Provision(ctx context.Context) error {
	p.running.Lock()
	defer p.running.Unlock()
	return p.provision(ctx)
}

// EnsureReady retries provisioning unless a previous attempt succeeded. When
// another attempt is already in flight it returns nil without waiting so the
// caller can go on with its own work.
func (p *Provisioner) EnsureReady(ctx context.Context) error {
	if p.Status().State == StateReady {
		return nil
	}

	if !p.running.TryLock() {
		return nil
	}
	defer p.running.Unlock()

	if p.Status().State == StateReady {
		return nil
	}
	return p.provision(ctx)
}

func (p *Provisioner) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Provisioner) provision(ctx context.Context) error {
	err := p.run(ctx)
	p.record(err)
	return err
}

func (p *Provisioner) run(ctx context.Context) error {
	if err := p.ensureDatabase(ctx); err != nil {
		return fmt.Errorf("create database %s: %w", p.database, err)
	}

	if err := p.ensureTable(ctx); err != nil {
		return fmt.Errorf("create table %s: %w", entity.Appointment{}.TableName(), err)
	}
	return nil
}

func (p *Provisioner) ensureDatabase(ctx context.Context) error {
	db, err := p.connector.Open("")
	if err != nil {
		return err
	}
	defer Close(db)

	return p.connector.CreateDatabase(db.WithContext(ctx), p.database)
}

func (p *Provisioner) ensureTable(ctx context.Context) error {
	db, err := p.connector.Open(p.database)
	if err != nil {
		return err
	}
	defer Close(db)

	m := db.WithContext(ctx).Migrator()
	if m.HasTable(&entity.Appointment{}) {
		return nil
	}

	if err := m.CreateTable(&entity.Appointment{}); err != nil {
		// Another instance may have created it in the meantime.
		if m.HasTable(&entity.Appointment{}) {
			return nil
		}
		return err
	}
	return nil
}

func (p *Provisioner) record(err error) {
	next := Status{
		State:     StateReady,
		CheckedAt: utils.FormatEpoch(utils.NowUTC()),
	}
	if err != nil {
		next.State = StateDegraded
		next.Reason = err.Error()
	}

	p.mu.Lock()
	prev := p.status
	p.status = next
	p.mu.Unlock()

	if prev.State == StateDegraded && next.State == StateReady {
		log.Infof("database %s provisioned after earlier failure", p.database)
	}
}
