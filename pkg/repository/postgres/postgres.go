// Package postgres stores threatline data in a PostgreSQL database via gorm.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = interfaces.ErrNotFound

type Postgres struct {
	db            *gorm.DB
	project       *projectRepository
	item          *itemRepository
	link          *linkRepository
	threat        *threatRepository
	revision      *revisionRepository
	control       *controlRepository
	threatControl *threatControlRepository
}

var _ interfaces.Repository = &Postgres{}

type options struct {
	tablePrefix string
}

type Option func(*options)

// WithTablePrefix prefixes every table name, used by tests
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.tablePrefix = prefix
	}
}

// records returns every table model, in dependency order
func records() []any {
	return []any{
		&projectRecord{},
		&itemRecord{},
		&linkRecord{},
		&threatRecord{},
		&revisionRecord{},
		&controlRecord{},
		&threatControlRecord{},
	}
}

// New connects to dsn. Tables are not created; call Migrate for that.
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:  o.tablePrefix,
			NameReplacer: strings.NewReplacer("Record", ""),
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get database handle")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	return &Postgres{
		db:            db,
		project:       &projectRepository{db: db},
		item:          &itemRepository{db: db},
		link:          &linkRepository{db: db},
		threat:        &threatRepository{db: db},
		revision:      &revisionRepository{db: db},
		control:       &controlRepository{db: db},
		threatControl: &threatControlRepository{db: db},
	}, nil
}

// Migrate creates or alters tables to match the current schema
func (p *Postgres) Migrate(ctx context.Context) error {
	if err := p.db.WithContext(ctx).AutoMigrate(records()...); err != nil {
		return goerr.Wrap(err, "failed to migrate postgres schema")
	}
	return nil
}

// DropAll removes every table, used by tests
func (p *Postgres) DropAll(ctx context.Context) error {
	if err := p.db.WithContext(ctx).Migrator().DropTable(records()...); err != nil {
		return goerr.Wrap(err, "failed to drop tables")
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get database handle")
	}
	return sqlDB.Close()
}

func (p *Postgres) Project() interfaces.ProjectRepository {
	return p.project
}

func (p *Postgres) Item() interfaces.ItemRepository {
	return p.item
}

func (p *Postgres) Link() interfaces.LinkRepository {
	return p.link
}

func (p *Postgres) Threat() interfaces.ThreatRepository {
	return p.threat
}

func (p *Postgres) Revision() interfaces.RevisionRepository {
	return p.revision
}

func (p *Postgres) Control() interfaces.ControlRepository {
	return p.control
}

func (p *Postgres) ThreatControl() interfaces.ThreatControlRepository {
	return p.threatControl
}

// wrapNotFound converts gorm.ErrRecordNotFound into ErrNotFound
func wrapNotFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return goerr.Wrap(ErrNotFound, entity+" not found", goerr.V("id", id))
	}
	return goerr.Wrap(err, "failed to get "+entity, goerr.V("id", id))
}
