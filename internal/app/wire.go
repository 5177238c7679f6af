package app

import (
	"chatcrypt/internal/directory"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/services/device"
	"chatcrypt/internal/services/exchange"
	"chatcrypt/internal/services/identity"
	"chatcrypt/internal/services/message"
	"chatcrypt/internal/store"
)

// Wire bundles the assembled services and stores.
type Wire struct {
	Keys      *identity.Service
	Messages  *message.Service
	Exchange  *exchange.Service
	Sweeper   *exchange.Sweeper
	Devices   *device.Service
	Identity  *store.IdentityFileStore
	Directory *directory.FileDirectory
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	keys := identity.New(identity.Config{KDFIterations: cfg.KDFIterations})

	var (
		sessions domain.SessionStore
		devices  domain.DeviceStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.CreateTables(); err != nil {
			return nil, err
		}
		sessions, devices = pg, pg
	} else {
		mem := store.NewMemStore()
		sessions, devices = mem, mem
	}

	dir := directory.NewFileDirectory(cfg.Home)
	exchangeSvc := exchange.New(sessions, exchange.Config{SessionTTL: cfg.SessionTTL})

	return &Wire{
		Keys:      keys,
		Messages:  message.New(dir),
		Exchange:  exchangeSvc,
		Sweeper:   exchange.NewSweeper(exchangeSvc, cfg.SweepInterval),
		Devices:   device.New(devices),
		Identity:  store.NewIdentityFileStore(cfg.Home, keys),
		Directory: dir,
	}, nil
}
