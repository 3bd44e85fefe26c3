package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/kirjastoapp/kirjasto-server/internal/bus"
	"github.com/kirjastoapp/kirjasto-server/internal/config"
	"github.com/kirjastoapp/kirjasto-server/internal/logger"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// BusHandle wraps the event bus with shutdown capability.
type BusHandle struct {
	*bus.Bus
}

// Shutdown implements do.Shutdownable.
func (h *BusHandle) Shutdown() error {
	h.Bus.Shutdown()
	return nil
}

// ProvideBus provides the in-process event bus.
func ProvideBus(i do.Injector) (*BusHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &BusHandle{Bus: bus.New(log.Logger)}, nil
}
