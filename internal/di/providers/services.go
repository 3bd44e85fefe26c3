package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
	"github.com/kirjastoapp/kirjasto-server/internal/config"
	"github.com/kirjastoapp/kirjasto-server/internal/logger"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, cfg.Auth.APIPassword, log.Logger)
}

// ProvideCatalogService provides the catalog service with a freshly
// rebuilt search index.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewCatalogService(storeHandle.Store, busHandle.Bus, searchHandle.Index, log.Logger)

	// Keep the index consistent with the store across restarts and
	// mapping changes.
	if err := svc.RebuildSearchIndex(context.Background()); err != nil {
		log.Warn("Failed to rebuild search index", "error", err)
	}

	return svc, nil
}
