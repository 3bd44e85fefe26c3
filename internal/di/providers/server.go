package providers

import (
	"context"
	"errors"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/kirjastoapp/kirjasto-server/internal/api"
	"github.com/kirjastoapp/kirjasto-server/internal/config"
	"github.com/kirjastoapp/kirjasto-server/internal/graph"
	"github.com/kirjastoapp/kirjasto-server/internal/logger"
	"github.com/kirjastoapp/kirjasto-server/internal/mdns"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
)

// ProvideSchema builds the GraphQL schema with the resolver graph wired
// in. MustParseSchema panics on a schema/resolver mismatch, which is the
// desired startup behavior.
func ProvideSchema(i do.Injector) (*graphql.Schema, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	authService := do.MustInvoke[*service.AuthService](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	resolver := graph.NewResolver(catalog, authService, busHandle.Bus, log.Logger)
	return graph.NewSchema(resolver), nil
}

// HTTPServerHandle wraps the API server with Shutdownable.
type HTTPServerHandle struct {
	*api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, started in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authService := do.MustInvoke[*service.AuthService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	log := do.MustInvoke[*logger.Logger](i)

	srv := api.NewServer(cfg, authService, storeHandle.Store, schema, log.Logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps the mDNS service with Shutdownable.
type MDNSServiceHandle struct {
	Service *mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.Service != nil {
		h.Service.Stop()
	}
	return nil
}

// ProvideMDNSService provides mDNS advertisement when enabled.
// Advertisement failures are non-fatal; the server works without
// discovery.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Ensure the HTTP server is up before advertising it.
	_ = do.MustInvoke[*HTTPServerHandle](i)

	if !cfg.Server.AdvertiseMDNS {
		return &MDNSServiceHandle{}, nil
	}

	svc := mdns.NewService(log.Logger)
	if err := svc.Start(cfg.Server.Name, cfg.Server.Port); err != nil {
		log.Warn("mDNS advertisement failed, continuing without discovery", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
