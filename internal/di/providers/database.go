package providers

import (
	"context"
	"os"

	"github.com/samber/do/v2"

	"github.com/blancapp/blanc-server/internal/config"
	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/logger"
	"github.com/blancapp/blanc-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// Bootstrap holds the seeded role registry.
type Bootstrap struct {
	Roles []*domain.RoleRecord
}

// ProvideBootstrap ensures the built-in roles exist. Registration resolves
// the "user" role by name, so the registry must be seeded before the first
// signup.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	ctx := context.Background()

	var roles []*domain.RoleRecord
	for _, name := range []string{"admin", "user"} {
		roleID, err := id.Generate("role")
		if err != nil {
			return nil, err
		}
		role := &domain.RoleRecord{ID: roleID, Name: name}
		if err := storeHandle.CreateRole(ctx, role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	log.Info("Role registry ready", "roles", len(roles))

	return &Bootstrap{Roles: roles}, nil
}
