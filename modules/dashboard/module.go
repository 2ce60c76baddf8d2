package dashboard

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
	"github.com/iota-uz/legaldesk/modules/dashboard/infrastructure/persistence"
	"github.com/iota-uz/legaldesk/modules/dashboard/presentation/controllers"
	"github.com/iota-uz/legaldesk/modules/dashboard/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/configuration"
)

func NewModule(conf *configuration.Configuration) application.Module {
	return &Module{conf: conf}
}

type Module struct {
	conf *configuration.Configuration
}

func (m *Module) store() (layout.Store, error) {
	switch m.conf.Dashboard.LayoutStore {
	case "redis":
		return persistence.NewRedisStore(redis.NewClient(&redis.Options{Addr: m.conf.RedisURL})), nil
	case "file", "":
		return persistence.NewFileStore(m.conf.Dashboard.LayoutDir)
	default:
		return nil, errors.Errorf("unknown layout store %q", m.conf.Dashboard.LayoutStore)
	}
}

func (m *Module) Register(app application.Application) error {
	store, err := m.store()
	if err != nil {
		return errors.Wrap(err, "dashboard")
	}
	app.RegisterServices(services.NewLayoutService(store))
	app.RegisterControllers(
		controllers.NewLayoutController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "dashboard"
}
