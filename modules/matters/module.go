package matters

import (
	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/modules/matters/presentation/controllers"
	"github.com/iota-uz/legaldesk/modules/matters/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/configuration"
)

func NewModule(conf *configuration.Configuration) application.Module {
	return &Module{conf: conf}
}

type Module struct {
	conf *configuration.Configuration
}

func (m *Module) Register(app application.Application) error {
	service := services.NewMatterService(
		services.NewBackendSource(app.Service(backend.Client{}).(*backend.Client)),
		services.MatterServiceOptions{
			RefreshInterval: m.conf.Backend.RefreshInterval,
			RefreshDelay:    m.conf.SearchDebounce,
			Logger:          app.Logger(),
		},
	)
	app.RegisterServices(service)
	app.RegisterControllers(
		controllers.NewMatterController(app, m.conf),
	)
	// Committed uploads can create clients that matters refer to.
	app.EventPublisher().Subscribe(func(*bulkupload.BatchCommittedEvent) {
		service.Invalidate()
	})
	return nil
}

func (m *Module) Name() string {
	return "matters"
}
