package finance

import (
	"github.com/iota-uz/legaldesk/modules/finance/presentation/controllers"
	"github.com/iota-uz/legaldesk/modules/finance/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewInvoiceService(app.Service(backend.Client{}).(*backend.Client)),
	)
	app.RegisterControllers(
		controllers.NewInvoiceController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "finance"
}
