package matching

import (
	"log/slog"

	httpadapter "meridian/internal/matching/adapters/http"
	"meridian/internal/matching/adapters/memory"
	application "meridian/internal/matching/application"
	"meridian/internal/matching/application/commands"
	"meridian/internal/matching/application/queries"
	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Commands commands.UseCase
	Queries  queries.UseCase
	Store    *memory.Store
}

type Dependencies struct {
	Repository   ports.Repository
	Applications ports.ApplicationSource
	Companies    ports.CompanyDirectory
	Analytics    ports.AnalyticsLog
	Capacity     ports.CapacityStore
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recorder := application.Recorder{
		Events: deps.Analytics,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	commandUseCase := commands.UseCase{
		Distributions: deps.Repository,
		Applications:  deps.Applications,
		Companies:     deps.Companies,
		Capacity:      deps.Capacity,
		Recorder:      recorder,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		Logger:        deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Distributions: deps.Repository,
		Analytics:     deps.Analytics,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		Commands: commandUseCase,
		Queries:  queryUseCase,
	}
}

func NewInMemoryModule(
	applications []entities.Application,
	companies []entities.CompanyProfile,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(applications, companies)
	module := NewModule(Dependencies{
		Repository:   store,
		Applications: store,
		Companies:    store,
		Analytics:    store,
		Capacity:     store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	return module
}
