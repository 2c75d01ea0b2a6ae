// Package dispatch is the inbound-event bounded context: it receives
// the business webhooks, classifies projects, and hands conversation
// chains to the scheduler.
package dispatch

import (
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/directory"
	"bidrelay_backend/internal/dispatch/handler"
	"bidrelay_backend/internal/dispatch/service"
	"bidrelay_backend/internal/email"
	"bidrelay_backend/internal/events"
	apphttp "bidrelay_backend/internal/http"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/internal/records"
	"bidrelay_backend/internal/scheduler"
	"bidrelay_backend/internal/sheets"
	"bidrelay_backend/platform/config"
	"bidrelay_backend/platform/logger"
)

// Module wires the dispatch bounded context.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the dispatch module.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, sched *scheduler.Client, bus events.Bus, conv email.TextConverter, log *logger.Logger) *Module {
	dir := directory.NewService(directory.New(pool), cfg)
	projectRepo := projects.New(pool)
	recordRepo := records.New(pool)

	renderer := email.NewTemplateRenderer(email.NewSubjectRepo(pool), cfg.GetMailTemplatesDir(), conv)
	builder := conversation.NewBuilder(
		rand.New(rand.NewSource(time.Now().UnixNano())),
		renderer,
		conversation.CCPolicy{
			Addresses: cfg.GetComplianceCC(),
			Aliases:   cfg.GetComplianceCCAliases(),
		},
	)

	svc := service.New(dir, projectRepo, builder, sched, sheets.NewGenerator(cfg.GetSettlementDir()), bus, log)
	h := handler.New(svc, projectRepo, recordRepo, handler.NewValidator())

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dispatch"
}

// Service returns the dispatch service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the webhook and read endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.POST("/bidding-register", m.handler.Register)
	ctx.Webhooks.POST("/winning-info", m.handler.Award)
	ctx.Webhooks.POST("/contract-audit", m.handler.Audit)
	ctx.Webhooks.POST("/settlement", m.handler.Settle)

	ctx.V1.GET("/projects", m.handler.ListProjects)
	ctx.V1.GET("/projects/:id", m.handler.GetProject)
	ctx.V1.GET("/projects/:id/records", m.handler.ListDeliveryRecords)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
