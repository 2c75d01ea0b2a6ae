// Package handler exposes the dispatch webhooks and read endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bidrelay_backend/internal/dispatch/service"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/internal/records"
	"bidrelay_backend/platform/httpkit"
	"bidrelay_backend/platform/validator"
)

const defaultProjectListLimit = 50

// Handler adapts HTTP requests to the dispatch service.
type Handler struct {
	svc      *service.Service
	projects *projects.Repo
	records  records.Store
	validate *validator.Validator
}

// New creates a dispatch handler.
func New(svc *service.Service, projectRepo *projects.Repo, recordStore records.Store, v *validator.Validator) *Handler {
	return &Handler{svc: svc, projects: projectRepo, records: recordStore, validate: v}
}

// Register handles POST /webhooks/bidding-register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		ProjectName:   req.ProjectName,
		SerialNumbers: req.SerialNumbers,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// Award handles POST /webhooks/winning-info.
func (h *Handler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	in := service.AwardInput{
		SerialNumber:   req.SerialNumber,
		TenderNumber:   req.TenderNumber,
		ContractNumber: req.ContractNumber,
		ContractAmount: req.ContractAmount,
	}
	if req.WinningTime != "" {
		t, err := time.Parse(time.RFC3339, req.WinningTime)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "winningTime must be RFC 3339")
			return
		}
		in.WinningTime = &t
	}

	summary, err := h.svc.RecordAward(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// Audit handles POST /webhooks/contract-audit.
func (h *Handler) Audit(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	in := service.AuditInput{SerialNumber: req.SerialNumber}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.ContractItem{
			Type:     item.Type,
			Payer:    item.Payer,
			CompanyC: item.CompanyC,
			CompanyD: item.CompanyD,
		})
	}

	summary, err := h.svc.AuditContract(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// Settle handles POST /webhooks/settlement.
func (h *Handler) Settle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	in := service.SettleInput{
		ContractNumber: req.ContractNumber,
		ReceivedAmount: req.ReceivedAmount,
	}
	for _, item := range req.ReceivableItems {
		in.ReceivableItems = append(in.ReceivableItems, projects.ReceivableItem{
			Name:   item.Name,
			Amount: item.Amount,
		})
	}

	summary, err := h.svc.Settle(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// ListProjects handles GET /api/v1/projects.
func (h *Handler) ListProjects(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), defaultProjectListLimit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"projects": list})
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handler) GetProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id")
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, project)
}

// ListDeliveryRecords handles GET /api/v1/projects/:id/records.
func (h *Handler) ListDeliveryRecords(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id")
		return
	}

	list, err := h.records.ListByProject(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"records": list})
}
