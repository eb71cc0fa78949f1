package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/interfaces/http/dto"
	"github.com/storebridge/backend/internal/interfaces/http/router"
)

// CatalogImporter is the part of the import service the HTTP layer drives
type CatalogImporter interface {
	Import(ctx context.Context, cmd appintegration.ImportCommand) (*appintegration.ImportResult, error)
	Submit(ctx context.Context, cmd appintegration.ImportCommand) (*integration.RunSnapshot, error)
	GetRun(ctx context.Context, runID string) (*integration.RunSnapshot, error)
	LoadSession(ctx context.Context) (*appintegration.SessionInfo, error)
}

var _ CatalogImporter = (*appintegration.CatalogImportService)(nil)

// CatalogImportHandler handles catalog import API endpoints
type CatalogImportHandler struct {
	BaseHandler
	importer CatalogImporter
}

// NewCatalogImportHandler creates a new CatalogImportHandler
func NewCatalogImportHandler(importer CatalogImporter) *CatalogImportHandler {
	return &CatalogImportHandler{importer: importer}
}

// Routes returns the catalog import route group
func (h *CatalogImportHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("catalog-import", "/catalog-import").
		GET("/session", h.GetSession).
		POST("/runs", h.CreateRun).
		POST("/runs/async", h.SubmitRun).
		GET("/runs/:id", h.GetRun)
}

// GetSession godoc
// @ID           getCatalogImportSession
// @Summary      Load import session
// @Description  Returns the connected shop and the resolved online store publication
// @Tags         catalog-import
// @Produce      json
// @Success      200 {object} APIResponse[appintegration.SessionInfo]
// @Failure      502 {object} ErrorResponse
// @Router       /catalog-import/session [get]
func (h *CatalogImportHandler) GetSession(c *gin.Context) {
	session, err := h.importer.LoadSession(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// CreateRun godoc
// @ID           createCatalogImportRun
// @Summary      Import a product
// @Description  Fetches the product, creates it with its variant and publishes it. Blocks until the run ends.
// @Tags         catalog-import
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        request body dto.CreateImportRunRequest true "Product to import"
// @Success      201 {object} APIResponse[appintegration.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /catalog-import/runs [post]
func (h *CatalogImportHandler) CreateRun(c *gin.Context) {
	cmd, ok := h.bindCommand(c)
	if !ok {
		return
	}

	result, err := h.importer.Import(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Failed() {
		h.HandleRunFailure(c, result.Err, result)
		return
	}
	h.Created(c, result)
}

// SubmitRun godoc
// @ID           submitCatalogImportRun
// @Summary      Start a background import
// @Description  Accepts the import and returns a run id to poll
// @Tags         catalog-import
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        request body dto.CreateImportRunRequest true "Product to import"
// @Success      202 {object} APIResponse[dto.AsyncRunResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /catalog-import/runs/async [post]
func (h *CatalogImportHandler) SubmitRun(c *gin.Context) {
	cmd, ok := h.bindCommand(c)
	if !ok {
		return
	}

	snapshot, err := h.importer.Submit(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.AsyncRunResponse{
		RunID:     snapshot.ID,
		State:     snapshot.State.String(),
		StatusURL: strings.TrimSuffix(c.Request.URL.Path, "/async") + "/" + snapshot.ID,
	})
}

// GetRun godoc
// @ID           getCatalogImportRun
// @Summary      Get an import run
// @Tags         catalog-import
// @Produce      json
// @Param        id path string true "Run ID"
// @Success      200 {object} APIResponse[integration.RunSnapshot]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog-import/runs/{id} [get]
func (h *CatalogImportHandler) GetRun(c *gin.Context) {
	var req dto.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	snapshot, err := h.importer.GetRun(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

func (h *CatalogImportHandler) bindCommand(c *gin.Context) (appintegration.ImportCommand, bool) {
	var req dto.CreateImportRunRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return appintegration.ImportCommand{}, false
	}
	return appintegration.ImportCommand{
		ProductToFetchID:         req.ProductToFetchID,
		OnlineStorePublicationID: req.OnlineStorePublicationID,
	}, true
}
