package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/interfaces/http/dto"
	"github.com/storebridge/backend/internal/interfaces/http/middleware"
	"github.com/storebridge/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRunID = "5f0c6a52-1c1e-4b7a-9a57-3f7f1d1f6b20"

type MockCatalogImporter struct {
	mock.Mock
}

func (m *MockCatalogImporter) Import(ctx context.Context, cmd appintegration.ImportCommand) (*appintegration.ImportResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appintegration.ImportResult), args.Error(1)
}

func (m *MockCatalogImporter) Submit(ctx context.Context, cmd appintegration.ImportCommand) (*integration.RunSnapshot, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RunSnapshot), args.Error(1)
}

func (m *MockCatalogImporter) GetRun(ctx context.Context, runID string) (*integration.RunSnapshot, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RunSnapshot), args.Error(1)
}

func (m *MockCatalogImporter) LoadSession(ctx context.Context) (*appintegration.SessionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appintegration.SessionInfo), args.Error(1)
}

func setupCatalogImportRouter(t *testing.T) (*gin.Engine, *MockCatalogImporter) {
	t.Helper()
	middleware.SetupValidator()

	importer := new(MockCatalogImporter)
	t.Cleanup(func() { importer.AssertExpectations(t) })

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	r.Register(NewCatalogImportHandler(importer).Routes())
	r.Setup()
	return engine, importer
}

func serve(engine *gin.Engine, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func successfulResult() *appintegration.ImportResult {
	return &appintegration.ImportResult{
		RunID: testRunID,
		State: integration.RunStateDone,
		Product: &integration.CreatedProduct{
			ID:    "gid://shopify/Product/1001",
			Title: "Fjallraven - Foldsack No. 1 Backpack, Fits 15 Laptops",
		},
		Variant: &integration.CreatedVariant{
			ID:    "gid://shopify/ProductVariant/2002",
			Price: "109.95",
		},
		Publication: &appintegration.PublicationResult{ID: "gid://shopify/Publication/7", Published: true},
		AdminURL:    "https://admin.shopify.com/store/acme/products/1001",
	}
}

func TestCatalogImportHandler_CreateRun_JSON(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("Import", mock.Anything, appintegration.ImportCommand{ProductToFetchID: 1}).
		Return(successfulResult(), nil).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", "application/json", `{"productToFetchId": 1}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp APIResponse[appintegration.ImportResult]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, integration.RunStateDone, resp.Data.State)
	assert.Equal(t, "gid://shopify/Product/1001", resp.Data.Product.ID)
	assert.Equal(t, "109.95", resp.Data.Variant.Price)
	assert.True(t, resp.Data.Publication.Published)
	assert.Equal(t, "https://admin.shopify.com/store/acme/products/1001", resp.Data.AdminURL)
}

func TestCatalogImportHandler_CreateRun_FormWithPublication(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("Import", mock.Anything, appintegration.ImportCommand{
		ProductToFetchID:         3,
		OnlineStorePublicationID: "gid://shopify/Publication/7",
	}).Return(successfulResult(), nil).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", "application/x-www-form-urlencoded",
		"productToFetchId=3&onlineStorePublicationId=gid%3A%2F%2Fshopify%2FPublication%2F7")

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCatalogImportHandler_CreateRun_ValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		code        string
	}{
		{"missing id", "application/json", `{}`, dto.ErrCodeValidation},
		{"negative id", "application/json", `{"productToFetchId": -1}`, dto.ErrCodeValidation},
		{"non numeric form id", "application/x-www-form-urlencoded", "productToFetchId=abc", dto.ErrCodeInvalidJSON},
		{"malformed json", "application/json", `{"productToFetchId":`, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := setupCatalogImportRouter(t)

			w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", tt.contentType, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestCatalogImportHandler_CreateRun_FailedRun(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "external fetch",
			err:     &integration.ExternalFetchError{ProductID: 9999, StatusCode: http.StatusNotFound},
			status:  http.StatusBadGateway,
			code:    dto.ErrCodeExternalFetch,
			message: "Failed to fetch product from Fake Store API.",
		},
		{
			name: "catalog validation",
			err: &integration.CatalogValidationError{
				Operation:  "productCreate",
				UserErrors: []integration.UserError{{Field: []string{"title"}, Message: "Title can't be blank"}},
			},
			status:  http.StatusUnprocessableEntity,
			code:    dto.ErrCodeCatalogValidation,
			message: "Catalog rejected the product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, importer := setupCatalogImportRouter(t)

			importer.On("Import", mock.Anything, mock.Anything).Return(&appintegration.ImportResult{
				RunID: testRunID,
				State: integration.RunStateErrored,
				Err:   tt.err,
				Error: integration.NewRunError(tt.err),
			}, nil).Once()

			w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", "application/json", `{"productToFetchId": 9999}`)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.NotNil(t, resp.Data, "failed runs still carry the result")
		})
	}
}

func TestCatalogImportHandler_CreateRun_FailedAfterProductCreated(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	variantErr := &integration.CatalogValidationError{
		Operation:  "productVariantsBulkCreate",
		UserErrors: []integration.UserError{{Field: []string{"variants", "0", "price"}, Message: "Price is invalid"}},
	}
	importer.On("Import", mock.Anything, mock.Anything).Return(&appintegration.ImportResult{
		RunID:      testRunID,
		State:      integration.RunStateErrored,
		Product:    &integration.CreatedProduct{ID: "gid://shopify/Product/1001", Title: "Backpack"},
		FailedStep: integration.RunStateVariantUpdating,
		AdminURL:   "https://admin.shopify.com/store/acme/products/1001",
		Err:        variantErr,
		Error:      integration.NewRunError(variantErr),
	}, nil).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", "application/json", `{"productToFetchId": 1}`)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp APIResponse[appintegration.ImportResult]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeCatalogValidation, resp.Error.Code)
	assert.Equal(t, []dto.ValidationDetail{{Field: "variants.0.price", Message: "Price is invalid"}}, resp.Error.Details)

	// the orphaned product and the run id stay reachable
	assert.Equal(t, testRunID, resp.Data.RunID)
	assert.Equal(t, integration.RunStateErrored, resp.Data.State)
	assert.Equal(t, integration.RunStateVariantUpdating, resp.Data.FailedStep)
	require.NotNil(t, resp.Data.Product)
	assert.Equal(t, "gid://shopify/Product/1001", resp.Data.Product.ID)
	assert.False(t, resp.Data.CleanedUp)
	assert.Equal(t, "https://admin.shopify.com/store/acme/products/1001", resp.Data.AdminURL)
}

func TestCatalogImportHandler_CreateRun_InFlight(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("Import", mock.Anything, mock.Anything).Return(nil, integration.ErrImportInFlight).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs", "application/json", `{"productToFetchId": 1}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConflict, decodeResponse(t, w).Error.Code)
}

func TestCatalogImportHandler_SubmitRun(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("Submit", mock.Anything, appintegration.ImportCommand{ProductToFetchID: 5}).
		Return(&integration.RunSnapshot{ID: testRunID, ProductToFetchID: 5, State: integration.RunStateIdle}, nil).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs/async", "application/json", `{"productToFetchId": 5}`)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp APIResponse[dto.AsyncRunResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.AsyncRunResponse{
		RunID:     testRunID,
		State:     "IDLE",
		StatusURL: "/api/v1/catalog-import/runs/" + testRunID,
	}, resp.Data)
}

func TestCatalogImportHandler_SubmitRun_ServiceClosed(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("Submit", mock.Anything, mock.Anything).Return(nil, appintegration.ErrServiceClosed).Once()

	w := serve(engine, http.MethodPost, "/api/v1/catalog-import/runs/async", "application/json", `{"productToFetchId": 5}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogImportHandler_GetRun(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("GetRun", mock.Anything, testRunID).Return(&integration.RunSnapshot{
		ID:               testRunID,
		ProductToFetchID: 5,
		State:            integration.RunStatePublishing,
		PublicationID:    "gid://shopify/Publication/7",
	}, nil).Once()

	w := serve(engine, http.MethodGet, "/api/v1/catalog-import/runs/"+testRunID, "", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse[integration.RunSnapshot]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, integration.RunStatePublishing, resp.Data.State)
	assert.Equal(t, integration.PublicationID("gid://shopify/Publication/7"), resp.Data.PublicationID)
}

func TestCatalogImportHandler_GetRun_NotFound(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("GetRun", mock.Anything, testRunID).Return(nil, integration.ErrRunNotFound).Once()

	w := serve(engine, http.MethodGet, "/api/v1/catalog-import/runs/"+testRunID, "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
}

func TestCatalogImportHandler_GetRun_InvalidID(t *testing.T) {
	engine, _ := setupCatalogImportRouter(t)

	w := serve(engine, http.MethodGet, "/api/v1/catalog-import/runs/not-a-uuid", "", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "id", resp.Error.Details[0].Field)
}

func TestCatalogImportHandler_GetSession(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("LoadSession", mock.Anything).Return(&appintegration.SessionInfo{
		ShopName:                 "Acme",
		ShopDomain:               "acme.myshopify.com",
		StoreHandle:              "acme",
		PublicationName:          "Online Store",
		OnlineStorePublicationID: "gid://shopify/Publication/7",
	}, nil).Once()

	w := serve(engine, http.MethodGet, "/api/v1/catalog-import/session", "", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse[appintegration.SessionInfo]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acme", resp.Data.StoreHandle)
	assert.Equal(t, integration.PublicationID("gid://shopify/Publication/7"), resp.Data.OnlineStorePublicationID)
}

func TestCatalogImportHandler_GetSession_TransportError(t *testing.T) {
	engine, importer := setupCatalogImportRouter(t)

	importer.On("LoadSession", mock.Anything).
		Return(nil, &integration.TransportError{Operation: "shop", StatusCode: http.StatusUnauthorized}).Once()

	w := serve(engine, http.MethodGet, "/api/v1/catalog-import/session", "", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeCatalogTransport, decodeResponse(t, w).Error.Code)
}
