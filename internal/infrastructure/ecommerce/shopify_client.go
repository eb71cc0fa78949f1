package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storebridge/backend/internal/domain/integration"
)

// ShopifyAdminClient implements integration.CatalogPlatform against the Shopify GraphQL Admin API
type ShopifyAdminClient struct {
	config     *ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// ShopifyOption configures a ShopifyAdminClient
type ShopifyOption func(*ShopifyAdminClient)

// WithShopifyHTTPClient replaces the HTTP client
func WithShopifyHTTPClient(client *http.Client) ShopifyOption {
	return func(c *ShopifyAdminClient) {
		c.httpClient = client
	}
}

// WithShopifyLogger sets the logger
func WithShopifyLogger(logger *zap.Logger) ShopifyOption {
	return func(c *ShopifyAdminClient) {
		c.logger = logger
	}
}

// NewShopifyAdminClient creates a new Admin API client with the given configuration
func NewShopifyAdminClient(config *ShopifyConfig, opts ...ShopifyOption) (*ShopifyAdminClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &ShopifyAdminClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ShopDomain returns the configured shop domain
func (c *ShopifyAdminClient) ShopDomain() string {
	return c.config.ShopDomain
}

// CreateProduct creates a product with its media
func (c *ShopifyAdminClient) CreateProduct(ctx context.Context, draft *integration.CatalogProductDraft) (*integration.CreatedProduct, error) {
	vars := map[string]any{"product": draftToProductInput(draft)}
	if len(draft.Media) > 0 {
		vars["media"] = draftToMediaInput(draft)
	}

	var data productCreateData
	if err := c.graphqlRequest(ctx, opProductCreate, productCreateMutation, vars, &data); err != nil {
		return nil, err
	}
	if err := userErrorsToError(opProductCreate, data.ProductCreate.UserErrors); err != nil {
		return nil, err
	}
	p := data.ProductCreate.Product
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return nil, &integration.CatalogValidationError{
			Operation:  opProductCreate,
			UserErrors: []integration.UserError{{Message: "product was not returned by the catalog"}},
		}
	}

	created := &integration.CreatedProduct{
		ID:     p.ID,
		Title:  p.Title,
		Handle: p.Handle,
		Status: integration.ProductStatus(p.Status),
	}
	if len(p.Variants.Nodes) > 0 {
		created.DefaultVariantID = p.Variants.Nodes[0].ID
	}
	return created, nil
}

// CreateVariants bulk-creates variants on a product
func (c *ShopifyAdminClient) CreateVariants(ctx context.Context, productID string, variants []integration.VariantInput) ([]integration.CreatedVariant, error) {
	var data variantsBulkCreateData
	vars := map[string]any{
		"productId": productID,
		"variants":  variantsToInput(variants),
	}
	if err := c.graphqlRequest(ctx, opProductVariantsBulkCreate, productVariantsBulkCreateMutation, vars, &data); err != nil {
		return nil, err
	}
	payload := data.ProductVariantsBulkCreate
	if err := userErrorsToError(opProductVariantsBulkCreate, payload.UserErrors); err != nil {
		return nil, err
	}
	return toCreatedVariants(payload.ProductVariants), nil
}

// UpdateVariants bulk-updates existing variants of a product
func (c *ShopifyAdminClient) UpdateVariants(ctx context.Context, productID string, variants []integration.VariantInput) ([]integration.CreatedVariant, error) {
	var data variantsBulkUpdateData
	vars := map[string]any{
		"productId": productID,
		"variants":  variantsToInput(variants),
	}
	if err := c.graphqlRequest(ctx, opProductVariantsBulkUpdate, productVariantsBulkUpdateMutation, vars, &data); err != nil {
		return nil, err
	}
	payload := data.ProductVariantsBulkUpdate
	if err := userErrorsToError(opProductVariantsBulkUpdate, payload.UserErrors); err != nil {
		return nil, err
	}
	return toCreatedVariants(payload.ProductVariants), nil
}

// Publish publishes a product to a sales channel
func (c *ShopifyAdminClient) Publish(ctx context.Context, productID string, publicationID integration.PublicationID) error {
	var data publishablePublishData
	vars := map[string]any{
		"id":    productID,
		"input": []map[string]any{{"publicationId": publicationID.String()}},
	}
	if err := c.graphqlRequest(ctx, opPublishablePublish, publishablePublishMutation, vars, &data); err != nil {
		return err
	}
	return userErrorsToError(opPublishablePublish, data.PublishablePublish.UserErrors)
}

// ListPublications returns the first page of sales channels
func (c *ShopifyAdminClient) ListPublications(ctx context.Context, first int) ([]integration.Publication, error) {
	var data publicationsData
	if err := c.graphqlRequest(ctx, opPublications, publicationsQuery, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}
	out := make([]integration.Publication, 0, len(data.Publications.Edges))
	for _, edge := range data.Publications.Edges {
		out = append(out, integration.Publication{
			ID:   integration.PublicationID(edge.Node.ID),
			Name: edge.Node.Name,
		})
	}
	return out, nil
}

// DeleteProduct removes a product from the catalog
func (c *ShopifyAdminClient) DeleteProduct(ctx context.Context, productID string) error {
	var data productDeleteData
	vars := map[string]any{"input": map[string]any{"id": productID}}
	if err := c.graphqlRequest(ctx, opProductDelete, productDeleteMutation, vars, &data); err != nil {
		return err
	}
	return userErrorsToError(opProductDelete, data.ProductDelete.UserErrors)
}

// ShopInfo describes the store bound to the access token
func (c *ShopifyAdminClient) ShopInfo(ctx context.Context) (*integration.ShopInfo, error) {
	var data shopData
	if err := c.graphqlRequest(ctx, opShop, shopInfoQuery, nil, &data); err != nil {
		return nil, err
	}
	return &integration.ShopInfo{
		Name:             data.Shop.Name,
		MyshopifyDomain:  data.Shop.MyshopifyDomain,
		PrimaryDomainURL: data.Shop.PrimaryDomain.URL,
	}, nil
}

// graphqlRequest posts a document and decodes the data member into out.
// Every failure before a usable payload is a *integration.TransportError.
func (c *ShopifyAdminClient) graphqlRequest(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return &integration.TransportError{Operation: operation, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.GraphQLEndpoint(), bytes.NewReader(payload))
	if err != nil {
		return &integration.TransportError{Operation: operation, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &integration.TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &integration.TransportError{Operation: operation, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("shopify returned non-2xx",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode))
		return &integration.TransportError{Operation: operation, StatusCode: resp.StatusCode}
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &integration.TransportError{Operation: operation, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(envelope.Errors) > 0 {
		return &integration.TransportError{Operation: operation, Err: graphqlErrorsToError(envelope.Errors)}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &integration.TransportError{Operation: operation, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &integration.TransportError{Operation: operation, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func userErrorsToError(operation string, userErrors []shopifyUserError) error {
	if len(userErrors) == 0 {
		return nil
	}
	return &integration.CatalogValidationError{
		Operation:  operation,
		UserErrors: toUserErrors(userErrors),
	}
}

func graphqlErrorsToError(errs []graphqlError) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if e.Extensions.Code != "" {
			msg = fmt.Sprintf("%s (%s)", msg, e.Extensions.Code)
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
}

// Ensure ShopifyAdminClient implements CatalogPlatform
var _ integration.CatalogPlatform = (*ShopifyAdminClient)(nil)
