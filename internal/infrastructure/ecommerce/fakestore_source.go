package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storebridge/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from external APIs (10MB)
const maxResponseSize = 10 * 1024 * 1024

// FakeStoreSource implements integration.ProductSource against the Fake Store REST API
type FakeStoreSource struct {
	config     *FakeStoreConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// FakeStoreOption configures a FakeStoreSource
type FakeStoreOption func(*FakeStoreSource)

// WithFakeStoreHTTPClient replaces the HTTP client
func WithFakeStoreHTTPClient(client *http.Client) FakeStoreOption {
	return func(s *FakeStoreSource) {
		s.httpClient = client
	}
}

// WithFakeStoreLogger sets the logger
func WithFakeStoreLogger(logger *zap.Logger) FakeStoreOption {
	return func(s *FakeStoreSource) {
		s.logger = logger
	}
}

// NewFakeStoreSource creates a new Fake Store source with the given configuration
func NewFakeStoreSource(config *FakeStoreConfig, opts ...FakeStoreOption) (*FakeStoreSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &FakeStoreSource{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchProduct retrieves a single product by id
func (s *FakeStoreSource) FetchProduct(ctx context.Context, id int64) (*integration.ExternalProduct, error) {
	if !s.config.InRange(id) {
		return nil, &integration.ExternalFetchError{
			ProductID: id,
			Reason:    fmt.Sprintf("id out of range [%d, %d]", s.config.MinID, s.config.MaxID),
			Err:       integration.ErrInvalidProductID,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/products/%d", s.config.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &integration.ExternalFetchError{ProductID: id, Reason: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &integration.ExternalFetchError{ProductID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &integration.ExternalFetchError{ProductID: id, Reason: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Debug("fake store returned non-2xx",
			zap.Int64("product_id", id),
			zap.Int("status", resp.StatusCode))
		return nil, &integration.ExternalFetchError{ProductID: id, StatusCode: resp.StatusCode}
	}

	// The public API answers unknown ids with 200 and an empty body
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &integration.ExternalFetchError{ProductID: id, Reason: "empty response body"}
	}

	var payload fakeStoreProduct
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &integration.ExternalFetchError{ProductID: id, Reason: "decode response", Err: err}
	}
	if missing := payload.missingFields(); len(missing) > 0 {
		return nil, &integration.ExternalFetchError{
			ProductID: id,
			Reason:    "missing fields: " + strings.Join(missing, ", "),
		}
	}

	productID := payload.ID
	if productID == 0 {
		productID = id
	}
	return &integration.ExternalProduct{
		ID:          productID,
		Title:       *payload.Title,
		Description: *payload.Description,
		Category:    *payload.Category,
		Image:       *payload.Image,
		Price:       *payload.Price,
	}, nil
}

// Ensure FakeStoreSource implements ProductSource
var _ integration.ProductSource = (*FakeStoreSource)(nil)
