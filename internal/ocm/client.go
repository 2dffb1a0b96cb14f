package ocm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
)

// OCM API paths used by the tool catalog.
const (
	PathClusters        = "/api/clusters_mgmt/v1/clusters"
	PathCurrentAccount  = "/api/accounts_mgmt/v1/current_account"
	PathServiceClusters = "/api/osd_fleet_mgmt/v1/service_clusters"
)

// Logical endpoint names used as metric and span labels.
const (
	EndpointClusters        = "clusters"
	EndpointCluster         = "cluster"
	EndpointClusterAddons   = "cluster_addons"
	EndpointCurrentAccount  = "current_account"
	EndpointServiceClusters = "service_clusters"
	EndpointOther           = "other"
)

// maxResponseBytes caps how much of a response body is read. A truncated
// body fails JSON validation.
const maxResponseBytes = 32 << 20

// Errors returned by Client.Get.
var (
	ErrRequestFailed    = errors.New("OCM API request failed")
	ErrUnexpectedStatus = errors.New("OCM API returned an unexpected status")
	ErrInvalidJSON      = errors.New("OCM API returned invalid JSON")
)

// Client performs authenticated GET requests against the OCM API.
type Client struct {
	baseURL string
	tokens  TokenSource

	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid OCM API base %q", baseURL)
	}

	o := newOptions(opts)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: o.httpClient,
		metrics:    o.metrics,
		logger:     o.logger,
	}, nil
}

// Get fetches path with a freshly obtained token and returns the body,
// which is guaranteed to be valid JSON.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	endpoint := endpointFor(path)

	ctx, span := instrumentation.StartOCMSpan(ctx, "get", endpoint)
	defer span.End()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRequestFailed, err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordOCMRequest(ctx, endpoint, 0, time.Since(start))
		err = fmt.Errorf("%w: %w", ErrRequestFailed, err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordOCMRequest(ctx, endpoint, resp.StatusCode, time.Since(start))
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithStatusCode(resp.StatusCode).Build()...)
	if err != nil {
		err = fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if !json.Valid(body) {
		err = fmt.Errorf("%w: GET %s", ErrInvalidJSON, path)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	return json.RawMessage(body), nil
}

// Fetch is Get with failures reported as "no data": any error is logged and
// nil is returned.
func (c *Client) Fetch(ctx context.Context, path string) json.RawMessage {
	doc, err := c.Get(ctx, path)
	if err != nil {
		c.logger.Warn("OCM request failed",
			logging.Endpoint(endpointFor(path)),
			logging.Path(path),
			logging.SanitizedErr(err))
		return nil
	}
	return doc
}

// Clusters lists the clusters visible to the account.
func (c *Client) Clusters(ctx context.Context) json.RawMessage {
	return c.Fetch(ctx, PathClusters)
}

// Cluster fetches a single cluster.
func (c *Client) Cluster(ctx context.Context, clusterID string) json.RawMessage {
	return c.Fetch(ctx, PathClusters+"/"+url.PathEscape(clusterID))
}

// ClusterAddons lists the addons installed on a cluster.
func (c *Client) ClusterAddons(ctx context.Context, clusterID string) json.RawMessage {
	return c.Fetch(ctx, PathClusters+"/"+url.PathEscape(clusterID)+"/addons")
}

// CurrentAccount fetches the account the offline token belongs to.
func (c *Client) CurrentAccount(ctx context.Context) json.RawMessage {
	return c.Fetch(ctx, PathCurrentAccount)
}

// ServiceClusters lists the fleet manager service clusters.
func (c *Client) ServiceClusters(ctx context.Context) json.RawMessage {
	return c.Fetch(ctx, PathServiceClusters)
}

// endpointFor maps a request path to its logical endpoint name so that
// cluster ids never become label values.
func endpointFor(path string) string {
	switch {
	case path == PathClusters:
		return EndpointClusters
	case strings.HasPrefix(path, PathClusters+"/"):
		if strings.HasSuffix(path, "/addons") {
			return EndpointClusterAddons
		}
		return EndpointCluster
	case path == PathCurrentAccount:
		return EndpointCurrentAccount
	case path == PathServiceClusters:
		return EndpointServiceClusters
	default:
		return EndpointOther
	}
}
