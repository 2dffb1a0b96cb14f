package ocm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-ocm/internal/config"
	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
)

// ErrTokenRequest wraps every failure to obtain an access token.
var ErrTokenRequest = errors.New("access token request failed")

// TokenSource yields a bearer token for one API call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenProvider exchanges the configured offline token for a short-lived
// access token using the OAuth refresh-token grant.
//
// Tokens are never cached: every call to Token performs one exchange.
type TokenProvider struct {
	oauth        *oauth2.Config
	offlineToken string

	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewTokenProvider creates a TokenProvider from cfg. The client id, offline
// token and token URL are required.
func NewTokenProvider(cfg config.OCM, opts ...Option) (*TokenProvider, error) {
	if cfg.ClientID == "" {
		return nil, config.ErrMissingClientID
	}
	if cfg.OfflineToken == "" {
		return nil, config.ErrMissingOfflineToken
	}
	if cfg.TokenURL == "" {
		return nil, config.ErrMissingTokenURL
	}

	o := newOptions(opts)
	return &TokenProvider{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		offlineToken: cfg.OfflineToken,
		httpClient:   o.httpClient,
		metrics:      o.metrics,
		logger:       o.logger,
	}, nil
}

// Token performs a single refresh-token exchange and returns the access token.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	ctx, span := instrumentation.StartOCMSpan(ctx, "token", "")
	defer span.End()

	// A fresh token source per call; nothing survives between calls.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: p.offlineToken}).Token()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTokenRequest, err)
		p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultFailure)
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	if tok.AccessToken == "" {
		err = fmt.Errorf("%w: response has no access_token", ErrTokenRequest)
		p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultFailure)
		instrumentation.SetSpanError(span, err)
		return "", err
	}

	p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultSuccess)
	instrumentation.SetSpanSuccess(span)
	p.logger.Debug("obtained access token",
		logging.Operation("ocm.token"),
		slog.String("token", logging.SanitizeToken(tok.AccessToken)))

	return tok.AccessToken, nil
}
