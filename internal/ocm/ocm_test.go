package ocm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-ocm/internal/config"
)

const (
	testClientID     = "cloud-services"
	testOfflineToken = "offline-refresh-token"
	testAccessToken  = "short-lived-access-token"
)

// tokenServer is a fake SSO token endpoint.
type tokenServer struct {
	*httptest.Server
	requests atomic.Int32
	status   int
	body     string
}

const okTokenBody = `{"access_token":"` + testAccessToken + `","token_type":"Bearer","expires_in":900}`

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: status, body: body}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		if r.Method != http.MethodPost || r.ParseForm() != nil ||
			r.PostForm.Get("grant_type") != "refresh_token" ||
			r.PostForm.Get("client_id") != testClientID ||
			r.PostForm.Get("refresh_token") != testOfflineToken {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ts.status)
		_, _ = w.Write([]byte(ts.body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) provider(t *testing.T) *TokenProvider {
	t.Helper()
	p, err := NewTokenProvider(config.OCM{
		ClientID:     testClientID,
		OfflineToken: testOfflineToken,
		TokenURL:     ts.URL,
	})
	require.NoError(t, err)
	return p
}

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token(context.Context) (string, error) { return s.token, s.err }

func TestNewTokenProvider_RequiresConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.OCM
		wantErr error
	}{
		{"no client id", config.OCM{OfflineToken: "t", TokenURL: "https://sso"}, config.ErrMissingClientID},
		{"no offline token", config.OCM{ClientID: "c", TokenURL: "https://sso"}, config.ErrMissingOfflineToken},
		{"no token url", config.OCM{ClientID: "c", OfflineToken: "t"}, config.ErrMissingTokenURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenProvider(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenProvider_Token(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, okTokenBody)
	p := ts.provider(t)

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccessToken, token)

	_, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), ts.requests.Load(), "every call performs its own exchange")
}

func TestTokenProvider_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_grant"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"missing access token", http.StatusOK, `{"token_type":"Bearer"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t, tt.status, tt.body)

			_, err := ts.provider(t).Token(context.Background())
			assert.ErrorIs(t, err, ErrTokenRequest)
			assert.Equal(t, int32(1), ts.requests.Load(), "no retry")
		})
	}
}

func TestTokenProvider_Unreachable(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, okTokenBody)
	p := ts.provider(t)
	ts.Close()

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenRequest)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("https://api.openshift.com", nil)
	assert.Error(t, err)

	_, err = NewClient("not a url", staticToken{token: "x"})
	assert.Error(t, err)

	c, err := NewClient("https://api.openshift.com/", staticToken{token: "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openshift.com", c.baseURL)
}

func TestClient_Get(t *testing.T) {
	var gotAuth, gotAccept, gotPath string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"kind":"ClusterList","items":[]}`))
	}))
	defer api.Close()

	c, err := NewClient(api.URL, staticToken{token: testAccessToken})
	require.NoError(t, err)

	doc, err := c.Get(context.Background(), PathClusters)
	require.NoError(t, err)

	assert.JSONEq(t, `{"kind":"ClusterList","items":[]}`, string(doc))
	assert.Equal(t, "Bearer "+testAccessToken, gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, PathClusters, gotPath)
}

func TestClient_GetErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		tokens  TokenSource
		wantErr error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"kind":"Error"}`, http.StatusNotFound)
			},
			tokens:  staticToken{token: "t"},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>maintenance</html>`))
			},
			tokens:  staticToken{token: "t"},
			wantErr: ErrInvalidJSON,
		},
		{
			name: "token failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("API must not be called without a token")
			},
			tokens:  staticToken{err: ErrTokenRequest},
			wantErr: ErrTokenRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := httptest.NewServer(tt.handler)
			defer api.Close()

			c, err := NewClient(api.URL, tt.tokens)
			require.NoError(t, err)

			doc, err := c.Get(context.Background(), PathCurrentAccount)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Nil(t, c.Fetch(context.Background(), PathCurrentAccount))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer api.Close()

	c, err := NewClient(api.URL, staticToken{token: "t"}, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), PathClusters)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_EndpointHelpers(t *testing.T) {
	var paths []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "x"})
	}))
	defer api.Close()

	c, err := NewClient(api.URL, staticToken{token: "t"})
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotNil(t, c.Clusters(ctx))
	assert.NotNil(t, c.Cluster(ctx, "abc"))
	assert.NotNil(t, c.ClusterAddons(ctx, "a/b"))
	assert.NotNil(t, c.CurrentAccount(ctx))
	assert.NotNil(t, c.ServiceClusters(ctx))

	assert.Equal(t, []string{
		"/api/clusters_mgmt/v1/clusters",
		"/api/clusters_mgmt/v1/clusters/abc",
		"/api/clusters_mgmt/v1/clusters/a%2Fb/addons",
		"/api/accounts_mgmt/v1/current_account",
		"/api/osd_fleet_mgmt/v1/service_clusters",
	}, paths)
}

func TestClient_WithTokenProvider(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK, okTokenBody)
	var calls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"username":"jdoe","id":"1"}`))
	}))
	defer api.Close()

	c, err := NewClient(api.URL, ts.provider(t))
	require.NoError(t, err)

	assert.NotNil(t, c.CurrentAccount(context.Background()))
	assert.NotNil(t, c.CurrentAccount(context.Background()))
	assert.Equal(t, int32(2), ts.requests.Load(), "one token exchange per API call")
	assert.Equal(t, int32(2), calls.Load())

	rejecting := newTokenServer(t, http.StatusUnauthorized, `{"error":"invalid_grant"}`)
	c, err = NewClient(api.URL, rejecting.provider(t))
	require.NoError(t, err)
	assert.Nil(t, c.CurrentAccount(context.Background()))
	assert.Equal(t, int32(2), calls.Load(), "API is not called when the token exchange fails")
}

func TestEndpointFor(t *testing.T) {
	tests := map[string]string{
		PathClusters:                  EndpointClusters,
		PathClusters + "/abc":         EndpointCluster,
		PathClusters + "/abc/addons":  EndpointClusterAddons,
		PathCurrentAccount:            EndpointCurrentAccount,
		PathServiceClusters:           EndpointServiceClusters,
		"/api/service_logs/v1/events": EndpointOther,
	}
	for path, want := range tests {
		assert.Equal(t, want, endpointFor(path), path)
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	errs := []error{ErrTokenRequest, ErrRequestFailed, ErrUnexpectedStatus, ErrInvalidJSON}
	for i, a := range errs {
		for j, b := range errs {
			if i != j {
				assert.False(t, errors.Is(a, b))
			}
		}
	}
}
