package ocmtools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-ocm/internal/ocm/format"
	"github.com/giantswarm/mcp-ocm/internal/tools"
)

// fakeAPI returns canned documents and records the cluster ids it was asked for.
type fakeAPI struct {
	clusters        json.RawMessage
	cluster         json.RawMessage
	addons          json.RawMessage
	account         json.RawMessage
	serviceClusters json.RawMessage

	requestedIDs []string
}

func (f *fakeAPI) Clusters(context.Context) json.RawMessage { return f.clusters }

func (f *fakeAPI) Cluster(_ context.Context, id string) json.RawMessage {
	f.requestedIDs = append(f.requestedIDs, id)
	return f.cluster
}

func (f *fakeAPI) ClusterAddons(_ context.Context, id string) json.RawMessage {
	f.requestedIDs = append(f.requestedIDs, id)
	return f.addons
}

func (f *fakeAPI) CurrentAccount(context.Context) json.RawMessage  { return f.account }
func (f *fakeAPI) ServiceClusters(context.Context) json.RawMessage { return f.serviceClusters }

func dispatch(t *testing.T, api *fakeAPI, tool string, args map[string]any) string {
	t.Helper()
	r, err := NewRegistry(api)
	require.NoError(t, err)
	out, err := r.Dispatch(context.Background(), tool, args)
	require.NoError(t, err)
	return out
}

func TestCatalog(t *testing.T) {
	r, err := NewRegistry(&fakeAPI{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		ToolGetCluster,
		ToolGetClusterAddons,
		ToolGetClusters,
		ToolGetFleetManagerServiceClusters,
		ToolGetWhoami,
	}, r.Names())

	want := map[string]string{
		ToolGetClusters:                    "state",
		ToolGetCluster:                     "cluster_id",
		ToolGetClusterAddons:               "cluster_id",
		ToolGetWhoami:                      "state",
		ToolGetFleetManagerServiceClusters: "state",
	}
	for name, param := range want {
		d, ok := r.Lookup(name)
		require.True(t, ok, name)
		require.Len(t, d.Params, 1, name)
		assert.Equal(t, param, d.Params[0].Name, name)
		assert.Equal(t, tools.ParamString, d.Params[0].Type, name)
		assert.True(t, d.Params[0].Required, name)
		assert.NotEmpty(t, d.Description, name)
	}
}

func TestGetClusters(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "absent document",
			doc:  "",
			want: format.NoClusters,
		},
		{
			name: "missing items",
			doc:  `{"kind":"ClusterList"}`,
			want: format.NoClusters,
		},
		{
			name: "two clusters",
			doc:  `{"items":[{"name":"a","id":"1","api":{"url":"https://api.a"},"console":{"url":"https://console.a"}},{"name":"b"}]}`,
			want: "Cluster: a\n  ID: 1\n  API URL: https://api.a\n  Console URL: https://console.a\n" +
				"\n" +
				"Cluster: b\n  ID: N/A\n  API URL: N/A\n  Console URL: N/A\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if tt.doc != "" {
				api.clusters = json.RawMessage(tt.doc)
			}
			assert.Equal(t, tt.want, dispatch(t, api, ToolGetClusters, map[string]any{"state": "ready"}))
		})
	}
}

func TestGetCluster(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "id only",
			doc:  `{"id":"c1"}`,
			want: "Cluster: N/A\n  ID: c1\n  API URL: N/A\n  Console URL: N/A\n",
		},
		{
			name: "full cluster",
			doc:  `{"id":"c1","name":"prod","api":{"url":"https://api.prod"},"console":{"url":"https://console.prod"}}`,
			want: "Cluster: prod\n  ID: c1\n  API URL: https://api.prod\n  Console URL: https://console.prod\n",
		},
		{
			name: "absent document",
			doc:  "",
			want: FailedCluster,
		},
		{
			name: "document without id",
			doc:  `{"name":"prod"}`,
			want: FailedCluster,
		},
		{
			name: "empty id",
			doc:  `{"id":""}`,
			want: FailedCluster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if tt.doc != "" {
				api.cluster = json.RawMessage(tt.doc)
			}
			assert.Equal(t, tt.want, dispatch(t, api, ToolGetCluster, map[string]any{"cluster_id": "c1"}))
			assert.Equal(t, []string{"c1"}, api.requestedIDs)
		})
	}
}

func TestGetClusterAddons(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "addons listed",
			doc:  `{"items":[{"name":"logging","state":"ready"},{"addon":{"id":"x"}}]}`,
			want: "Addon: logging\n  State: ready\n\nAddon: N/A\n  State: N/A\n",
		},
		{
			name: "absent document",
			doc:  "",
			want: FailedAddons,
		},
		{
			name: "empty object",
			doc:  `{}`,
			want: FailedAddons,
		},
		{
			name: "empty items",
			doc:  `{"items":[]}`,
			want: format.NoAddons,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if tt.doc != "" {
				api.addons = json.RawMessage(tt.doc)
			}
			assert.Equal(t, tt.want, dispatch(t, api, ToolGetClusterAddons, map[string]any{"cluster_id": "abc/def"}))
			assert.Equal(t, []string{"abc/def"}, api.requestedIDs)
		})
	}
}

func TestGetWhoami(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "account",
			doc:  `{"username":"alice","id":"u1"}`,
			want: "Username: alice\n  ID: u1\n",
		},
		{
			name: "account with missing fields",
			doc:  `{"kind":"Account"}`,
			want: "Username: N/A\n  ID: N/A\n",
		},
		{
			name: "absent document",
			doc:  "",
			want: FailedWhoami,
		},
		{
			name: "empty object",
			doc:  `{}`,
			want: FailedWhoami,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if tt.doc != "" {
				api.account = json.RawMessage(tt.doc)
			}
			assert.Equal(t, tt.want, dispatch(t, api, ToolGetWhoami, map[string]any{"state": ""}))
		})
	}
}

func TestGetFleetManagerServiceClusters(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "service cluster",
			doc:  `{"items":[{"name":"sc1","id":"1","status":"ready","sector":"main","creation_timestamp":"2024-01-01T00:00:00Z"}]}`,
			want: "Cluster: sc1\n  ID: 1\n  STATUS: ready\n  SECTOR: main\n  CREATION_TIMESTAMP: 2024-01-01T00:00:00Z\n",
		},
		{
			name: "absent document",
			doc:  "",
			want: format.NoServiceClusters,
		},
		{
			name: "null items",
			doc:  `{"items":null}`,
			want: format.NoServiceClusters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			if tt.doc != "" {
				api.serviceClusters = json.RawMessage(tt.doc)
			}
			assert.Equal(t, tt.want, dispatch(t, api, ToolGetFleetManagerServiceClusters, map[string]any{"state": "any"}))
		})
	}
}

func TestStateIsRequired(t *testing.T) {
	r, err := NewRegistry(&fakeAPI{})
	require.NoError(t, err)

	for _, name := range []string{ToolGetClusters, ToolGetWhoami, ToolGetFleetManagerServiceClusters} {
		_, err := r.Dispatch(context.Background(), name, map[string]any{})
		assert.ErrorIs(t, err, tools.ErrInvalidArguments, name)
	}
	for _, name := range []string{ToolGetCluster, ToolGetClusterAddons} {
		_, err := r.Dispatch(context.Background(), name, map[string]any{"cluster_id": 7.0})
		assert.ErrorIs(t, err, tools.ErrInvalidArguments, name)
	}
}
