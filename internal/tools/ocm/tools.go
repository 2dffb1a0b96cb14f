// Package ocmtools declares the OCM tool catalog served over MCP.
package ocmtools

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-ocm/internal/ocm/format"
	"github.com/giantswarm/mcp-ocm/internal/server"
	"github.com/giantswarm/mcp-ocm/internal/tools"
)

// Tool names.
const (
	ToolGetClusters                    = "get_clusters"
	ToolGetCluster                     = "get_cluster"
	ToolGetClusterAddons               = "get_cluster_addons"
	ToolGetWhoami                      = "get_whoami"
	ToolGetFleetManagerServiceClusters = "get_fleet_manager_service_clusters"
)

// Texts returned when a single-document tool has nothing to show.
const (
	FailedCluster = "Failed to fetch cluster data."
	FailedAddons  = "Failed to fetch addons data."
	FailedWhoami  = "Failed to fetch whoami data."
)

var (
	stateParam = tools.Param{
		Name:        "state",
		Description: "Cluster state filter. Accepted for compatibility; the full list is always returned.",
		Type:        tools.ParamString,
		Required:    true,
	}
	clusterIDParam = tools.Param{
		Name:        "cluster_id",
		Description: "OCM cluster id",
		Type:        tools.ParamString,
		Required:    true,
	}
)

// Descriptors returns the tool catalog backed by api.
func Descriptors(api server.OCMClient) []tools.Descriptor {
	return []tools.Descriptor{
		{
			Name:        ToolGetClusters,
			Description: "List the OpenShift clusters visible to the configured OCM account",
			Params:      []tools.Param{stateParam},
			Handler: func(ctx context.Context, _ map[string]any) (string, error) {
				return format.Clusters(api.Clusters(ctx)), nil
			},
		},
		{
			Name:        ToolGetCluster,
			Description: "Get a single OpenShift cluster by id",
			Params:      []tools.Param{clusterIDParam},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				doc := api.Cluster(ctx, tools.StringArg(args, clusterIDParam.Name))
				if !format.HasID(doc) {
					return FailedCluster, nil
				}
				return format.Clusters(format.WrapItems(doc)), nil
			},
		},
		{
			Name:        ToolGetClusterAddons,
			Description: "List the addons installed on an OpenShift cluster",
			Params:      []tools.Param{clusterIDParam},
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				doc := api.ClusterAddons(ctx, tools.StringArg(args, clusterIDParam.Name))
				if format.IsEmpty(doc) {
					return FailedAddons, nil
				}
				return format.Addons(doc), nil
			},
		},
		{
			Name:        ToolGetWhoami,
			Description: "Show the OCM account the server is authenticated as",
			Params:      []tools.Param{stateParam},
			Handler: func(ctx context.Context, _ map[string]any) (string, error) {
				doc := api.CurrentAccount(ctx)
				if format.IsEmpty(doc) {
					return FailedWhoami, nil
				}
				return format.Whoami(doc), nil
			},
		},
		{
			Name:        ToolGetFleetManagerServiceClusters,
			Description: "List the service clusters managed by the OSD fleet manager",
			Params:      []tools.Param{stateParam},
			Handler: func(ctx context.Context, _ map[string]any) (string, error) {
				return format.ServiceClusters(api.ServiceClusters(ctx)), nil
			},
		},
	}
}

// NewRegistry builds the registry of the OCM catalog.
func NewRegistry(api server.OCMClient) (*tools.Registry, error) {
	return tools.NewRegistry(Descriptors(api)...)
}

// RegisterOCMTools registers the OCM catalog with the MCP server.
func RegisterOCMTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registry, err := NewRegistry(sc.OCMClient())
	if err != nil {
		return err
	}
	registry.Install(s, sc)
	sc.Logger().Info("registered OCM tools", "tools", registry.Names())
	return nil
}
