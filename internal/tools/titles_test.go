package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "get_clusters", want: "Get Clusters"},
		{name: "get_cluster_addons", want: "Get Cluster Addons"},
		{name: "get_whoami", want: "Get Whoami"},
		{name: "get_fleet_manager_service_clusters", want: "Get Fleet Manager Service Clusters"},
		{name: "single", want: "Single"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.name))
		})
	}
}
