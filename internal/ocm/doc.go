// Package ocm talks to the OpenShift Cluster Manager API.
//
// A TokenProvider exchanges the offline refresh token for an access token
// on every call. A Client uses it to issue authenticated GET requests and
// hands back the raw JSON document. The endpoint helpers (Clusters, Cluster,
// ClusterAddons, CurrentAccount, ServiceClusters) never return an error:
// failures are logged and reported as a nil document, which the formatters
// render as their "not found" text.
package ocm
