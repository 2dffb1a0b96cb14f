// Package config loads the OCM credentials and API location.
//
// Sources, later wins: built-in defaults, an optional YAML file, then the
// environment variables OCM_CLIENT_ID, OCM_OFFLINE_TOKEN, ACCESS_TOKEN_URL
// and OCM_API_BASE. A YAML file uses the same keys under "ocm":
//
//	ocm:
//	  client_id: cloud-services
//	  offline_token: <offline token>
//	  token_url: https://sso.redhat.com/auth/realms/redhat-external/protocol/openid-connect/token
//	  api_base: https://api.openshift.com
package config
