package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyNamespace prefixes every dashboard cache key in Redis.
const keyNamespace = "dash"

// Key represents a unique identifier for a cached dashboard API response.
type Key struct {
	// Endpoint is the API endpoint path (e.g., "/api/dash/pdfs/all-documents")
	Endpoint string

	// Query are the request query parameters (e.g., {"loanId": "l-1"})
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: dash:endpoint:param1=val1:param2=val2
//
// Example:
//
//	dash:api/dash/status:page=1:status=Aprobado
func (k Key) String() string {
	parts := []string{keyNamespace}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism
	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}

// Prefix returns the Redis match pattern covering every cached entry under
// an endpoint prefix, regardless of query parameters. Used to invalidate
// whole views after a mutation.
func Prefix(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return keyNamespace + ":*"
	}
	return keyNamespace + ":" + endpoint + "*"
}
