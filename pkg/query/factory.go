package query

import "encoding/json"

// CreateQueryClient returns a new Client with the workbench policy: queries are
// never refetched on mount, reconnect or window focus, failed queries are never
// retried, and the placeholder is an empty object.
func CreateQueryClient(opts ...ClientOption) *Client {
	all := append([]ClientOption{WithDefaultOptions(Options{
		RefetchOnMount:       false,
		RefetchOnReconnect:   false,
		RefetchOnWindowFocus: false,
		Retry:                0,
		PlaceholderData:      json.RawMessage(`{}`),
	})}, opts...)
	return NewClient(all...)
}
