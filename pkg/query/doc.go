/*
Package query implements the client-side query cache of the workbench.

Results are stored as JSON in a ports.CacheStore under path-like keys, so a cache
tier can be swapped (memory, Redis) without touching callers. Concurrent fetches of
the same key are collapsed into one call.

CreateQueryClient returns a client with the workbench policy: no automatic refetch
on mount, reconnect or window focus, no retry, and an empty JSON object as
placeholder data.
*/
package query
