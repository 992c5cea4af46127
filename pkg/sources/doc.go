// Package sources orchestrates the create-source and refresh-source workflows.
//
// A workflow is a fixed sequence of steps: validate the input, call the
// runtime, branch on the reconcile result, then invalidate cached queries,
// record per-file errors and notify the user. Every collaborator is a port
// injected through Deps, and every step is reported through
// domain.WorkflowHooks.
package sources
