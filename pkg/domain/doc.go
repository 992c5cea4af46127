/*
Package domain contains the core domain models of the rillweb workbench.

It defines what the user is looking at (the active entity), how entities map to
artifact files and routes, the reconcile envelope returned by the runtime, and the
source definition documents written by the source workflows. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - ActiveEntity / AppState: the focused UI entity with a one-slot history.
  - EntityType: the fixed enumeration of entity kinds (Table, Model, ...).
  - ReconcileResponse: structured reconcile errors plus the affected artifact paths.
  - SourceDefinition: the YAML document describing a source and its connector.
*/
package domain
