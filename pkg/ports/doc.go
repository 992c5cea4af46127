/*
Package ports defines the driven ports (interfaces) of the rillweb workbench.

These interfaces decouple the stores and source workflows from the runtime API,
the query cache backend and the user interface, so every collaborator can be
swapped for an adapter or a test fake.

# Key Interfaces

  - RuntimeService / Uploader: the remote reconcile mutations and file upload.
  - CacheStore: byte-oriented storage behind the query client (memory, Redis).
  - RequestDeactivator: the side channel told when an entity loses focus.
  - Navigator, Notifier, Overlay, FileDialog, ErrorRecorder, CacheInvalidator:
    the UI-facing collaborators of the source workflows.
*/
package ports
