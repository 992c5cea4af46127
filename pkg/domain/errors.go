package domain

import "errors"

// ErrNoFileSelected is returned when the user closes the file dialog without a selection.
var ErrNoFileSelected = errors.New("no file selected")

// ErrUploadFailed is returned when an upload does not yield a server-side path.
var ErrUploadFailed = errors.New("file upload failed")

// ErrEmptyName is returned when an entity or source name is empty.
var ErrEmptyName = errors.New("name must not be empty")

// ErrUnknownEntityType is returned for strings outside the EntityType enumeration.
var ErrUnknownEntityType = errors.New("unknown entity type")

// ErrUnknownRoute is returned when a UI location does not map to an entity.
var ErrUnknownRoute = errors.New("unknown route")

// ErrCacheMiss is returned by cache stores when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ErrRuntimeRequest wraps transport and server failures of the runtime API.
var ErrRuntimeRequest = errors.New("runtime request failed")
