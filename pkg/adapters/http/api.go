package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	// Watch is a comma separated list of topics.
	Watch *string `form:"watch,omitempty" json:"watch,omitempty"`
}

// GetArtifactErrorsParams defines parameters for GetArtifactErrors.
type GetArtifactErrorsParams struct {
	Path *string `form:"path,omitempty" json:"path,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /state)
	GetState(w http.ResponseWriter, r *http.Request)
	// (PUT /state/active)
	SetActiveEntity(w http.ResponseWriter, r *http.Request)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
	// (POST /instances/{instanceId}/sources)
	CreateSource(w http.ResponseWriter, r *http.Request, instanceID string)
	// (POST /instances/{instanceId}/sources/{name}/refresh)
	RefreshSource(w http.ResponseWriter, r *http.Request, instanceID string, name string)
	// (GET /instances/{instanceId}/files)
	ListFiles(w http.ResponseWriter, r *http.Request, instanceID string)
	// (GET /instances/{instanceId}/files/-/{path})
	GetFile(w http.ResponseWriter, r *http.Request, instanceID string, path string)
	// (GET /artifacts/errors)
	GetArtifactErrors(w http.ResponseWriter, r *http.Request, params GetArtifactErrorsParams)
	// (GET /notifications)
	ListNotifications(w http.ResponseWriter, r *http.Request)
	// (DELETE /notifications/{id})
	DismissNotification(w http.ResponseWriter, r *http.Request, id string)
	// (GET /queue)
	GetQueue(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper binds parameters before calling the handlers.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) queryParam(w http.ResponseWriter, r *http.Request, name string, dest **string) bool {
	err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// SubscribeEvents operation middleware
func (siw *ServerInterfaceWrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var params SubscribeEventsParams
	if !siw.queryParam(w, r, "watch", &params.Watch) {
		return
	}
	siw.Handler.SubscribeEvents(w, r, params)
}

// CreateSource operation middleware
func (siw *ServerInterfaceWrapper) CreateSource(w http.ResponseWriter, r *http.Request) {
	var instanceID string
	if !siw.pathParam(w, r, "instanceId", &instanceID) {
		return
	}
	siw.Handler.CreateSource(w, r, instanceID)
}

// RefreshSource operation middleware
func (siw *ServerInterfaceWrapper) RefreshSource(w http.ResponseWriter, r *http.Request) {
	var instanceID, name string
	if !siw.pathParam(w, r, "instanceId", &instanceID) {
		return
	}
	if !siw.pathParam(w, r, "name", &name) {
		return
	}
	siw.Handler.RefreshSource(w, r, instanceID, name)
}

// ListFiles operation middleware
func (siw *ServerInterfaceWrapper) ListFiles(w http.ResponseWriter, r *http.Request) {
	var instanceID string
	if !siw.pathParam(w, r, "instanceId", &instanceID) {
		return
	}
	siw.Handler.ListFiles(w, r, instanceID)
}

// GetFile operation middleware
func (siw *ServerInterfaceWrapper) GetFile(w http.ResponseWriter, r *http.Request) {
	var instanceID string
	if !siw.pathParam(w, r, "instanceId", &instanceID) {
		return
	}
	path := chi.URLParam(r, "*")
	if path == "" {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "path", Err: errors.New("path is required")})
		return
	}
	siw.Handler.GetFile(w, r, instanceID, "/"+path)
}

// GetArtifactErrors operation middleware
func (siw *ServerInterfaceWrapper) GetArtifactErrors(w http.ResponseWriter, r *http.Request) {
	var params GetArtifactErrorsParams
	if !siw.queryParam(w, r, "path", &params.Path) {
		return
	}
	siw.Handler.GetArtifactErrors(w, r, params)
}

// DismissNotification operation middleware
func (siw *ServerInterfaceWrapper) DismissNotification(w http.ResponseWriter, r *http.Request) {
	var id string
	if !siw.pathParam(w, r, "id", &id) {
		return
	}
	siw.Handler.DismissNotification(w, r, id)
}

// HandlerFromMux registers the routes of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/state", si.GetState)
	r.Put("/state/active", si.SetActiveEntity)
	r.Get("/events", wrapper.SubscribeEvents)
	r.Post("/instances/{instanceId}/sources", wrapper.CreateSource)
	r.Post("/instances/{instanceId}/sources/{name}/refresh", wrapper.RefreshSource)
	r.Get("/instances/{instanceId}/files", wrapper.ListFiles)
	r.Get("/instances/{instanceId}/files/-/*", wrapper.GetFile)
	r.Get("/artifacts/errors", wrapper.GetArtifactErrors)
	r.Get("/notifications", si.ListNotifications)
	r.Delete("/notifications/{id}", wrapper.DismissNotification)
	r.Get("/queue", si.GetQueue)
	return r
}
