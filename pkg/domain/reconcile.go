package domain

// CharLocation points at a position inside an artifact file.
type CharLocation struct {
	Line uint32 `json:"line"`
}

// ReconcileErrorCode classifies a reconcile error.
type ReconcileErrorCode string

const (
	ReconcileErrorUnspecified ReconcileErrorCode = "CODE_UNSPECIFIED"
	ReconcileErrorSyntax      ReconcileErrorCode = "CODE_SYNTAX"
	ReconcileErrorValidation  ReconcileErrorCode = "CODE_VALIDATION"
	ReconcileErrorDependency  ReconcileErrorCode = "CODE_DEPENDENCY"
	ReconcileErrorOLAP        ReconcileErrorCode = "CODE_OLAP"
	ReconcileErrorSourcePerm  ReconcileErrorCode = "CODE_SOURCE_PERMISSION_DENIED"
	ReconcileErrorSource      ReconcileErrorCode = "CODE_SOURCE"
)

// ReconcileError is a structured, non-exceptional reconcile failure.
type ReconcileError struct {
	Code          ReconcileErrorCode `json:"code,omitempty"`
	Message       string             `json:"message"`
	FilePath      string             `json:"filePath,omitempty"`
	PropertyPath  []string           `json:"propertyPath,omitempty"`
	StartLocation *CharLocation      `json:"startLocation,omitempty"`
}

// ReconcileResponse is the envelope returned by every reconcile mutation.
type ReconcileResponse struct {
	Errors        []ReconcileError `json:"errors"`
	AffectedPaths []string         `json:"affectedPaths"`
}

// HasErrors reports whether the reconcile produced any structured error.
func (r *ReconcileResponse) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// PutFileAndReconcileRequest writes a file and reconciles the project.
type PutFileAndReconcileRequest struct {
	InstanceID string `json:"instanceId"`
	Path       string `json:"path"`
	Blob       string `json:"blob"`
	Create     bool   `json:"create"`
	CreateOnly bool   `json:"createOnly"`
	Strict     bool   `json:"strict"`
	DryRun     bool   `json:"dryRun,omitempty"`
}

// RefreshAndReconcileRequest re-ingests the artifact at Path and reconciles.
type RefreshAndReconcileRequest struct {
	InstanceID string `json:"instanceId"`
	Path       string `json:"path"`
	Strict     bool   `json:"strict,omitempty"`
}
