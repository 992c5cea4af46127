package sources

import "github.com/aretw0/rillweb/pkg/domain"

// StepDone is the terminal pseudo-step of every workflow graph.
const StepDone = "done"

// Edge links two steps. Label names the branch taken, if any.
type Edge struct {
	From  string
	To    string
	Label string
}

// Graph returns the steps and edges of workflow, or nil for unknown workflows.
func Graph(workflow string) ([]string, []Edge) {
	switch workflow {
	case domain.WorkflowCreateSource:
		return []string{StepValidate, StepPutFile, StepNavigate, StepInvalidate, StepRecordErrors, StepNotify, StepDone},
			[]Edge{
				{From: StepValidate, To: StepPutFile},
				{From: StepPutFile, To: StepDone, Label: "reconcile errors"},
				{From: StepPutFile, To: StepNavigate, Label: "ok"},
				{From: StepNavigate, To: StepInvalidate},
				{From: StepInvalidate, To: StepRecordErrors},
				{From: StepRecordErrors, To: StepNotify},
				{From: StepNotify, To: StepDone},
			}
	case domain.WorkflowRefreshSource:
		return []string{StepValidate, StepRefresh, StepSelectFile, StepUpload, StepCompile, StepPutFile, StepInvalidate, StepRecordErrors, StepDone},
			[]Edge{
				{From: StepValidate, To: StepRefresh, Label: "remote"},
				{From: StepValidate, To: StepSelectFile, Label: domain.ConnectorLocalFile},
				{From: StepSelectFile, To: StepDone, Label: "cancelled"},
				{From: StepSelectFile, To: StepUpload},
				{From: StepUpload, To: StepCompile},
				{From: StepCompile, To: StepPutFile},
				{From: StepRefresh, To: StepInvalidate},
				{From: StepPutFile, To: StepInvalidate},
				{From: StepInvalidate, To: StepRecordErrors},
				{From: StepRecordErrors, To: StepDone},
			}
	}
	return nil, nil
}
