package planner

import "github.com/google/uuid"

// Operation names the kind of change an action performs.
type Operation string

// Supported operations.
const (
	OperationUpdateGitIgnore            Operation = "update-gitignore"
	OperationCreateFile                 Operation = "create-file"
	OperationConfigureBranchProtection  Operation = "configure-branch-protection"
	OperationUpdateRepositorySettings   Operation = "update-repository-settings"
)

// Action is one advisory remediation step.
type Action struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Operation   Operation `json:"operation"`
	TargetPath  string    `json:"target_path,omitempty"`
	Details     []string  `json:"details,omitempty"`
}

// NewAction constructs an action with a fresh identifier.
func NewAction(categoryName string, description string, operation Operation) Action {
	return Action{
		ID:          uuid.New(),
		Category:    categoryName,
		Description: description,
		Operation:   operation,
	}
}

// WithTarget sets the file the action would create or update.
func (action Action) WithTarget(targetPath string) Action {
	action.TargetPath = targetPath
	return action
}

// WithDetail appends one detail line.
func (action Action) WithDetail(detail string) Action {
	action.Details = append(action.Details, detail)
	return action
}

// ActionPlan is an ordered list of advisory actions.
type ActionPlan struct {
	Actions []Action `json:"actions"`
}

// Add appends an action to the plan.
func (plan *ActionPlan) Add(action Action) {
	plan.Actions = append(plan.Actions, action)
}

// Len reports the number of planned actions.
func (plan *ActionPlan) Len() int {
	return len(plan.Actions)
}

// IsEmpty reports whether no actions were planned.
func (plan *ActionPlan) IsEmpty() bool {
	return len(plan.Actions) == 0
}

// FilterOnly keeps only actions of the named categories.
func (plan *ActionPlan) FilterOnly(categoryNames []string) {
	plan.Actions = filterActions(plan.Actions, categoryNames, true)
}

// FilterSkip removes actions of the named categories.
func (plan *ActionPlan) FilterSkip(categoryNames []string) {
	plan.Actions = filterActions(plan.Actions, categoryNames, false)
}

func filterActions(actions []Action, categoryNames []string, keepMatching bool) []Action {
	nameSet := map[string]struct{}{}
	for _, categoryName := range categoryNames {
		nameSet[categoryName] = struct{}{}
	}
	filteredActions := []Action{}
	for _, action := range actions {
		_, nameMatches := nameSet[action.Category]
		if nameMatches == keepMatching {
			filteredActions = append(filteredActions, action)
		}
	}
	return filteredActions
}
