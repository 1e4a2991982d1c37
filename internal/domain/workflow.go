// Workflow state tagging.
//
// Status rows live in a registry table, but the lifecycle rules (who may
// edit, who may delete, when the resolution date is stamped) hinge on a
// handful of well-known stages. Comparing raw registry strings at every
// call site is brittle, so the well-known names are given a typed home
// here and all lifecycle decisions go through these predicates.
package domain

// WorkflowState is the typed name of a well-known workflow stage.
type WorkflowState string

// The seeded workflow stages, in advisory order.
const (
	StateSubmitted   WorkflowState = "Submitted"
	StateUnderReview WorkflowState = "Under Review"
	StateInProgress  WorkflowState = "In Progress"
	StateResolved    WorkflowState = "Resolved"
	StateRejected    WorkflowState = "Rejected"
	StateDuplicate   WorkflowState = "Duplicate"
)

// StateOf maps a registry status name to its typed state. Unknown names
// map to the empty state, for which every predicate below answers false.
func StateOf(statusName string) WorkflowState {
	switch WorkflowState(statusName) {
	case StateSubmitted, StateUnderReview, StateInProgress,
		StateResolved, StateRejected, StateDuplicate:
		return WorkflowState(statusName)
	}
	return ""
}

// Terminal reports whether no further admin-required action is expected
// after s.
func (s WorkflowState) Terminal() bool {
	switch s {
	case StateResolved, StateRejected, StateDuplicate:
		return true
	}
	return false
}

// AllowsOwnerEdit reports whether the submitting citizen may still edit
// complaint fields while the complaint sits in s.
func (s WorkflowState) AllowsOwnerEdit() bool {
	return s == StateSubmitted || s == StateUnderReview
}

// AllowsOwnerDelete reports whether the submitting citizen may still
// delete the complaint while it sits in s.
func (s WorkflowState) AllowsOwnerDelete() bool {
	return s == StateSubmitted
}
