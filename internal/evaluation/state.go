package evaluation

// State is a step of one evaluation.
type State string

// Evaluation states, in the order they are entered. Committed and Aborted
// are terminal.
const (
	StateValidating             State = "validating"
	StateScoring                State = "scoring"
	StatePersistingAssessment   State = "persisting_assessment"
	StateGeneratingFeedback     State = "generating_feedback"
	StateCollectingIntegrations State = "collecting_integrations"
	StatePersistingArtifacts    State = "persisting_artifacts"
	StateUpdatingProfilePointer State = "updating_profile_pointer"
	StateCommitting             State = "committing"
	StateAssemblingResponse     State = "assembling_response"
	StateCommitted              State = "committed"
	StateAborted                State = "aborted"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}
