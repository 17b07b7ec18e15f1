package workflow

// Outcome is the decision an approver takes on a request.
type Outcome string

const (
	OutcomeApprove Outcome = "APPROVE"
	OutcomeReject  Outcome = "REJECT"
)

// IsValid returns true if the outcome is a known outcome
func (o Outcome) IsValid() bool {
	return o == OutcomeApprove || o == OutcomeReject
}

// String returns the string representation of the outcome
func (o Outcome) String() string {
	return string(o)
}

// Action is one approver's attempt to decide a request at a level.
// Comment is optional; the machine never rejects an action for lacking one.
type Action struct {
	Level     int
	Outcome   Outcome
	ActorID   string
	ActorName string
	Comment   string
}
