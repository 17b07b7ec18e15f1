package notification

// Kind identifies which notification template a transition emits.
type Kind string

const (
	KindLevel1ApprovalNeeded Kind = "LEVEL1_APPROVAL_NEEDED"
	KindLevel2ApprovalNeeded Kind = "LEVEL2_APPROVAL_NEEDED"
	KindRequesterApproved    Kind = "REQUESTER_APPROVED"
	KindRequesterRejected    Kind = "REQUESTER_REJECTED"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}
