package request

import "time"

// Type identifies which of the two approval chains a request belongs to.
type Type string

const (
	TypeCashAdvance Type = "CASH_ADVANCE"
	TypeLiquidation Type = "LIQUIDATION"
)

var validTypes = map[Type]bool{
	TypeCashAdvance: true,
	TypeLiquidation: true,
}

// IsValid returns true if the type is a known request type
func (t Type) IsValid() bool {
	return validTypes[t]
}

// String returns the string representation of the type
func (t Type) String() string {
	return string(t)
}

// ApproverPermission returns the permission key whose holders may decide
// requests of this type at the given level.
func (t Type) ApproverPermission(level int) string {
	switch t {
	case TypeCashAdvance:
		if level == 1 {
			return "cash_advance.approve.level1"
		}
		return "cash_advance.approve.level2"
	case TypeLiquidation:
		if level == 1 {
			return "liquidation.approve.level1"
		}
		return "liquidation.approve.level2"
	}
	return ""
}

// Status represents where a request sits in the two-level approval chain.
type Status string

const (
	StatusPendingLevel1 Status = "PENDING_LEVEL1"
	StatusPendingLevel2 Status = "PENDING_LEVEL2" // level 1 approved, awaiting level 2
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusPendingLevel1: true,
	StatusPendingLevel2: true,
	StatusApproved:      true,
	StatusRejected:      true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// IsValid returns true if the status is a valid workflow status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if the status is terminal (no further transitions allowed)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// LevelDecision records a single approver's decision at one level.
// Each level is written exactly once, on the transition out of its
// pending state.
type LevelDecision struct {
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	DecidedAt    time.Time `json:"decided_at"`
	Comment      string    `json:"comment,omitempty"`
}

// Amounts holds the monetary figures of a request. All values are cents.
// Cash advance requests use Amount and Purpose; liquidation requests use
// the remaining four fields.
type Amounts struct {
	Amount            int64  `json:"amount,omitempty"`
	Purpose           string `json:"purpose,omitempty"`
	CashAdvanceAmount int64  `json:"cash_advance_amount,omitempty"`
	TotalExpenses     int64  `json:"total_expenses,omitempty"`
	ReturnToCompany   int64  `json:"return_to_company,omitempty"`
	Reimbursement     int64  `json:"reimbursement,omitempty"`
}

// Request is a cash advance or liquidation request moving through the
// two-level approval chain. Version is incremented on every successful
// write and guards concurrent transitions.
type Request struct {
	ID              string         `json:"id"`
	Type            Type           `json:"type"`
	RequesterID     string         `json:"requester_id"`
	RequesterName   string         `json:"requester_name"`
	RequesterEmail  string         `json:"requester_email"`
	Amounts         Amounts        `json:"amounts"`
	Status          Status         `json:"status"`
	Level1          *LevelDecision `json:"level1,omitempty"`
	Level2          *LevelDecision `json:"level2,omitempty"`
	RejectedAtLevel int            `json:"rejected_at_level,omitempty"` // 0 unless Status == REJECTED
	Version         int64          `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Snapshot is an immutable projection of a committed request handed to
// notification transports. Transports never see the live record.
type Snapshot struct {
	ID              string
	Type            Type
	RequesterName   string
	RequesterEmail  string
	Amounts         Amounts
	Status          Status
	Level1          *LevelDecision
	Level2          *LevelDecision
	RejectedAtLevel int
	CreatedAt       time.Time
	// VoucherPath points at a generated voucher file to attach, if any.
	VoucherPath string
}

// Snapshot returns a read-only projection of the request.
func (r *Request) Snapshot() Snapshot {
	snap := Snapshot{
		ID:              r.ID,
		Type:            r.Type,
		RequesterName:   r.RequesterName,
		RequesterEmail:  r.RequesterEmail,
		Amounts:         r.Amounts,
		Status:          r.Status,
		RejectedAtLevel: r.RejectedAtLevel,
		CreatedAt:       r.CreatedAt,
	}
	if r.Level1 != nil {
		l1 := *r.Level1
		snap.Level1 = &l1
	}
	if r.Level2 != nil {
		l2 := *r.Level2
		snap.Level2 = &l2
	}
	return snap
}

// Clone returns a deep copy of the request. The orchestrator mutates the
// copy, never the loaded record.
func (r *Request) Clone() *Request {
	clone := *r
	if r.Level1 != nil {
		l1 := *r.Level1
		clone.Level1 = &l1
	}
	if r.Level2 != nil {
		l2 := *r.Level2
		clone.Level2 = &l2
	}
	return &clone
}
