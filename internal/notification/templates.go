// Package notification defines the notification kinds a transition can
// emit and renders their message content. Rendering is pure; delivery
// lives behind the Notifier port.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/fintrak/approval-workflow/internal/domain/request"
)

// Message is a rendered notification ready for a transport.
type Message struct {
	Subject     string
	Body        string
	Attachments []string
}

// Render builds the subject and body for the given kind and snapshot.
func Render(kind Kind, snap request.Snapshot) Message {
	msg := Message{Attachments: nil}
	if snap.VoucherPath != "" {
		msg.Attachments = []string{snap.VoucherPath}
	}

	switch kind {
	case KindLevel1ApprovalNeeded:
		msg.Subject = fmt.Sprintf("[%s] New request from %s awaiting level 1 approval", typeLabel(snap.Type), snap.RequesterName)
		msg.Body = buildApprovalNeededBody(snap, 1)
	case KindLevel2ApprovalNeeded:
		msg.Subject = fmt.Sprintf("[%s] Request from %s awaiting level 2 approval", typeLabel(snap.Type), snap.RequesterName)
		msg.Body = buildApprovalNeededBody(snap, 2)
	case KindRequesterApproved:
		msg.Subject = fmt.Sprintf("[%s] Your request %s has been approved", typeLabel(snap.Type), snap.ID)
		msg.Body = buildRequesterApprovedBody(snap)
	case KindRequesterRejected:
		msg.Subject = fmt.Sprintf("[%s] Your request %s has been rejected", typeLabel(snap.Type), snap.ID)
		msg.Body = buildRequesterRejectedBody(snap)
	}

	return msg
}

func buildApprovalNeededBody(snap request.Snapshot, level int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A %s request requires your approval at level %d.\n\n", typeLabel(snap.Type), level)
	fmt.Fprintf(&b, "Request ID: %s\n", snap.ID)
	fmt.Fprintf(&b, "Requester: %s (%s)\n", snap.RequesterName, snap.RequesterEmail)
	fmt.Fprintf(&b, "Submitted: %s\n", snap.CreatedAt.Format("2006-01-02"))
	b.WriteString(amountSection(snap))

	if level == 2 && snap.Level1 != nil {
		fmt.Fprintf(&b, "\nLevel 1 approved by %s on %s.\n", snap.Level1.ApproverName, formatDecisionTime(snap.Level1.DecidedAt))
		if snap.Level1.Comment != "" {
			fmt.Fprintf(&b, "Level 1 comment: %s\n", snap.Level1.Comment)
		}
	}

	b.WriteString("\nPlease review it in the approval dashboard.\n")
	return b.String()
}

func buildRequesterApprovedBody(snap request.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", snap.RequesterName)
	fmt.Fprintf(&b, "Your %s request %s has received final approval.\n\n", typeLabel(snap.Type), snap.ID)
	b.WriteString(amountSection(snap))
	b.WriteString(decisionTrail(snap))
	b.WriteString("\nThis message was sent automatically by the approval system.\n")
	return b.String()
}

func buildRequesterRejectedBody(snap request.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear %s,\n\n", snap.RequesterName)
	fmt.Fprintf(&b, "Your %s request %s was rejected at approval level %d.\n\n", typeLabel(snap.Type), snap.ID, snap.RejectedAtLevel)
	b.WriteString(amountSection(snap))
	b.WriteString(decisionTrail(snap))
	b.WriteString("\nIf you believe this is a mistake, please contact the approver directly.\n")
	return b.String()
}

func amountSection(snap request.Snapshot) string {
	var b strings.Builder

	switch snap.Type {
	case request.TypeCashAdvance:
		fmt.Fprintf(&b, "Amount: %s\n", formatCents(snap.Amounts.Amount))
		if snap.Amounts.Purpose != "" {
			fmt.Fprintf(&b, "Purpose: %s\n", snap.Amounts.Purpose)
		}
	case request.TypeLiquidation:
		fmt.Fprintf(&b, "Cash advance: %s\n", formatCents(snap.Amounts.CashAdvanceAmount))
		fmt.Fprintf(&b, "Total expenses: %s\n", formatCents(snap.Amounts.TotalExpenses))
		fmt.Fprintf(&b, "Return to company: %s\n", formatCents(snap.Amounts.ReturnToCompany))
		fmt.Fprintf(&b, "Reimbursement: %s\n", formatCents(snap.Amounts.Reimbursement))
	}
	return b.String()
}

func decisionTrail(snap request.Snapshot) string {
	var b strings.Builder

	if snap.Level1 != nil {
		fmt.Fprintf(&b, "\nLevel 1: %s on %s", snap.Level1.ApproverName, formatDecisionTime(snap.Level1.DecidedAt))
		if snap.Level1.Comment != "" {
			fmt.Fprintf(&b, " (%q)", snap.Level1.Comment)
		}
		b.WriteString("\n")
	}
	if snap.Level2 != nil {
		fmt.Fprintf(&b, "Level 2: %s on %s", snap.Level2.ApproverName, formatDecisionTime(snap.Level2.DecidedAt))
		if snap.Level2.Comment != "" {
			fmt.Fprintf(&b, " (%q)", snap.Level2.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func typeLabel(t request.Type) string {
	switch t {
	case request.TypeCashAdvance:
		return "Cash Advance"
	case request.TypeLiquidation:
		return "Liquidation"
	}
	return string(t)
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

func formatDecisionTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
