package notification

import "time"

// Notification is an in-app message addressed to one user. Only the Read
// flag changes after creation.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	Broadcast bool                   `json:"-"`
	CreatedAt time.Time              `json:"created_at"`
}

// Type is the notification category
type Type string

const (
	TypeVisitScheduled      Type = "visit_scheduled"
	TypeVisitConfirmed      Type = "visit_confirmed"
	TypeVisitCancelled      Type = "visit_cancelled"
	TypeNewMessage          Type = "new_message"
	TypeSystem              Type = "system"
	TypeOpportunity         Type = "opportunity"
	TypeProposal            Type = "proposal"
	TypeProposalAccepted    Type = "proposal_accepted"
	TypeProposalRejected    Type = "proposal_rejected"
	TypeNewUserRegistration Type = "new_user_registration"
	TypePaymentReceipt      Type = "payment_receipt"
	TypePaymentApproved     Type = "payment_approved"
	TypePaymentRejected     Type = "payment_rejected"
)

// IsValid reports whether t is a known notification type
func (t Type) IsValid() bool {
	switch t {
	case TypeVisitScheduled, TypeVisitConfirmed, TypeVisitCancelled, TypeNewMessage,
		TypeSystem, TypeOpportunity, TypeProposal, TypeProposalAccepted, TypeProposalRejected,
		TypeNewUserRegistration, TypePaymentReceipt, TypePaymentApproved, TypePaymentRejected:
		return true
	}
	return false
}

// Filter contains listing options
type Filter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
}

// BroadcastTargetAll expands to every non-admin user type
const BroadcastTargetAll = "all"

// BroadcastResult reports how many users a broadcast reached
type BroadcastResult struct {
	Sent   int            `json:"notifications_sent"`
	ByType map[string]int `json:"breakdown_by_type"`
}

// Stats is the admin overview of broadcast reach
type Stats struct {
	ActiveUsersByType map[string]int64 `json:"active_users_by_type"`
	TotalActiveUsers  int64            `json:"total_active_users"`
	TotalBroadcasts   int64            `json:"total_admin_notifications_sent"`
}
