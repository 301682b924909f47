package events

const (
	TopicClockIn       = "leaveflow.clock_in.v1"
	TopicReimbursement = "leaveflow.reimbursement.v1"

	ClockInSubmitted       = "clock_in.submitted"
	ClockInManagerApproved = "clock_in.manager_approved"
	ClockInManagerRejected = "clock_in.manager_rejected"
	ClockInHRApproved      = "clock_in.hr_approved"
	ClockInHRRejected      = "clock_in.hr_rejected"
	ClockInCancelled       = "clock_in.cancelled"

	ReimbursementSubmitted = "reimbursement.submitted"
	ReimbursementApproved  = "reimbursement.approved"
	ReimbursementRejected  = "reimbursement.rejected"
	ReimbursementCancelled = "reimbursement.cancelled"
)

// RequestTransition covers the two-stage request kinds that do not touch the
// balance ledger (missed clock-in, reimbursement).
type RequestTransition struct {
	EventType     string `json:"event_type"`
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	CompanyID     string `json:"company_id"`
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	Status        string `json:"status"`
	Detail        string `json:"detail,omitempty"` // date or amount, kind-specific
	Comment       string `json:"comment,omitempty"`
	ActorName     string `json:"actor_name,omitempty"`

	RecipientSlackIDs []string `json:"recipient_slack_ids,omitempty"`
}
