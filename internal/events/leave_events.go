package events

const (
	TopicLeave = "leaveflow.leave.v1"

	LeaveSubmitted       = "leave.submitted"
	LeaveManagerApproved = "leave.manager_approved"
	LeaveManagerRejected = "leave.manager_rejected"
	LeaveHRApproved      = "leave.hr_approved"
	LeaveHRRejected      = "leave.hr_rejected"
	LeaveCancelled       = "leave.cancelled"
)

// LeaveTransition is the wire payload for every leave state change. It is
// fully self-contained so consumers never have to call back into the API.
type LeaveTransition struct {
	EventType     string `json:"event_type"`
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	CompanyID     string `json:"company_id"`
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	LeaveType     string `json:"leave_type"`
	Status        string `json:"status"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalDays     string `json:"total_days"`
	Comment       string `json:"comment,omitempty"`
	ActorName     string `json:"actor_name,omitempty"`

	CompOffUsed     string `json:"comp_off_used,omitempty"`
	AnnualLeaveUsed string `json:"annual_leave_used,omitempty"`

	// Slack member ids of everyone who should be told about the change.
	RecipientSlackIDs []string `json:"recipient_slack_ids,omitempty"`
}
