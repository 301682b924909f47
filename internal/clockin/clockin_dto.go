package clockin

type SubmitClockInRequest struct {
	MissedDate   string  `json:"missed_date" binding:"required"`
	ClockInTime  string  `json:"clock_in_time" binding:"required"`
	ClockOutTime *string `json:"clock_out_time"`
	Reason       string  `json:"reason" binding:"required"`
}

type ManagerDecisionRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type HRApprovalRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type CancelClockInRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type ClockInResponse struct {
	ID            string `json:"id"`
	RequestNumber string `json:"request_number"`
	CompanyID     string `json:"company_id"`
	EmployeeID    string `json:"employee_id"`
	ManagerID     string `json:"manager_id"`

	Status       string  `json:"status"`
	MissedDate   string  `json:"missed_date"`
	ClockInTime  string  `json:"clock_in_time"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`
	Reason       string  `json:"reason"`

	ManagerComment *string `json:"manager_comment,omitempty"`
	HRComment      *string `json:"hr_comment,omitempty"`
	CancelComment  *string `json:"cancel_comment,omitempty"`
}
