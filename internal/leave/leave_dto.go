package leave

type SubmitLeaveRequest struct {
	LeaveType           string `json:"leave_type" binding:"required,oneof=CASUAL PAID SICK COMP_OFF WFH EXTRA_WORK MENSTRUAL BEREAVEMENT"`
	StartDate           string `json:"start_date" binding:"required"`
	EndDate             string `json:"end_date" binding:"required"`
	HalfDay             bool   `json:"half_day"`
	Reason              string `json:"reason" binding:"required"`
	SelectedCompOff     bool   `json:"selected_comp_off"`
	SelectedAnnualLeave bool   `json:"selected_annual_leave"`
}

type ManagerDecisionRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type HRApprovalRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`

	// Explicit deduction split. When either is set the standard algorithm is
	// skipped and the values are applied verbatim.
	OverrideCompOff     *string `json:"override_comp_off"`
	OverrideAnnualLeave *string `json:"override_annual_leave"`
}

type CancelLeaveRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type LeaveResponse struct {
	ID            string `json:"id"`
	RequestNumber string `json:"request_number"`
	CompanyID     string `json:"company_id"`
	EmployeeID    string `json:"employee_id"`
	ManagerID     string `json:"manager_id"`

	LeaveType string `json:"leave_type"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays string `json:"total_days"`
	HalfDay   bool   `json:"half_day"`
	Reason    string `json:"reason"`

	SelectedCompOff     bool `json:"selected_comp_off"`
	SelectedAnnualLeave bool `json:"selected_annual_leave"`

	CompOffUsed       string  `json:"comp_off_used"`
	AnnualLeaveUsed   string  `json:"annual_leave_used"`
	HROverride        bool    `json:"hr_override"`
	HROverrideDetails *string `json:"hr_override_details,omitempty"`

	ManagerComment *string `json:"manager_comment,omitempty"`
	HRComment      *string `json:"hr_comment,omitempty"`
	CancelComment  *string `json:"cancel_comment,omitempty"`
}
