package employee

type AdjustBalanceRequest struct {
	CompOffDelta     *string `json:"comp_off_delta"`
	AnnualLeaveDelta *string `json:"annual_leave_delta"`
	Reason           string  `json:"reason" binding:"required"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=EMPLOYEE MANAGER HR_ADMIN"`
}

type LinkSlackRequest struct {
	SlackMemberID string `json:"slack_member_id" binding:"required"`
}

type EmployeeResponse struct {
	ID                 string  `json:"id"`
	CompanyID          string  `json:"company_id"`
	ManagerID          *string `json:"manager_id,omitempty"`
	FullName           string  `json:"full_name"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	IsActive           bool    `json:"is_active"`
	CompOffBalance     string  `json:"comp_off_balance"`
	AnnualLeaveBalance string  `json:"annual_leave_balance"`
	SlackMemberID      *string `json:"slack_member_id,omitempty"`
}

type BalanceResponse struct {
	EmployeeID         string `json:"employee_id"`
	CompOffBalance     string `json:"comp_off_balance"`
	AnnualLeaveBalance string `json:"annual_leave_balance"`
}
