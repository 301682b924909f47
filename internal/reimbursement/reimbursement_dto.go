package reimbursement

type SubmitReimbursementRequest struct {
	Category    string   `json:"category" binding:"required,oneof=TRAVEL MEAL EQUIPMENT MEDICAL OTHER"`
	Amount      string   `json:"amount" binding:"required"`
	Currency    string   `json:"currency"`
	ExpenseDate string   `json:"expense_date" binding:"required"`
	Description string   `json:"description" binding:"required"`
	ReceiptURLs []string `json:"receipt_urls"`
}

type ManagerDecisionRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type CancelReimbursementRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type ReimbursementResponse struct {
	ID            string `json:"id"`
	RequestNumber string `json:"request_number"`
	CompanyID     string `json:"company_id"`
	EmployeeID    string `json:"employee_id"`
	ManagerID     string `json:"manager_id"`

	Status      string   `json:"status"`
	Category    string   `json:"category"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	ExpenseDate string   `json:"expense_date"`
	Description string   `json:"description"`
	ReceiptURLs []string `json:"receipt_urls,omitempty"`

	ManagerComment *string `json:"manager_comment,omitempty"`
	CancelComment  *string `json:"cancel_comment,omitempty"`
}
