package models

// EmployeeStats is one row of the admin statistics page: vote count and
// average score per employee. AverageScore is nil when the employee has
// no votes in the selected period.
type EmployeeStats struct {
	EmployeeID   uint     `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	VoteCount    int      `json:"vote_count"`
	AverageScore *float64 `json:"average_score"`
}

// VoteExportRow is one CSV export line. The fidelity code is deliberately
// not part of the export.
type VoteExportRow struct {
	EmployeeName string `json:"employee_name"`
	Score        int    `json:"score"`
	VoteDate     string `json:"vote_date"`
}
