package models

// VoteDateLayout is the storage format of Vote.VoteDate. Keeping dates as
// fixed-width strings lets the giorno/mese report filters run identically
// on SQLite and Postgres.
const VoteDateLayout = "2006-01-02"

// Vote is a single rating of one employee by one fidelity card.
// The unique index on (fidelity_code, employee_id) is what makes vote
// submission idempotent: the database is the only serialization point.
type Vote struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	FidelityCode string `json:"fidelity_code" gorm:"type:varchar(13);uniqueIndex:idx_votes_fidelity_employee" validate:"required,len=13,numeric"`
	EmployeeID   uint   `json:"employee_id" gorm:"uniqueIndex:idx_votes_fidelity_employee"`
	Score        int    `json:"score" validate:"required,min=1,max=5"`
	VoteDate     string `json:"vote_date" gorm:"type:varchar(10);index"`
}
