package models

import "time"

// TuitionPayment is one student's bill for a (year, month). The
// (StudentID, Year, Month) triple is unique; regeneration never touches a
// row once IsPaid is set.
type TuitionPayment struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	TeamID       string     `db:"team_id" json:"team_id"`
	Year         int        `db:"year" json:"year"`
	Month        int        `db:"month" json:"month"`
	Category     *string    `db:"category" json:"category,omitempty"`
	BaseAmount   int        `db:"base_amount" json:"base_amount"`
	Discount     int        `db:"discount" json:"discount"`
	AnnualFee    int        `db:"annual_fee" json:"annual_fee"`
	EntranceFee  int        `db:"entrance_fee" json:"entrance_fee"`
	InsuranceFee int        `db:"insurance_fee" json:"insurance_fee"`
	SpotFee      int        `db:"spot_fee" json:"spot_fee"`
	Amount       int        `db:"amount" json:"amount"`
	IsPaid       bool       `db:"is_paid" json:"is_paid"`
	PaidAt       *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ComputeAmount applies the billing formula with a zero floor.
func (t *TuitionPayment) ComputeAmount() int {
	amount := t.BaseAmount - t.Discount + t.AnnualFee + t.InsuranceFee + t.EntranceFee + t.SpotFee
	if amount < 0 {
		return 0
	}
	return amount
}

// TuitionGenerationResult summarises one generation or reset pass.
type TuitionGenerationResult struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Deleted   int `json:"deleted"`
	Preserved int `json:"preserved"`
}
