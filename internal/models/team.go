package models

import "time"

// Team is the tenant boundary. Every child entity is scoped by TeamID and
// cross-team reads/writes are rejected at the service layer.
type Team struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	MonthlyFeeMember  *int      `db:"monthly_fee_member" json:"monthly_fee_member,omitempty"`
	MonthlyFeeSchool  *int      `db:"monthly_fee_school" json:"monthly_fee_school,omitempty"`
	SiblingDiscount   *int      `db:"sibling_discount" json:"sibling_discount,omitempty"`
	AnnualFee         *int      `db:"annual_fee" json:"annual_fee,omitempty"`
	EntranceFee       *int      `db:"entrance_fee" json:"entrance_fee,omitempty"`
	InsuranceFee      *int      `db:"insurance_fee" json:"insurance_fee,omitempty"`
	AnnualFeeMonth    int       `db:"annual_fee_month" json:"annual_fee_month"`
	InsuranceFeeMonth int       `db:"insurance_fee_month" json:"insurance_fee_month"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// FeeOrZero dereferences an optional fee; a missing configuration bills zero
// rather than failing a generation batch.
func FeeOrZero(fee *int) int {
	if fee == nil {
		return 0
	}
	return *fee
}
