package export

import "fmt"

// StatementRow is one student's line on a monthly tuition statement.
type StatementRow struct {
	StudentName string
	PlayerType  string
	BaseAmount  int
	Discount    int
	AnnualFee   int
	EntranceFee int
	Insurance   int
	SpotFee     int
	Amount      int
	Paid        bool
}

// Statement is the renderable monthly tuition statement for one team.
type Statement struct {
	TeamName string
	Year     int
	Month    int
	Rows     []StatementRow
}

// Title returns the statement heading, e.g. "FC Example Tuition 2025/04".
func (s Statement) Title() string {
	return fmt.Sprintf("%s Tuition %d/%02d", s.TeamName, s.Year, s.Month)
}

// TotalAmount sums the billed amounts across all rows.
func (s Statement) TotalAmount() int {
	total := 0
	for _, row := range s.Rows {
		total += row.Amount
	}
	return total
}

func paidLabel(paid bool) string {
	if paid {
		return "paid"
	}
	return "unpaid"
}
