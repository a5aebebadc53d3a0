package loans

import (
	"time"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

const day = 24 * time.Hour

// DeriveStatus computes a loan's status from its persisted timestamps and
// the given clock reading. It is the single authority for status: the
// stored Status column is only a query convenience and must be recomputed
// through this function on every read and before every status-dependent
// mutation.
func DeriveStatus(loan *entities.Loan, now time.Time) entities.LoanStatus {
	if loan.IsReturned {
		return entities.LoanStatusReturned
	}
	if now.After(loan.DueAt) {
		return entities.LoanStatusOverdue
	}
	return entities.LoanStatusActive
}

// OverdueDays returns how many days late an outstanding loan is, rounded
// up to whole days. Returned or on-time loans report 0.
func OverdueDays(loan *entities.Loan, now time.Time) int {
	if DeriveStatus(loan, now) != entities.LoanStatusOverdue {
		return 0
	}
	return ceilDays(now.Sub(loan.DueAt))
}

// RemainingDays returns how many days are left before an outstanding loan
// is due, rounded up to whole days. Overdue and returned loans report 0.
func RemainingDays(loan *entities.Loan, now time.Time) int {
	if DeriveStatus(loan, now) != entities.LoanStatusActive {
		return 0
	}
	return ceilDays(loan.DueAt.Sub(now))
}

func ceilDays(d time.Duration) int {
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}

// refreshStatus stamps the derived status onto the loan so serialized
// responses always reflect the clock at read time.
func refreshStatus(loan *entities.Loan, now time.Time) {
	loan.Status = DeriveStatus(loan, now)
}
