package entities

import "time"

// LoanStatus is derived from IsReturned and DueAt relative to the current
// time. The stored column is a convenience for querying; readers must not
// trust it across a time boundary and should recompute via loans.DeriveStatus.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

type Loan struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	BookID uint `gorm:"index:idx_loans_book_returned" json:"book_id"`
	UserID uint `gorm:"index:idx_loans_user_returned" json:"user_id"`
	Book   Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `gorm:"index" json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`

	IsReturned bool       `gorm:"default:false;index:idx_loans_book_returned;index:idx_loans_user_returned" json:"is_returned"`
	Status     LoanStatus `gorm:"size:20;default:'active';index" json:"status"`

	ConditionAtCheckout string `gorm:"size:200" json:"condition_at_checkout,omitempty"`
	ConditionAtReturn   string `gorm:"size:200" json:"condition_at_return,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}
