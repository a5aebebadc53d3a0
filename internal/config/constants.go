package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./biblioflow.db"

	// DefaultLoanDays is the default loan duration for reader-initiated borrows
	DefaultLoanDays = 14
)
