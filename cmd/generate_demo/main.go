// Command generate_demo creates a demo database with sample library data:
// accounts for each role, a handful of public domain books, loans in
// various states, comments and ratings.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/auth"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/books"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/categories"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/comments"
	loansdb "github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/loans"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/ratings"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/users"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/loans"
)

const (
	defaultDemoDatabasePath = "./demo.db"
	demoPassword            = "demo-password-123"
)

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	usersRepo := users.NewRepository(db.DB)
	authorsRepo := authors.NewRepository(db.DB)
	categoriesRepo := categories.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	commentsRepo := comments.NewRepository(db.DB)
	ratingsRepo := ratings.NewRepository(db.DB)
	loansRepo := loansdb.NewRepository(db.DB)
	loanService := loans.NewService(loansRepo, config.DefaultLoanDays)

	// Low bcrypt cost keeps seeding fast; demo accounts only.
	authService := auth.NewService(db.DB, config.Auth{BcryptCost: 4})

	admin := createAccount(authService, "admin", "admin@bibloflow.test", entities.UserRoleAdmin)
	reader := createAccount(authService, "alice", "alice@bibloflow.test", entities.UserRoleReader)
	reader2 := createAccount(authService, "bob", "bob@bibloflow.test", entities.UserRoleReader)
	writer := createAccount(authService, "ursula", "ursula@bibloflow.test", entities.UserRoleAuthor)

	// Author signups start pending; the demo account is pre-validated.
	if err := usersRepo.SetStatus(writer.ID, entities.UserStatusActive); err != nil {
		log.Fatalf("Failed to activate author account: %v", err)
	}

	now := time.Now()
	writerProfile := &entities.Author{
		Name:        "Ursula Vane",
		Nationality: "British",
		Bio:         "Writes speculative fiction. Demo account with a linked login.",
		UserID:      &writer.ID,
		Status:      entities.AuthorStatusActive,
		IsValidated: true,
		ValidatedAt: &now,
	}
	if err := authorsRepo.CreateAuthor(writerProfile); err != nil {
		log.Fatalf("Failed to create author profile: %v", err)
	}

	classics := createClassicAuthors(authorsRepo)
	allBooks := createBooks(booksRepo, categoriesRepo, writerProfile, classics)

	createLoans(loanService, loansRepo, allBooks, reader, reader2)
	createEngagement(commentsRepo, ratingsRepo, allBooks, reader, reader2)

	log.Printf("Demo accounts (password %q): admin, alice, bob, ursula", demoPassword)
	log.Printf("Admin user ID: %d", admin.ID)
	log.Println("Demo database generated successfully!")
}

func createAccount(authService *auth.Service, username, email string, role entities.UserRole) *entities.User {
	user, err := authService.CreateUser(username, email, demoPassword, role)
	if err != nil {
		log.Fatalf("Failed to create user %s: %v", username, err)
	}
	log.Printf("Created %s account: %s", role, username)
	return user
}

func createClassicAuthors(repo *authors.Repository) []*entities.Author {
	seed := []*entities.Author{
		{Name: "Mary Shelley", Nationality: "British", Bio: "Pioneer of science fiction.", Status: entities.AuthorStatusActive, IsValidated: true},
		{Name: "Jules Verne", Nationality: "French", Bio: "Father of the scientific adventure novel.", Status: entities.AuthorStatusActive, IsValidated: true},
		{Name: "Arthur Conan Doyle", Nationality: "British", Bio: "Creator of Sherlock Holmes.", Status: entities.AuthorStatusActive, IsValidated: true},
	}
	for _, a := range seed {
		if err := repo.CreateAuthor(a); err != nil {
			log.Fatalf("Failed to create author %s: %v", a.Name, err)
		}
	}
	return seed
}

type bookSeed struct {
	book          entities.Book
	categorySlugs []string
}

func createBooks(booksRepo *books.Repository, categoriesRepo *categories.Repository, writer *entities.Author, classics []*entities.Author) []*entities.Book {
	published := time.Now().AddDate(0, -6, 0)

	seeds := []bookSeed{
		{
			categorySlugs: []string{"science-fiction", "fiction"},
			book: entities.Book{
				Title:       "Frankenstein; or, The Modern Prometheus",
				ISBN:        "978-0-486-28211-4",
				Description: "A scientist animates a creature assembled from dead tissue and abandons it.",
				Language:    "en",
				PageCount:   280,
				AuthorID:    classics[0].ID,
				Status:      entities.BookStatusPublished,
				PublishedAt: &published,
				Copies:      3,
			},
		},
		{
			categorySlugs: []string{"science-fiction"},
			book: entities.Book{
				Title:       "Twenty Thousand Leagues Under the Seas",
				ISBN:        "978-0-14-044929-5",
				Description: "Captain Nemo tours the oceans aboard the submarine Nautilus.",
				Language:    "en",
				PageCount:   426,
				AuthorID:    classics[1].ID,
				Status:      entities.BookStatusPublished,
				PublishedAt: &published,
				Copies:      2,
			},
		},
		{
			categorySlugs: []string{"mystery", "fiction"},
			book: entities.Book{
				Title:       "The Hound of the Baskervilles",
				ISBN:        "978-0-19-953695-9",
				Description: "Sherlock Holmes investigates a spectral hound on the Devonshire moors.",
				Language:    "en",
				PageCount:   256,
				AuthorID:    classics[2].ID,
				Status:      entities.BookStatusPublished,
				PublishedAt: &published,
				Copies:      1,
			},
		},
		{
			categorySlugs: []string{"fantasy"},
			book: entities.Book{
				Title:       "The Glass Meridian",
				ISBN:        "978-1-0000-0001-1",
				Description: "Demo title owned by the linked author account.",
				Language:    "en",
				PageCount:   312,
				AuthorID:    writer.ID,
				Status:      entities.BookStatusPublished,
				PublishedAt: &published,
				Copies:      2,
			},
		},
		{
			categorySlugs: []string{"fantasy"},
			book: entities.Book{
				Title:       "Saltwater Cartography",
				ISBN:        "978-1-0000-0002-8",
				Description: "Unpublished draft, visible only to its author and admins.",
				Language:    "en",
				PageCount:   198,
				AuthorID:    writer.ID,
				Status:      entities.BookStatusDraft,
				Copies:      1,
			},
		},
	}

	out := make([]*entities.Book, 0, len(seeds))
	for i := range seeds {
		s := &seeds[i]
		for _, slug := range s.categorySlugs {
			cat, err := categoriesRepo.GetCategoryBySlug(slug)
			if err != nil {
				log.Printf("Skipping category %s for %s: %v", slug, s.book.Title, err)
				continue
			}
			s.book.Categories = append(s.book.Categories, *cat)
		}
		if err := booksRepo.CreateBook(&s.book); err != nil {
			log.Fatalf("Failed to save book %s: %v", s.book.Title, err)
		}
		log.Printf("Saved: %s (%d copies)", s.book.Title, s.book.Copies)
		out = append(out, &s.book)
	}
	return out
}

func createLoans(svc *loans.Service, repo *loansdb.Repository, bookList []*entities.Book, reader, reader2 *entities.User) {
	// Active loan with the default due date
	if _, err := svc.Create(loans.CreateRequest{
		BookID:          bookList[0].ID,
		UserID:          reader.ID,
		AllowDefaultDue: true,
	}); err != nil {
		log.Fatalf("Failed to create active loan: %v", err)
	}

	// Returned loan from last month
	borrowed := time.Now().AddDate(0, -1, 0)
	returned := borrowed.AddDate(0, 0, 10)
	past := &entities.Loan{
		BookID:            bookList[1].ID,
		UserID:            reader.ID,
		BorrowedAt:        borrowed,
		DueAt:             borrowed.AddDate(0, 0, 14),
		ReturnedAt:        &returned,
		IsReturned:        true,
		Status:            entities.LoanStatusReturned,
		ConditionAtReturn: "good",
	}
	if err := repo.CreateLoan(past); err != nil {
		log.Fatalf("Failed to create returned loan: %v", err)
	}

	// Overdue loan, seeded directly since the service rejects past due dates
	overdueStart := time.Now().AddDate(0, 0, -20)
	overdue := &entities.Loan{
		BookID:     bookList[2].ID,
		UserID:     reader2.ID,
		BorrowedAt: overdueStart,
		DueAt:      overdueStart.AddDate(0, 0, 14),
		Status:     entities.LoanStatusActive,
	}
	if err := repo.CreateLoan(overdue); err != nil {
		log.Fatalf("Failed to create overdue loan: %v", err)
	}

	log.Printf("Seeded 3 loans (active, returned, overdue)")
}

func createEngagement(commentsRepo *comments.Repository, ratingsRepo *ratings.Repository, bookList []*entities.Book, reader, reader2 *entities.User) {
	seed := []entities.Comment{
		{BookID: bookList[0].ID, UserID: reader.ID, Content: "Still unsettling two centuries on. The creature's chapters are the best part.", IsVisible: true},
		{BookID: bookList[0].ID, UserID: reader2.ID, Content: "Slow start but worth pushing through.", IsVisible: true},
		{BookID: bookList[2].ID, UserID: reader2.ID, Content: "Read it in one sitting. The moor scenes are genuinely eerie.", IsVisible: true},
	}
	for i := range seed {
		if err := commentsRepo.CreateComment(&seed[i]); err != nil {
			log.Fatalf("Failed to create comment: %v", err)
		}
	}

	scores := []struct {
		bookID uint
		userID uint
		score  int
	}{
		{bookList[0].ID, reader.ID, 5},
		{bookList[0].ID, reader2.ID, 4},
		{bookList[1].ID, reader.ID, 4},
		{bookList[2].ID, reader2.ID, 5},
		{bookList[3].ID, reader.ID, 3},
	}
	for _, s := range scores {
		if _, err := ratingsRepo.Rate(s.bookID, s.userID, s.score); err != nil {
			log.Fatalf("Failed to rate book %d: %v", s.bookID, err)
		}
	}

	log.Printf("Seeded %d comments and %d ratings", len(seed), len(scores))
}
