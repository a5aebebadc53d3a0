package entities

import (
	"time"

	"gorm.io/gorm"
)

type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusHidden    BookStatus = "hidden"
	BookStatusPublished BookStatus = "published"
)

type AuthorStatus string

const (
	AuthorStatusPending  AuthorStatus = "pending"
	AuthorStatusActive   AuthorStatus = "active"
	AuthorStatusRejected AuthorStatus = "rejected"
)

// Author is the public catalog profile of a book author. It may be linked
// to a User account (self-registered authors) or stand alone (created by
// an admin for authors who never log in).
type Author struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"index;size:100" json:"name"`
	Nationality string       `gorm:"size:100" json:"nationality"`
	Bio         string       `gorm:"type:text" json:"bio"`
	UserID      *uint        `gorm:"index" json:"user_id,omitempty"`
	Status      AuthorStatus `gorm:"size:20;default:'active';index" json:"status"`
	// No column default: gorm skips zero-value fields on insert, so a
	// default of true would overwrite pending profiles created unvalidated.
	IsValidated bool `json:"is_validated"`
	ValidatedAt *time.Time   `json:"validated_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:100" json:"name"`
	Description string     `gorm:"size:500" json:"description,omitempty"`
	Slug        string     `gorm:"uniqueIndex;size:100" json:"slug"`
	Icon        string     `gorm:"size:50" json:"icon,omitempty"`
	Color       string     `gorm:"size:10" json:"color,omitempty"`
	IsActive    bool       `json:"is_active"`
	Position    int        `gorm:"default:0" json:"position"`
	ParentID    *uint      `gorm:"index" json:"parent_id,omitempty"`
	Parent      *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children    []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"index;size:512" json:"title"`
	ISBN        string     `gorm:"uniqueIndex;size:20" json:"isbn"`
	Description string     `gorm:"type:text" json:"description"`
	CoverURL    string     `gorm:"size:2048" json:"cover_url"`
	Language    string     `gorm:"size:50" json:"language"`
	PageCount   int        `json:"page_count"`
	AuthorID    uint       `gorm:"index" json:"author_id"`
	Author      Author     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Categories  []Category `gorm:"many2many:book_categories;" json:"categories,omitempty"`

	Status       BookStatus `gorm:"size:20;default:'draft';index" json:"status"`
	HiddenReason string     `gorm:"size:500" json:"hidden_reason,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`

	// Number of copies available for concurrent loan.
	Copies int `gorm:"default:1" json:"copies"`

	// Denormalized engagement stats, recomputed on rating/comment writes.
	AverageRating float64 `gorm:"default:0" json:"average_rating"`
	RatingSum     int64   `gorm:"default:0" json:"rating_sum"`
	RatingCount   int64   `gorm:"default:0" json:"rating_count"`
	CommentCount  int64   `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Author) TableName() string {
	return "authors"
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}
