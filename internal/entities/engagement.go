package entities

import "time"

// Comment is a reader's review of a book. One comment per (book, user).
// Admins can hide comments; hidden comments stay in the database with a
// moderation trail.
type Comment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BookID           uint       `gorm:"index" json:"book_id"`
	UserID           uint       `gorm:"index" json:"user_id"`
	Book             Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User             User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content          string     `gorm:"size:1000" json:"content"`
	IsVisible        bool       `gorm:"index" json:"is_visible"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty"`
	ModeratorID      *uint      `gorm:"index" json:"moderator_id,omitempty"`
	ModerationReason string     `gorm:"size:500" json:"moderation_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Rating is an integer score from 1 to 5. One rating per (book, user).
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"uniqueIndex:idx_ratings_book_user" json:"book_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_ratings_book_user" json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

func (Rating) TableName() string {
	return "ratings"
}
