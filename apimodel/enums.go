package apimodel

// Role is the account role the server assigns at registration.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// CommentType classifies a student comment on a book.
type CommentType string

const (
	CommentBookSummary    CommentType = "book summary"
	CommentFavoriteParts  CommentType = "favorite parts"
	CommentNotes          CommentType = "notes"
	CommentThoughts       CommentType = "thoughts"
	CommentFavoriteQuotes CommentType = "favorite quotes"
)

var CommentTypes = []CommentType{
	CommentBookSummary,
	CommentFavoriteParts,
	CommentNotes,
	CommentThoughts,
	CommentFavoriteQuotes,
}

func (c CommentType) Valid() bool {
	for _, t := range CommentTypes {
		if t == c {
			return true
		}
	}
	return false
}

// BookCategory is one of the fixed categories a book is filed under.
type BookCategory string

var BookCategories = []BookCategory{
	"Fiction", "Non-fiction", "Science", "History", "Biography", "Children",
	"Mystery", "Fantasy", "Romance", "Self-help", "Philosophy", "Religion",
	"Education", "Technology", "Art", "Poetry", "Cooking", "Travel",
	"Health & Fitness", "Business", "Law", "Politics", "Drama", "Horror",
	"Adventure", "Classics",
}

func (b BookCategory) Valid() bool {
	for _, c := range BookCategories {
		if c == b {
			return true
		}
	}
	return false
}

const (
	MinRating = 1
	MaxRating = 5
)
