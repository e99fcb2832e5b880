package apimodel

import (
	"io"
	"time"
)

// CommentRequest posts a discussion comment about one book.
type CommentRequest struct {
	Competition int         `json:"competition"`
	Book        int         `json:"book"`
	Type        CommentType `json:"type"`
	Text        string      `json:"text"`
}

type Comment struct {
	ID          int         `json:"id"`
	Type        CommentType `json:"type"`
	Competition int         `json:"competition"`
	FullName    string      `json:"full_name"`
	Book        *Book       `json:"book,omitempty"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CommentAuthor groups the comments of one student, as listed for the
// competition owner.
type CommentAuthor struct {
	ID       int       `json:"id"`
	FullName string    `json:"full_name"`
	Comments []Comment `json:"comments"`
}

type RatingRequest struct {
	Competition int `json:"competition"`
	Book        int `json:"book"`
	Rating      int `json:"rating"`
}

type Rating struct {
	ID          int   `json:"id"`
	Competition int   `json:"competition"`
	Book        int   `json:"book"`
	User        *User `json:"user,omitempty"`
	Rating      int   `json:"rating"`
}

// DailyPageRequest appends pages read today for one book.
type DailyPageRequest struct {
	Competition int `json:"competition"`
	Book        int `json:"book"`
	Page        int `json:"page"`
}

type DailyPage struct {
	ID          int   `json:"id"`
	Competition int   `json:"competition"`
	User        *User `json:"user,omitempty"`
	Book        int   `json:"book"`
	Page        int   `json:"page"`
}

type Achievement struct {
	ID   int    `json:"id"`
	User int    `json:"user"`
	Name string `json:"name"`
}

type Notification struct {
	Competition  int    `json:"competition"`
	UserFullName string `json:"get_user_full_name,omitempty"`
	Text         string `json:"text"`
}

// InboxEntry is a competition with its notifications.
type InboxEntry struct {
	ID            int            `json:"id"`
	Notifications []Notification `json:"notifications"`
	CreatedAt     time.Time      `json:"created_at"`
}

// BookUpload is sent as multipart form data to /api/upload-book/.
type BookUpload struct {
	Competition int
	Title       string
	Author      string
	Category    BookCategory
	FileName    string
	File        io.Reader
}
