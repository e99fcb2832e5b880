package competitions

import (
	"time"

	"github.com/jrsteele09/readcomp/apimodel"
)

// Competition is a reading competition owned by the user who created it.
type Competition struct {
	ID          int
	Title       string
	Description string
	CreatedBy   int
	StartDate   apimodel.Date
	EndDate     apimodel.Date
	CreatedAt   time.Time
}

// Registration links a student to a competition. A student registers for a
// competition at most once.
type Registration struct {
	ID          int
	Student     int
	Competition int
	StudentCart string
	GroupNumber string
}

type Comment struct {
	ID          int
	Type        apimodel.CommentType
	Student     int
	Competition int
	Book        int
	Text        string
	CreatedAt   time.Time
}

// Rating is one user's star rating of one book; rating again replaces it.
type Rating struct {
	ID          int
	User        int
	Competition int
	Book        int
	Rating      int
}

type DailyPage struct {
	ID          int
	User        int
	Competition int
	Book        int
	Page        int
	CreatedAt   time.Time
}

type Notification struct {
	ID          int
	Competition int
	User        int
	Text        string
	CreatedAt   time.Time
}

// CommentFilter selects comments. Zero fields match everything.
type CommentFilter struct {
	Student     int
	Competition int
	// Owner matches comments on competitions created by this user.
	Owner int
}
