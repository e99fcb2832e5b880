package competitions

import "github.com/jrsteele09/readcomp/apimodel"

type Repo interface {
	CreateCompetition(c *Competition) error
	GetCompetition(id int) (*Competition, error)
	ListCompetitions() ([]*Competition, error)
	// DeleteCompetition removes the competition and everything attached to it.
	DeleteCompetition(id int) error

	AddBook(b *apimodel.Book) error
	GetBook(id int) (*apimodel.Book, error)
	Books(competitionID int) ([]apimodel.Book, error)

	// Register fails with errors.ErrAlreadyExists on a second registration.
	Register(r *Registration) error
	Registrations(competitionID int) ([]Registration, error)
	IsRegistered(competitionID, studentID int) (bool, error)

	AddComment(c *Comment) error
	Comments(filter CommentFilter) ([]Comment, error)

	UpsertRating(r *Rating) error
	Ratings(userID int) ([]Rating, error)

	AddDailyPage(p *DailyPage) error
	DailyPages(userID int) ([]DailyPage, error)

	// AddAchievement ignores an achievement the user already holds.
	AddAchievement(a *apimodel.Achievement) error
	Achievements(userID int) ([]apimodel.Achievement, error)

	AddNotification(n *Notification) error
	// Notifications lists notifications for one competition, or all when
	// competitionID is 0.
	Notifications(competitionID int) ([]Notification, error)
}
