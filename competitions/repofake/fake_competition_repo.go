package competitionrepofake

import (
	"sort"
	"sync"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/competitions"
	"github.com/jrsteele09/readcomp/internal/errors"
)

var _ competitions.Repo = (*FakeCompetitionRepo)(nil)

type FakeCompetitionRepo struct {
	lock sync.RWMutex
	ids  int

	competitions  map[int]competitions.Competition
	books         map[int]apimodel.Book
	registrations []competitions.Registration
	comments      []competitions.Comment
	ratings       []competitions.Rating
	dailyPages    []competitions.DailyPage
	achievements  []apimodel.Achievement
	notifications []competitions.Notification
}

func NewFakeCompetitionRepo() *FakeCompetitionRepo {
	return &FakeCompetitionRepo{
		competitions: make(map[int]competitions.Competition),
		books:        make(map[int]apimodel.Book),
	}
}

func (r *FakeCompetitionRepo) nextID() int {
	r.ids++
	return r.ids
}

func (r *FakeCompetitionRepo) CreateCompetition(c *competitions.Competition) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	c.ID = r.nextID()
	r.competitions[c.ID] = *c
	return nil
}

func (r *FakeCompetitionRepo) GetCompetition(id int) (*competitions.Competition, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.competitions[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &c, nil
}

func (r *FakeCompetitionRepo) ListCompetitions() ([]*competitions.Competition, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]*competitions.Competition, 0, len(r.competitions))
	for _, c := range r.competitions {
		c := c
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *FakeCompetitionRepo) DeleteCompetition(id int) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.competitions[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.competitions, id)
	for bookID, b := range r.books {
		if b.Competition == id {
			delete(r.books, bookID)
		}
	}
	r.registrations = filter(r.registrations, func(x competitions.Registration) bool { return x.Competition != id })
	r.comments = filter(r.comments, func(x competitions.Comment) bool { return x.Competition != id })
	r.ratings = filter(r.ratings, func(x competitions.Rating) bool { return x.Competition != id })
	r.dailyPages = filter(r.dailyPages, func(x competitions.DailyPage) bool { return x.Competition != id })
	r.notifications = filter(r.notifications, func(x competitions.Notification) bool { return x.Competition != id })
	return nil
}

func (r *FakeCompetitionRepo) AddBook(b *apimodel.Book) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.competitions[b.Competition]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "competition %d", b.Competition)
	}
	b.ID = r.nextID()
	r.books[b.ID] = *b
	return nil
}

func (r *FakeCompetitionRepo) GetBook(id int) (*apimodel.Book, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &b, nil
}

func (r *FakeCompetitionRepo) Books(competitionID int) ([]apimodel.Book, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := []apimodel.Book{}
	for _, b := range r.books {
		if b.Competition == competitionID {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *FakeCompetitionRepo) Register(reg *competitions.Registration) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.competitions[reg.Competition]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "competition %d", reg.Competition)
	}
	for _, existing := range r.registrations {
		if existing.Competition == reg.Competition && existing.Student == reg.Student {
			return errors.ErrAlreadyExists
		}
	}
	reg.ID = r.nextID()
	r.registrations = append(r.registrations, *reg)
	return nil
}

func (r *FakeCompetitionRepo) Registrations(competitionID int) ([]competitions.Registration, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.registrations, func(x competitions.Registration) bool { return x.Competition == competitionID }), nil
}

func (r *FakeCompetitionRepo) IsRegistered(competitionID, studentID int) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, reg := range r.registrations {
		if reg.Competition == competitionID && reg.Student == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeCompetitionRepo) AddComment(c *competitions.Comment) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	c.ID = r.nextID()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *FakeCompetitionRepo) Comments(f competitions.CommentFilter) ([]competitions.Comment, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.comments, func(c competitions.Comment) bool {
		if f.Student != 0 && c.Student != f.Student {
			return false
		}
		if f.Competition != 0 && c.Competition != f.Competition {
			return false
		}
		if f.Owner != 0 && r.competitions[c.Competition].CreatedBy != f.Owner {
			return false
		}
		return true
	}), nil
}

func (r *FakeCompetitionRepo) UpsertRating(rating *competitions.Rating) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, existing := range r.ratings {
		if existing.User == rating.User && existing.Book == rating.Book {
			rating.ID = existing.ID
			r.ratings[i] = *rating
			return nil
		}
	}
	rating.ID = r.nextID()
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *FakeCompetitionRepo) Ratings(userID int) ([]competitions.Rating, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.ratings, func(x competitions.Rating) bool { return x.User == userID }), nil
}

func (r *FakeCompetitionRepo) AddDailyPage(p *competitions.DailyPage) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	p.ID = r.nextID()
	r.dailyPages = append(r.dailyPages, *p)
	return nil
}

func (r *FakeCompetitionRepo) DailyPages(userID int) ([]competitions.DailyPage, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.dailyPages, func(x competitions.DailyPage) bool { return x.User == userID }), nil
}

func (r *FakeCompetitionRepo) AddAchievement(a *apimodel.Achievement) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.achievements {
		if existing.User == a.User && existing.Name == a.Name {
			a.ID = existing.ID
			return nil
		}
	}
	a.ID = r.nextID()
	r.achievements = append(r.achievements, *a)
	return nil
}

func (r *FakeCompetitionRepo) Achievements(userID int) ([]apimodel.Achievement, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.achievements, func(x apimodel.Achievement) bool { return x.User == userID }), nil
}

func (r *FakeCompetitionRepo) AddNotification(n *competitions.Notification) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.competitions[n.Competition]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "competition %d", n.Competition)
	}
	n.ID = r.nextID()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *FakeCompetitionRepo) Notifications(competitionID int) ([]competitions.Notification, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return filter(r.notifications, func(x competitions.Notification) bool {
		return competitionID == 0 || x.Competition == competitionID
	}), nil
}

// filter returns a new slice, never nil, so callers can hand results out.
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
