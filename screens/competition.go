package screens

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/fetch"
	"github.com/jrsteele09/readcomp/internal/errors"
)

// CompetitionDetail shows one competition with the user's comments and
// ratings. Registration and ratings are shown optimistically.
type CompetitionDetail struct {
	guarded
	id int

	detail   fetch.Task[*apimodel.Competition]
	comments fetch.Task[[]apimodel.Comment]

	mu         sync.Mutex
	registered *fetch.Mutation[bool]
	ratings    map[int]*fetch.Mutation[int]
	fields     *errors.ValidationError
}

func NewCompetitionDetail(deps Deps, id int) *CompetitionDetail {
	return &CompetitionDetail{
		guarded:    guarded{deps: deps},
		id:         id,
		registered: fetch.NewMutation(false),
		ratings:    map[int]*fetch.Mutation[int]{},
	}
}

func competitionKey(id int) string {
	return "competition/" + strconv.Itoa(id)
}

func (c *CompetitionDetail) currentID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *CompetitionDetail) Mount(ctx context.Context) error {
	if err := c.authorise(ctx); err != nil {
		return err
	}
	return c.load(ctx)
}

// Navigate switches the screen to another competition. Responses still
// in flight for the previous one are discarded.
func (c *CompetitionDetail) Navigate(ctx context.Context, id int) error {
	c.mu.Lock()
	c.id = id
	c.ratings = map[int]*fetch.Mutation[int]{}
	c.registered = fetch.NewMutation(false)
	c.fields = nil
	c.mu.Unlock()
	c.detail.Reset(competitionKey(id))
	c.comments.Reset(competitionKey(id))
	return c.Mount(ctx)
}

// showing reports whether the screen still shows competition id.
func (c *CompetitionDetail) showing(id int) bool {
	return c.currentID() == id
}

func (c *CompetitionDetail) load(ctx context.Context) error {
	id := c.currentID()
	key := competitionKey(id)

	applied, err := c.detail.Run(ctx, key, func(ctx context.Context) (*apimodel.Competition, error) {
		return c.deps.API.StudentCompetition(ctx, id)
	})
	if !applied {
		return nil
	}
	if err != nil {
		return c.report(err, c.load)
	}
	if detail := c.detail.State().Data; detail != nil {
		c.registeredMutation().Confirm(bool(detail.IsRegistered))
	}

	applied, err = c.comments.Run(ctx, key, func(ctx context.Context) ([]apimodel.Comment, error) {
		return c.deps.API.Comments(ctx, id)
	})
	if !applied {
		return nil
	}
	if err != nil {
		return c.report(err, c.load)
	}

	ratings, err := c.deps.API.Ratings(ctx)
	if !c.showing(id) {
		return nil
	}
	if err != nil {
		return c.report(err, c.load)
	}
	for _, r := range ratings {
		if r.Competition == id {
			c.rating(r.Book).Confirm(r.Rating)
		}
	}
	return nil
}

func (c *CompetitionDetail) registeredMutation() *fetch.Mutation[bool] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered
}

func (c *CompetitionDetail) rating(book int) *fetch.Mutation[int] {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.ratings[book]
	if !ok {
		m = fetch.NewMutation(0)
		c.ratings[book] = m
	}
	return m
}

// Detail is the loaded competition, nil until the first load completes.
func (c *CompetitionDetail) Detail() fetch.State[*apimodel.Competition] {
	return c.detail.State()
}

func (c *CompetitionDetail) Comments() fetch.State[[]apimodel.Comment] {
	return c.comments.State()
}

// Registered is the displayed registration status.
func (c *CompetitionDetail) Registered() bool {
	return c.registeredMutation().Value()
}

// Rating is the displayed star rating of book, 0 when unrated.
func (c *CompetitionDetail) Rating(book int) int {
	return c.rating(book).Value()
}

func (c *CompetitionDetail) FieldError(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fields == nil {
		return ""
	}
	return c.fields.Field(name)
}

func (c *CompetitionDetail) setFields(err error) bool {
	var validation *errors.ValidationError
	if !errors.As(err, &validation) {
		return false
	}
	c.mu.Lock()
	c.fields = validation
	c.mu.Unlock()
	return true
}

// Register enrols the user, showing the competition as registered while
// the request is pending.
func (c *CompetitionDetail) Register(ctx context.Context, studentCart, groupNumber string) error {
	id := c.currentID()
	registered := c.registeredMutation()
	err := registered.Apply(ctx, true, func(ctx context.Context, _ bool) (bool, error) {
		_, err := c.deps.API.RegisterForCompetition(ctx, apimodel.RegistrationRequest{
			Competition: id,
			StudentCart: studentCart,
			GroupNumber: groupNumber,
		})
		return err == nil, err
	})
	return c.settle(id, err, func(ctx context.Context) error { return c.Register(ctx, studentCart, groupNumber) })
}

// settle routes the outcome of an action on competition id. Failures that
// arrive after the screen moved to another competition are returned to the
// caller but never shown.
func (c *CompetitionDetail) settle(id int, err error, retry func(ctx context.Context) error) error {
	if err == nil || !c.showing(id) {
		return err
	}
	if c.setFields(err) {
		return err
	}
	return c.report(err, retry)
}

// Rate sets the user's star rating for book. The new value shows at once
// and reverts to the last confirmed rating if the server rejects it.
func (c *CompetitionDetail) Rate(ctx context.Context, book, stars int) error {
	if stars < apimodel.MinRating || stars > apimodel.MaxRating {
		err := &errors.ValidationError{Fields: map[string][]string{"rating": {"Rating must be between 1 and 5."}}}
		c.setFields(err)
		return err
	}
	id := c.currentID()
	rating := c.rating(book)
	err := rating.Apply(ctx, stars, func(ctx context.Context, stars int) (int, error) {
		saved, err := c.deps.API.Rate(ctx, apimodel.RatingRequest{Competition: id, Book: book, Rating: stars})
		if err != nil {
			return 0, err
		}
		return saved.Rating, nil
	})
	return c.settle(id, err, func(ctx context.Context) error { return c.Rate(ctx, book, stars) })
}

// PostComment adds a comment about book and reloads the comment list.
func (c *CompetitionDetail) PostComment(ctx context.Context, book int, kind apimodel.CommentType, text string) error {
	id := c.currentID()
	key := competitionKey(id)
	_, err := c.deps.API.PostComment(ctx, apimodel.CommentRequest{Competition: id, Book: book, Type: kind, Text: text})
	if err != nil {
		return c.settle(id, err, func(ctx context.Context) error { return c.PostComment(ctx, book, kind, text) })
	}
	applied, err := c.comments.Reload(ctx, key, func(ctx context.Context) ([]apimodel.Comment, error) {
		return c.deps.API.Comments(ctx, id)
	})
	if !applied {
		return nil
	}
	return c.report(err, c.load)
}

// LogPages records pages read today for book.
func (c *CompetitionDetail) LogPages(ctx context.Context, book, pages int) error {
	id := c.currentID()
	_, err := c.deps.API.LogPages(ctx, apimodel.DailyPageRequest{Competition: id, Book: book, Page: pages})
	return c.settle(id, err, func(ctx context.Context) error { return c.LogPages(ctx, book, pages) })
}

func (c *CompetitionDetail) Render(w io.Writer) error {
	c.banner.render(w)
	state := c.detail.State()
	if state.Loading && state.Data == nil {
		fmt.Fprintln(w, "Loading...")
		return nil
	}
	detail := state.Data
	if detail == nil {
		return nil
	}

	fmt.Fprintf(w, "== %s ==\n", detail.Title)
	if detail.Description != "" {
		fmt.Fprintln(w, detail.Description)
	}
	fmt.Fprintf(w, "Dates: %s - %s  Organiser: %s\n", detail.StartDate, detail.EndDate, detail.FullName)
	if c.Registered() {
		fmt.Fprintln(w, "You are registered.")
	} else {
		fmt.Fprintln(w, "You are not registered.")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tTITLE\tAUTHOR\tRATING")
	for _, b := range detail.Books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, stars(c.Rating(b.ID)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	comments := c.comments.State().Data
	if len(comments) > 0 {
		fmt.Fprintln(w, "-- Your comments --")
		for _, cm := range comments {
			title := ""
			if cm.Book != nil {
				title = cm.Book.Title
			}
			fmt.Fprintf(w, "[%s] %s: %s\n", cm.Type, title, cm.Text)
		}
	}
	for _, n := range detail.Notifications {
		fmt.Fprintf(w, "* %s (%s)\n", n.Text, n.UserFullName)
	}
	return nil
}

func stars(n int) string {
	if n <= 0 {
		return "-"
	}
	out := make([]rune, 0, apimodel.MaxRating)
	for i := 1; i <= apimodel.MaxRating; i++ {
		if i <= n {
			out = append(out, '*')
		} else {
			out = append(out, '.')
		}
	}
	return string(out)
}
