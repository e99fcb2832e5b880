package screens

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/fetch"
	"github.com/jrsteele09/readcomp/internal/errors"
)

// AdminTab is one tab of the admin panel.
type AdminTab string

const (
	TabCompetitions  AdminTab = "competitions"
	TabBooks         AdminTab = "books"
	TabSubmissions   AdminTab = "submissions"
	TabRegistrations AdminTab = "registrations"
)

// ErrNotElevated is returned when a user without the admin role opens the
// admin panel.
var ErrNotElevated = errors.New("the admin panel is for teachers only")

// Admin is the teacher's panel: their competitions, book uploads, the
// comments students posted and who registered.
type Admin struct {
	guarded

	mu     sync.Mutex
	tab    AdminTab
	fields *errors.ValidationError

	competitions  fetch.Task[[]apimodel.Competition]
	submissions   fetch.Task[[]apimodel.CommentAuthor]
	registrations fetch.Task[[]apimodel.Registration]
}

func NewAdmin(deps Deps) *Admin {
	return &Admin{guarded: guarded{deps: deps}, tab: TabCompetitions}
}

func (a *Admin) Mount(ctx context.Context) error {
	if err := a.authorise(ctx); err != nil {
		return err
	}
	if !a.deps.Guard.IsElevated(a.role()) {
		a.banner.Show(ErrNotElevated, nil)
		return ErrNotElevated
	}
	return a.load(ctx)
}

// Select switches tab and loads its data.
func (a *Admin) Select(ctx context.Context, tab AdminTab) error {
	a.mu.Lock()
	a.tab = tab
	a.fields = nil
	a.mu.Unlock()
	return a.load(ctx)
}

func (a *Admin) Tab() AdminTab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

func (a *Admin) load(ctx context.Context) error {
	var err error
	switch a.Tab() {
	case TabCompetitions, TabBooks:
		_, err = a.competitions.Run(ctx, "admin/competitions", a.deps.API.Competitions)
	case TabSubmissions:
		_, err = a.submissions.Run(ctx, "admin/submissions", a.deps.API.Submissions)
	case TabRegistrations:
		_, err = a.registrations.Run(ctx, "admin/registrations", a.deps.API.Registrations)
	}
	return a.report(err, a.load)
}

func (a *Admin) setFields(err error) bool {
	var validation *errors.ValidationError
	if !errors.As(err, &validation) {
		return false
	}
	a.mu.Lock()
	a.fields = validation
	a.mu.Unlock()
	return true
}

func (a *Admin) FieldError(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fields == nil {
		return ""
	}
	return a.fields.Field(name)
}

func (a *Admin) CreateCompetition(ctx context.Context, req apimodel.CompetitionRequest) (*apimodel.Competition, error) {
	a.mu.Lock()
	a.fields = nil
	a.mu.Unlock()
	created, err := a.deps.API.CreateCompetition(ctx, req)
	if err != nil {
		if !a.setFields(err) {
			a.report(err, nil)
		}
		return nil, err
	}
	list := append(slices.Clone(a.competitions.State().Data), *created)
	a.competitions.Set(list)
	return created, nil
}

func (a *Admin) DeleteCompetition(ctx context.Context, id int) error {
	if err := a.deps.API.DeleteCompetition(ctx, id); err != nil {
		return a.report(err, func(ctx context.Context) error { return a.DeleteCompetition(ctx, id) })
	}
	current := a.competitions.State().Data
	kept := make([]apimodel.Competition, 0, len(current))
	for _, c := range current {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	a.competitions.Set(kept)
	return nil
}

// UploadBook sends a book file to one of the teacher's competitions.
func (a *Admin) UploadBook(ctx context.Context, upload apimodel.BookUpload) (*apimodel.Book, error) {
	a.mu.Lock()
	a.fields = nil
	a.mu.Unlock()
	if upload.Category != "" && !upload.Category.Valid() {
		err := &errors.ValidationError{Fields: map[string][]string{"category": {"Unknown category."}}}
		a.setFields(err)
		return nil, err
	}
	book, err := a.deps.API.UploadBook(ctx, upload)
	if err != nil {
		if !a.setFields(err) {
			a.report(err, nil)
		}
		return nil, err
	}
	if _, err := a.competitions.Run(ctx, "admin/competitions", a.deps.API.Competitions); err != nil {
		a.report(err, a.load)
	}
	return book, nil
}

func (a *Admin) Competitions() []apimodel.Competition {
	return a.competitions.State().Data
}

func (a *Admin) Submissions() []apimodel.CommentAuthor {
	return a.submissions.State().Data
}

func (a *Admin) Registrations() []apimodel.Registration {
	return a.registrations.State().Data
}

func (a *Admin) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Admin Panel ==")
	renderMenu(w, a.deps.Guard, a.role())
	for _, tab := range []AdminTab{TabCompetitions, TabBooks, TabSubmissions, TabRegistrations} {
		marker := " "
		if tab == a.Tab() {
			marker = ">"
		}
		fmt.Fprintf(w, "%s%s ", marker, tab)
	}
	fmt.Fprintln(w)
	a.banner.render(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch a.Tab() {
	case TabCompetitions:
		fmt.Fprintln(tw, "ID\tTITLE\tDATES\tSTUDENTS")
		for _, c := range a.Competitions() {
			fmt.Fprintf(tw, "%d\t%s\t%s - %s\t%d\n", c.ID, c.Title, c.StartDate, c.EndDate, len(c.Registrations))
		}
	case TabBooks:
		fmt.Fprintln(tw, "COMPETITION\tBOOK\tCATEGORY\tFILE")
		for _, c := range a.Competitions() {
			for _, b := range c.Books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Title, b.Title, b.Category, b.File)
			}
		}
	case TabSubmissions:
		fmt.Fprintln(tw, "STUDENT\tTYPE\tCOMMENT")
		for _, author := range a.Submissions() {
			for _, c := range author.Comments {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", author.FullName, c.Type, c.Text)
			}
		}
	case TabRegistrations:
		fmt.Fprintln(tw, "COMPETITION\tSTUDENT\tCART\tGROUP")
		for _, r := range a.Registrations() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Competition, r.FullName, r.StudentCart, r.GroupNumber)
		}
	}
	return tw.Flush()
}
