package screens

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/fetch"
	"github.com/jrsteele09/readcomp/token"
)

// BookProgress is the number of pages a user has logged for one book.
type BookProgress struct {
	Competition int
	Book        int
	Title       string
	Pages       int
}

type profileData struct {
	registered []apimodel.Competition
	progress   []BookProgress
}

// Profile shows who is signed in, their competitions and reading totals.
type Profile struct {
	guarded
	claims *token.Claims
	data   fetch.Task[profileData]
}

func NewProfile(deps Deps) *Profile {
	return &Profile{guarded: guarded{deps: deps}}
}

func (p *Profile) Mount(ctx context.Context) error {
	if err := p.authorise(ctx); err != nil {
		return err
	}
	_, claims, _ := p.currentMount().Session()
	p.claims = claims
	_, err := p.data.Run(ctx, "profile", p.fetch)
	return p.report(err, p.Mount)
}

func (p *Profile) fetch(ctx context.Context) (profileData, error) {
	competitions, err := p.deps.API.StudentCompetitions(ctx)
	if err != nil {
		return profileData{}, err
	}
	pages, err := p.deps.API.DailyPages(ctx)
	if err != nil {
		return profileData{}, err
	}
	return profileData{
		registered: registeredOnly(competitions),
		progress:   ReadingProgress(competitions, pages),
	}, nil
}

func registeredOnly(competitions []apimodel.Competition) []apimodel.Competition {
	out := []apimodel.Competition{}
	for _, c := range competitions {
		if c.IsRegistered {
			out = append(out, c)
		}
	}
	return out
}

// ReadingProgress sums logged pages per book, ordered by competition and
// book. Titles come from the competitions' book lists.
func ReadingProgress(competitions []apimodel.Competition, pages []apimodel.DailyPage) []BookProgress {
	titles := map[int]string{}
	for _, c := range competitions {
		for _, b := range c.Books {
			titles[b.ID] = b.Title
		}
	}
	totals := map[int]*BookProgress{}
	for _, p := range pages {
		entry, ok := totals[p.Book]
		if !ok {
			entry = &BookProgress{Competition: p.Competition, Book: p.Book, Title: titles[p.Book]}
			totals[p.Book] = entry
		}
		entry.Pages += p.Page
	}
	out := make([]BookProgress, 0, len(totals))
	for _, entry := range totals {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Competition != out[j].Competition {
			return out[i].Competition < out[j].Competition
		}
		return out[i].Book < out[j].Book
	})
	return out
}

func (p *Profile) Claims() *token.Claims {
	return p.claims
}

func (p *Profile) Progress() []BookProgress {
	return p.data.State().Data.progress
}

func (p *Profile) Registered() []apimodel.Competition {
	return p.data.State().Data.registered
}

func (p *Profile) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Profile ==")
	renderMenu(w, p.deps.Guard, p.role())
	p.banner.render(w)
	if p.claims != nil {
		fmt.Fprintf(w, "User: %s  Role: %s  Session ends: %s\n", p.claims.Username, p.role(), p.claims.ExpiresAt.Format("2006-01-02 15:04"))
	}
	for _, c := range p.Registered() {
		fmt.Fprintf(w, "Registered: %s\n", c.Title)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tPAGES")
	for _, entry := range p.Progress() {
		fmt.Fprintf(tw, "%s\t%d\n", entry.Title, entry.Pages)
	}
	return tw.Flush()
}
