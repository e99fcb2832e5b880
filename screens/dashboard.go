package screens

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/fetch"
	"github.com/jrsteele09/readcomp/token"
)

// Dashboard lists every competition.
type Dashboard struct {
	guarded
	competitions fetch.Task[[]apimodel.Competition]
}

func NewDashboard(deps Deps) *Dashboard {
	return &Dashboard{guarded: guarded{deps: deps}}
}

func (d *Dashboard) Mount(ctx context.Context) error {
	if err := d.authorise(ctx); err != nil {
		return err
	}
	_, err := d.competitions.Run(ctx, "competitions", d.deps.API.StudentCompetitions)
	return d.report(err, d.Mount)
}

func (d *Dashboard) Competitions() fetch.State[[]apimodel.Competition] {
	return d.competitions.State()
}

// Unmount drops any load still in flight.
func (d *Dashboard) Unmount() {
	d.competitions.Supersede()
}

func (d *Dashboard) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Competitions ==")
	renderMenu(w, d.deps.Guard, d.role())
	d.banner.render(w)

	state := d.competitions.State()
	if state.Loading {
		fmt.Fprintln(w, "Loading...")
		return nil
	}
	today := token.NowTimeFunc()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDATES\tBOOKS\tSTATUS")
	for _, c := range state.Data {
		status := "closed"
		if c.Active(today) {
			status = "open"
		}
		if c.IsRegistered {
			status += ", registered"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s - %s\t%d\t%s\n", c.ID, c.Title, c.StartDate, c.EndDate, len(c.Books), status)
	}
	return tw.Flush()
}
