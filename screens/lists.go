package screens

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/fetch"
)

type Achievements struct {
	guarded
	list fetch.Task[[]apimodel.Achievement]
}

func NewAchievements(deps Deps) *Achievements {
	return &Achievements{guarded: guarded{deps: deps}}
}

func (a *Achievements) Mount(ctx context.Context) error {
	if err := a.authorise(ctx); err != nil {
		return err
	}
	_, err := a.list.Run(ctx, "achievements", a.deps.API.Achievements)
	return a.report(err, a.Mount)
}

func (a *Achievements) List() []apimodel.Achievement {
	return a.list.State().Data
}

func (a *Achievements) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Achievements ==")
	renderMenu(w, a.deps.Guard, a.role())
	a.banner.render(w)
	list := a.List()
	if len(list) == 0 {
		fmt.Fprintln(w, "No achievements yet.")
	}
	for _, achievement := range list {
		fmt.Fprintf(w, "* %s\n", achievement.Name)
	}
	return nil
}

type inboxData struct {
	entries       []apimodel.InboxEntry
	notifications []apimodel.Notification
}

// Inbox lists notifications grouped by competition.
type Inbox struct {
	guarded
	data fetch.Task[inboxData]
}

func NewInbox(deps Deps) *Inbox {
	return &Inbox{guarded: guarded{deps: deps}}
}

func (i *Inbox) Mount(ctx context.Context) error {
	if err := i.authorise(ctx); err != nil {
		return err
	}
	_, err := i.data.Run(ctx, "inbox", func(ctx context.Context) (inboxData, error) {
		entries, err := i.deps.API.Inbox(ctx)
		if err != nil {
			return inboxData{}, err
		}
		notifications, err := i.deps.API.Notifications(ctx)
		if err != nil {
			return inboxData{}, err
		}
		return inboxData{entries: entries, notifications: notifications}, nil
	})
	return i.report(err, i.Mount)
}

func (i *Inbox) Entries() []apimodel.InboxEntry {
	return i.data.State().Data.entries
}

func (i *Inbox) Notifications() []apimodel.Notification {
	return i.data.State().Data.notifications
}

func (i *Inbox) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Notifications ==")
	renderMenu(w, i.deps.Guard, i.role())
	i.banner.render(w)
	for _, entry := range i.Entries() {
		if len(entry.Notifications) == 0 {
			continue
		}
		fmt.Fprintf(w, "Competition %d\n", entry.ID)
		for _, n := range entry.Notifications {
			fmt.Fprintf(w, "  %s: %s\n", n.UserFullName, n.Text)
		}
	}
	return nil
}
