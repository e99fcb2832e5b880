package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/screens"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":         loginCmd,
	"logout":        logoutCmd,
	"register":      registerCmd,
	"verify":        verifyCmd,
	"reset-request": resetRequestCmd,
	"reset":         resetCmd,
	"whoami":        whoamiCmd,
	"menu":          menuCmd,
	"dashboard":     dashboardCmd,
	"competition":   competitionCmd,
	"profile":       profileCmd,
	"achievements":  achievementsCmd,
	"inbox":         inboxCmd,
	"admin":         adminCmd,
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// promptPassword reads a password from stdin when it was not given as a flag.
func promptPassword(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	l := screens.NewLogin(a.deps())
	err := l.Submit(ctx, *username, promptPassword("Password", *password))
	if renderErr := l.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func logoutCmd(_ context.Context, a *app, _ []string) error {
	if err := screens.NewLogin(a.deps()).Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func registerCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	var form screens.RegisterForm
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.FatherName, "father", "", "father's name")
	password := fs.String("password", "", "password (prompted when empty)")
	confirm := fs.String("confirm", "", "repeat the password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.Password = promptPassword("Password", *password)
	form.ConfirmPassword = promptPassword("Repeat password", *confirm)

	r := screens.NewRegister(a.deps())
	err := r.Submit(ctx, form)
	if renderErr := r.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func verifyCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("verify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: readcomp verify <uid> <token>")
	}
	r := screens.NewRegister(a.deps())
	err := r.Confirm(ctx, fs.Arg(0), fs.Arg(1))
	if renderErr := r.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func resetRequestCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("reset-request")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r := screens.NewRegister(a.deps())
	err := r.RequestReset(ctx, *email)
	if renderErr := r.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func resetCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("reset")
	email := fs.String("email", "", "account email")
	otp := fs.String("otp", "", "code from the email")
	password := fs.String("password", "", "new password (prompted when empty)")
	confirm := fs.String("confirm", "", "repeat the new password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r := screens.NewRegister(a.deps())
	err := r.ResetPassword(ctx, *email, *otp, promptPassword("New password", *password), promptPassword("Repeat password", *confirm))
	if renderErr := r.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func whoamiCmd(ctx context.Context, a *app, _ []string) error {
	m, err := a.guard.RequireSession(ctx)
	if err != nil {
		return err
	}
	sess, claims, _ := m.Session()
	fmt.Fprintf(a.out, "User:    %s\nRole:    %s\nExpires: %s\nRefresh: %t\n",
		claims.Username, m.Role(), claims.ExpiresAt.Format("2006-01-02 15:04:05"), sess.HasRefreshToken())
	if claims.Expired() {
		fmt.Fprintln(a.out, "The access token has expired.")
	}
	return nil
}

func menuCmd(ctx context.Context, a *app, _ []string) error {
	m, err := a.guard.RequireSession(ctx)
	if err != nil {
		return err
	}
	for _, entry := range a.guard.Menu(m.Role()) {
		fmt.Fprintf(a.out, "%-14s %s\n", entry.Label, entry.Path)
	}
	return nil
}

// show mounts s and renders it, even when mounting failed so the banner
// is visible.
func show(ctx context.Context, a *app, s screens.Screen) error {
	err := s.Mount(ctx)
	if renderErr := s.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func dashboardCmd(ctx context.Context, a *app, _ []string) error {
	return show(ctx, a, screens.NewDashboard(a.deps()))
}

func profileCmd(ctx context.Context, a *app, _ []string) error {
	return show(ctx, a, screens.NewProfile(a.deps()))
}

func achievementsCmd(ctx context.Context, a *app, _ []string) error {
	return show(ctx, a, screens.NewAchievements(a.deps()))
}

func inboxCmd(ctx context.Context, a *app, _ []string) error {
	return show(ctx, a, screens.NewInbox(a.deps()))
}

// parseRating reads "BOOK:STARS".
func parseRating(value string) (int, int, error) {
	book, stars, ok := strings.Cut(value, ":")
	if !ok {
		return 0, 0, fmt.Errorf("rating must look like BOOK:STARS, got %q", value)
	}
	bookID, err := strconv.Atoi(book)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid book id %q", book)
	}
	n, err := strconv.Atoi(stars)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rating %q", stars)
	}
	return bookID, n, nil
}

func competitionCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("competition")
	id := fs.Int("id", 0, "competition id")
	register := fs.Bool("register", false, "register for the competition")
	cart := fs.String("cart", "", "student card number, with -register")
	group := fs.String("group", "", "group number, with -register")
	rate := fs.String("rate", "", "rate a book, BOOK:STARS")
	book := fs.Int("book", 0, "book id for -comment and -pages")
	comment := fs.String("comment", "", "comment text")
	kind := fs.String("type", string(apimodel.CommentThoughts), "comment type")
	pages := fs.Int("pages", 0, "pages read today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	c := screens.NewCompetitionDetail(a.deps(), *id)
	if err := c.Mount(ctx); err != nil {
		_ = c.Render(a.out)
		return err
	}

	var err error
	switch {
	case *register:
		err = c.Register(ctx, *cart, *group)
	case *rate != "":
		bookID, stars, parseErr := parseRating(*rate)
		if parseErr != nil {
			return parseErr
		}
		err = c.Rate(ctx, bookID, stars)
	case *comment != "":
		err = c.PostComment(ctx, *book, apimodel.CommentType(*kind), *comment)
	case *pages != 0:
		err = c.LogPages(ctx, *book, *pages)
	}
	if renderErr := c.Render(a.out); renderErr != nil {
		return renderErr
	}
	return err
}

func adminCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("admin")
	tab := fs.String("tab", string(screens.TabCompetitions), "competitions, books, submissions or registrations")
	create := fs.String("create", "", "create a competition with this title")
	description := fs.String("description", "", "description, with -create")
	start := fs.String("start", "", "start date YYYY-MM-DD, with -create")
	end := fs.String("end", "", "end date YYYY-MM-DD, with -create")
	remove := fs.Int("delete", 0, "delete the competition with this id")
	upload := fs.String("upload", "", "path of a book file to upload")
	competition := fs.Int("competition", 0, "competition id, with -upload")
	title := fs.String("title", "", "book title, with -upload")
	author := fs.String("author", "", "book author, with -upload")
	category := fs.String("category", "", "book category, with -upload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	panel := screens.NewAdmin(a.deps())
	if err := panel.Mount(ctx); err != nil {
		_ = panel.Render(a.out)
		return err
	}

	var err error
	switch {
	case *create != "":
		req := apimodel.CompetitionRequest{Title: *create, Description: *description}
		if req.StartDate, err = parseOptionalDate(*start); err != nil {
			return err
		}
		if req.EndDate, err = parseOptionalDate(*end); err != nil {
			return err
		}
		var created *apimodel.Competition
		if created, err = panel.CreateCompetition(ctx, req); err == nil {
			fmt.Fprintf(a.out, "Created competition %d.\n", created.ID)
		}
	case *remove > 0:
		err = panel.DeleteCompetition(ctx, *remove)
	case *upload != "":
		err = uploadBook(ctx, panel, *upload, apimodel.BookUpload{
			Competition: *competition,
			Title:       *title,
			Author:      *author,
			Category:    apimodel.BookCategory(*category),
		})
		*tab = string(screens.TabBooks)
	}
	if err != nil {
		_ = panel.Render(a.out)
		return err
	}
	if err := panel.Select(ctx, screens.AdminTab(*tab)); err != nil {
		_ = panel.Render(a.out)
		return err
	}
	return panel.Render(a.out)
}

func uploadBook(ctx context.Context, panel *screens.Admin, path string, upload apimodel.BookUpload) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	upload.FileName = filepath.Base(path)
	upload.File = f
	_, err = panel.UploadBook(ctx, upload)
	return err
}

func parseOptionalDate(value string) (apimodel.Date, error) {
	if value == "" {
		return apimodel.Date{}, nil
	}
	return apimodel.ParseDate(value)
}

