package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/competitions"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/users"
)

const (
	AchievementFirstComment = "First Comment"
	AchievementBookworm     = "Bookworm"

	// BookwormPages is the total number of logged pages that earns AchievementBookworm.
	BookwormPages = 100

	detailAlreadyRegistered = "You have already registered for this competition."
)

// fullNameOf looks up a user's display name, empty when unknown.
func (s *Server) fullNameOf(id int) string {
	user, err := s.repos.Users.GetByID(id)
	if err != nil {
		return ""
	}
	return user.FullName()
}

// competitionView expands a stored competition into its wire form as seen
// by viewer.
func (s *Server) competitionView(c *competitions.Competition, viewer *users.User) (apimodel.Competition, error) {
	books, err := s.repos.Competitions.Books(c.ID)
	if err != nil {
		return apimodel.Competition{}, err
	}
	registrations, err := s.repos.Competitions.Registrations(c.ID)
	if err != nil {
		return apimodel.Competition{}, err
	}
	notifications, err := s.notificationViews(c.ID)
	if err != nil {
		return apimodel.Competition{}, err
	}

	view := apimodel.Competition{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		CreatedBy:     c.CreatedBy,
		FullName:      s.fullNameOf(c.CreatedBy),
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		Books:         books,
		Registrations: make([]apimodel.Attendance, 0, len(registrations)),
		Notifications: notifications,
	}
	for _, reg := range registrations {
		if viewer != nil && reg.Student == viewer.ID {
			view.IsRegistered = true
		}
		view.Registrations = append(view.Registrations, apimodel.Attendance{
			GroupNumber: reg.GroupNumber,
			StudentCart: reg.StudentCart,
			FullName:    s.fullNameOf(reg.Student),
		})
	}
	return view, nil
}

func (s *Server) notificationViews(competitionID int) ([]apimodel.Notification, error) {
	stored, err := s.repos.Competitions.Notifications(competitionID)
	if err != nil {
		return nil, err
	}
	list := make([]apimodel.Notification, 0, len(stored))
	for _, n := range stored {
		list = append(list, apimodel.Notification{
			Competition:  n.Competition,
			UserFullName: s.fullNameOf(n.User),
			Text:         n.Text,
		})
	}
	return list, nil
}

func (s *Server) commentView(c competitions.Comment) apimodel.Comment {
	view := apimodel.Comment{
		ID:          c.ID,
		Type:        c.Type,
		Competition: c.Competition,
		FullName:    s.fullNameOf(c.Student),
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
	}
	if book, err := s.repos.Competitions.GetBook(c.Book); err == nil {
		view.Book = book
	}
	return view
}

// bookInCompetition validates the competition and book references of a
// posted activity.
func (s *Server) bookInCompetition(errs fieldErrors, competitionID, bookID int) {
	if competitionID <= 0 {
		errs.add("competition", msgRequired)
	} else if _, err := s.repos.Competitions.GetCompetition(competitionID); err != nil {
		errs.add("competition", "Invalid pk \""+strconv.Itoa(competitionID)+"\" - object does not exist.")
	}
	if bookID <= 0 {
		errs.add("book", msgRequired)
		return
	}
	book, err := s.repos.Competitions.GetBook(bookID)
	if err != nil {
		errs.add("book", "Invalid pk \""+strconv.Itoa(bookID)+"\" - object does not exist.")
		return
	}
	if competitionID > 0 && book.Competition != competitionID {
		errs.add("book", "This book does not belong to the competition.")
	}
}

func (s *Server) award(userID int, name string) {
	if err := s.repos.Competitions.AddAchievement(&apimodel.Achievement{User: userID, Name: name}); err != nil {
		s.logger.Warn().Err(err).Int("user_id", userID).Str("achievement", name).Msg("failed to award achievement")
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r.Method, r.URL.Path, err)
	writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
}

// StudentCompetitionsHandler lists every competition.
func (s *Server) StudentCompetitionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		stored, err := s.repos.Competitions.ListCompetitions()
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		list := make([]apimodel.Competition, 0, len(stored))
		for _, c := range stored {
			view, err := s.competitionView(c, user)
			if err != nil {
				s.internalError(w, r, err)
				return
			}
			list = append(list, view)
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) StudentCompetitionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, err := s.repos.Competitions.GetCompetition(id)
		if err != nil {
			writeDetail(w, http.StatusNotFound, msgNotFound)
			return
		}
		view, err := s.competitionView(c, currentUser(r))
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// CompetitionRegisterHandler enrols the current user in a competition.
func (s *Server) CompetitionRegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.RegistrationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		errs.required("student_cart", req.StudentCart)
		errs.maxLength("student_cart", req.StudentCart, 20)
		errs.maxLength("group_number", req.GroupNumber, 20)
		if req.Competition <= 0 {
			errs.add("competition", msgRequired)
		} else if _, err := s.repos.Competitions.GetCompetition(req.Competition); err != nil {
			errs.add("competition", "Invalid pk \""+strconv.Itoa(req.Competition)+"\" - object does not exist.")
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		reg := &competitions.Registration{
			Student:     user.ID,
			Competition: req.Competition,
			StudentCart: req.StudentCart,
			GroupNumber: req.GroupNumber,
		}
		if err := s.repos.Competitions.Register(reg); err != nil {
			if errors.Is(err, errors.ErrAlreadyExists) {
				writeDetail(w, http.StatusBadRequest, detailAlreadyRegistered)
				return
			}
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, apimodel.Registration{
			ID:          reg.ID,
			Student:     reg.Student,
			Competition: reg.Competition,
			StudentCart: reg.StudentCart,
			GroupNumber: reg.GroupNumber,
		})
	}
}

// StudentCommentsHandler lists the current user's comments, optionally for
// one competition.
func (s *Server) StudentCommentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := competitions.CommentFilter{Student: currentUser(r).ID}
		if raw := r.URL.Query().Get("competition"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				writeFieldErrors(w, fieldErrors{"competition": {"A valid integer is required."}})
				return
			}
			filter.Competition = id
		}
		stored, err := s.repos.Competitions.Comments(filter)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		list := make([]apimodel.Comment, 0, len(stored))
		for _, c := range stored {
			list = append(list, s.commentView(c))
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) PostCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.CommentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		errs.required("text", req.Text)
		if !req.Type.Valid() {
			errs.add("type", "\""+string(req.Type)+"\" is not a valid choice.")
		}
		s.bookInCompetition(errs, req.Competition, req.Book)
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		comment := &competitions.Comment{
			Type:        req.Type,
			Student:     user.ID,
			Competition: req.Competition,
			Book:        req.Book,
			Text:        req.Text,
			CreatedAt:   token.NowTimeFunc(),
		}
		if err := s.repos.Competitions.AddComment(comment); err != nil {
			s.internalError(w, r, err)
			return
		}
		s.award(user.ID, AchievementFirstComment)
		writeJSON(w, http.StatusCreated, s.commentView(*comment))
	}
}

func (s *Server) BookRatingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		stored, err := s.repos.Competitions.Ratings(user.ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		public := user.Public()
		list := make([]apimodel.Rating, 0, len(stored))
		for _, rating := range stored {
			list = append(list, apimodel.Rating{
				ID:          rating.ID,
				Competition: rating.Competition,
				Book:        rating.Book,
				User:        &public,
				Rating:      rating.Rating,
			})
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// RateBookHandler stores the user's rating of a book, replacing an earlier one.
func (s *Server) RateBookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.RatingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		if req.Rating < apimodel.MinRating || req.Rating > apimodel.MaxRating {
			errs.add("rating", "Rating must be between 1 and 5.")
		}
		s.bookInCompetition(errs, req.Competition, req.Book)
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		rating := &competitions.Rating{
			User:        user.ID,
			Competition: req.Competition,
			Book:        req.Book,
			Rating:      req.Rating,
		}
		if err := s.repos.Competitions.UpsertRating(rating); err != nil {
			s.internalError(w, r, err)
			return
		}
		public := user.Public()
		writeJSON(w, http.StatusCreated, apimodel.Rating{
			ID:          rating.ID,
			Competition: rating.Competition,
			Book:        rating.Book,
			User:        &public,
			Rating:      rating.Rating,
		})
	}
}

func (s *Server) DailyPagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		stored, err := s.repos.Competitions.DailyPages(user.ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		public := user.Public()
		list := make([]apimodel.DailyPage, 0, len(stored))
		for _, p := range stored {
			list = append(list, apimodel.DailyPage{
				ID:          p.ID,
				Competition: p.Competition,
				User:        &public,
				Book:        p.Book,
				Page:        p.Page,
			})
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// LogPagesHandler appends pages read for a book and awards the reading
// milestone once the user's total reaches BookwormPages.
func (s *Server) LogPagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.DailyPageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		if req.Page < 1 {
			errs.add("page", "Ensure this value is greater than or equal to 1.")
		}
		s.bookInCompetition(errs, req.Competition, req.Book)
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		page := &competitions.DailyPage{
			User:        user.ID,
			Competition: req.Competition,
			Book:        req.Book,
			Page:        req.Page,
			CreatedAt:   token.NowTimeFunc(),
		}
		if err := s.repos.Competitions.AddDailyPage(page); err != nil {
			s.internalError(w, r, err)
			return
		}

		if all, err := s.repos.Competitions.DailyPages(user.ID); err == nil {
			total := 0
			for _, p := range all {
				total += p.Page
			}
			if total >= BookwormPages {
				s.award(user.ID, AchievementBookworm)
			}
		}

		public := user.Public()
		writeJSON(w, http.StatusCreated, apimodel.DailyPage{
			ID:          page.ID,
			Competition: page.Competition,
			User:        &public,
			Book:        page.Book,
			Page:        page.Page,
		})
	}
}

func (s *Server) AchievementsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Competitions.Achievements(currentUser(r).ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.notificationViews(0)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// PostNotificationHandler posts a message to a competition's inbox.
func (s *Server) PostNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.Notification
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		errs.required("text", req.Text)
		if req.Competition <= 0 {
			errs.add("competition", msgRequired)
		} else if _, err := s.repos.Competitions.GetCompetition(req.Competition); err != nil {
			errs.add("competition", "Invalid pk \""+strconv.Itoa(req.Competition)+"\" - object does not exist.")
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		n := &competitions.Notification{
			Competition: req.Competition,
			User:        user.ID,
			Text:        req.Text,
			CreatedAt:   token.NowTimeFunc(),
		}
		if err := s.repos.Competitions.AddNotification(n); err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, apimodel.Notification{
			Competition:  n.Competition,
			UserFullName: user.FullName(),
			Text:         n.Text,
		})
	}
}

// InboxHandler lists every competition with its notifications.
func (s *Server) InboxHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := s.repos.Competitions.ListCompetitions()
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		inbox := make([]apimodel.InboxEntry, 0, len(stored))
		for _, c := range stored {
			notifications, err := s.notificationViews(c.ID)
			if err != nil {
				s.internalError(w, r, err)
				return
			}
			inbox = append(inbox, apimodel.InboxEntry{
				ID:            c.ID,
				Notifications: notifications,
				CreatedAt:     c.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, inbox)
	}
}
