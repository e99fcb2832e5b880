package server

import (
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/competitions"
	"github.com/jrsteele09/readcomp/token"
)

const (
	maxUploadMemory = 32 << 20
	mediaBooksPath  = "/media/competition_books/"
)

// ownCompetition loads a competition created by the current user. Other
// users' competitions are reported as missing.
func (s *Server) ownCompetition(w http.ResponseWriter, r *http.Request) (*competitions.Competition, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	c, err := s.repos.Competitions.GetCompetition(id)
	if err != nil || c.CreatedBy != currentUser(r).ID {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return nil, false
	}
	return c, true
}

// AdminCompetitionsHandler lists the competitions the current user created.
func (s *Server) AdminCompetitionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		stored, err := s.repos.Competitions.ListCompetitions()
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		list := []apimodel.Competition{}
		for _, c := range stored {
			if c.CreatedBy != user.ID {
				continue
			}
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

func (s *Server) AdminCreateCompetitionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		var req apimodel.CompetitionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		errs.required("title", req.Title)
		errs.maxLength("title", req.Title, 255)
		if req.StartDate.IsZero() {
			errs.add("start_date", msgRequired)
		}
		if req.EndDate.IsZero() {
			errs.add("end_date", msgRequired)
		}
		if !req.StartDate.IsZero() && !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate.Time) {
			errs.add("non_field_errors", "End date must not be before the start date.")
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		c := &competitions.Competition{
			Title:       req.Title,
			Description: req.Description,
			CreatedBy:   user.ID,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			CreatedAt:   token.NowTimeFunc(),
		}
		if err := s.repos.Competitions.CreateCompetition(c); err != nil {
			s.internalError(w, r, err)
			return
		}
		view, err := s.competitionView(c, user)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (s *Server) AdminCompetitionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.ownCompetition(w, r)
		if !ok {
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

// AdminDeleteCompetitionHandler removes a competition with its books,
// registrations and activity.
func (s *Server) AdminDeleteCompetitionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.ownCompetition(w, r)
		if !ok {
			return
		}
		if err := s.repos.Competitions.DeleteCompetition(c.ID); err != nil {
			s.internalError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadBookHandler accepts a multipart book upload for one of the current
// user's competitions. The file content is not kept; the book records the
// media path it would be served from.
func (s *Server) UploadBookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeDetail(w, http.StatusBadRequest, "Multipart form parse error - "+err.Error())
			return
		}

		title := r.FormValue("title")
		category := apimodel.BookCategory(r.FormValue("category"))
		errs := fieldErrors{}
		errs.required("title", title)
		errs.maxLength("title", title, 255)
		if category != "" && !category.Valid() {
			errs.add("category", "\""+string(category)+"\" is not a valid choice.")
		}

		competitionID, err := strconv.Atoi(r.FormValue("competition"))
		if err != nil || competitionID <= 0 {
			errs.add("competition", msgRequired)
		} else if c, err := s.repos.Competitions.GetCompetition(competitionID); err != nil || c.CreatedBy != user.ID {
			errs.add("competition", "Invalid pk \""+strconv.Itoa(competitionID)+"\" - object does not exist.")
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			errs.add("file", "No file was submitted.")
		} else {
			defer file.Close()
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		size, err := io.Copy(io.Discard, file)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Could not read the uploaded file.")
			return
		}
		name := strings.ReplaceAll(filepath.Base(header.Filename), " ", "_")

		book := &apimodel.Book{
			Competition: competitionID,
			Title:       title,
			Author:      r.FormValue("author"),
			Category:    category,
			File:        mediaBooksPath + name,
		}
		if err := s.repos.Competitions.AddBook(book); err != nil {
			s.internalError(w, r, err)
			return
		}
		s.logger.Info().Int("competition", competitionID).Str("file", name).Int64("bytes", size).Msg("book uploaded")
		writeJSON(w, http.StatusCreated, book)
	}
}

// MyCommentsHandler groups the comments on the current user's competitions
// by the student who wrote them.
func (s *Server) MyCommentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := s.repos.Competitions.Comments(competitions.CommentFilter{Owner: currentUser(r).ID})
		if err != nil {
			s.internalError(w, r, err)
			return
		}

		byAuthor := map[int]*apimodel.CommentAuthor{}
		for _, c := range stored {
			author, ok := byAuthor[c.Student]
			if !ok {
				author = &apimodel.CommentAuthor{ID: c.Student, FullName: s.fullNameOf(c.Student), Comments: []apimodel.Comment{}}
				byAuthor[c.Student] = author
			}
			author.Comments = append(author.Comments, s.commentView(c))
		}

		list := make([]apimodel.CommentAuthor, 0, len(byAuthor))
		for _, author := range byAuthor {
			list = append(list, *author)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeJSON(w, http.StatusOK, list)
	}
}

// TeacherRegistrationsHandler lists the registrations for competitions the
// current user created.
func (s *Server) TeacherRegistrationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		stored, err := s.repos.Competitions.ListCompetitions()
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		list := []apimodel.Registration{}
		for _, c := range stored {
			if c.CreatedBy != user.ID {
				continue
			}
			registrations, err := s.repos.Competitions.Registrations(c.ID)
			if err != nil {
				s.internalError(w, r, err)
				return
			}
			for _, reg := range registrations {
				list = append(list, apimodel.Registration{
					ID:          reg.ID,
					Student:     reg.Student,
					Competition: reg.Competition,
					StudentCart: reg.StudentCart,
					GroupNumber: reg.GroupNumber,
					FullName:    s.fullNameOf(reg.Student),
				})
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeJSON(w, http.StatusOK, list)
	}
}
