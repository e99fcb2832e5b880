package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/client"
)

// Competitions lists the competitions owned by the current user.
func (a *API) Competitions(ctx context.Context) ([]apimodel.Competition, error) {
	var out []apimodel.Competition
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathCompetitions), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) CreateCompetition(ctx context.Context, req apimodel.CompetitionRequest) (*apimodel.Competition, error) {
	var out apimodel.Competition
	if err := a.sendJSON(ctx, http.MethodPost, PathCompetitions, req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteCompetition(ctx context.Context, id int) error {
	_, err := a.client.Do(ctx, client.NewRequest(http.MethodDelete, fmt.Sprintf(PathCompetition, id)))
	return err
}

// UploadBook sends the book file as multipart form data.
func (a *API) UploadBook(ctx context.Context, upload apimodel.BookUpload) (*apimodel.Book, error) {
	fields := map[string]string{
		"competition": strconv.Itoa(upload.Competition),
		"title":       upload.Title,
		"author":      upload.Author,
		"category":    string(upload.Category),
	}
	var file *client.FilePart
	if upload.File != nil {
		file = &client.FilePart{Field: "file", FileName: upload.FileName, Content: upload.File}
	}
	req, err := client.NewMultipartRequest(PathUploadBook, fields, file)
	if err != nil {
		return nil, err
	}
	var out apimodel.Book
	if err := a.client.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submissions lists comments on the current user's competitions grouped
// by author.
func (a *API) Submissions(ctx context.Context) ([]apimodel.CommentAuthor, error) {
	var out []apimodel.CommentAuthor
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathMyComments), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Registrations lists who registered for the current user's competitions.
func (a *API) Registrations(ctx context.Context) ([]apimodel.Registration, error) {
	var out []apimodel.Registration
	if err := a.getJSON(ctx, client.NewRequest(http.MethodGet, PathTeacher), &out); err != nil {
		return nil, err
	}
	return out, nil
}
