package competitionrepofake_test

import (
	"testing"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/competitions"
	competitionrepofake "github.com/jrsteele09/readcomp/competitions/repofake"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestFakeCompetitionRepo(t *testing.T) {
	repo := competitionrepofake.NewFakeCompetitionRepo()

	comp := &competitions.Competition{Title: "Spring", CreatedBy: 1}
	require.NoError(t, repo.CreateCompetition(comp))
	book := &apimodel.Book{Competition: comp.ID, Title: "Dune"}
	require.NoError(t, repo.AddBook(book))

	t.Run("book needs competition", func(t *testing.T) {
		err := repo.AddBook(&apimodel.Book{Competition: 999})
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("register once", func(t *testing.T) {
		require.NoError(t, repo.Register(&competitions.Registration{Student: 2, Competition: comp.ID}))
		err := repo.Register(&competitions.Registration{Student: 2, Competition: comp.ID})
		require.ErrorIs(t, err, errors.ErrAlreadyExists)

		ok, err := repo.IsRegistered(comp.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("rating replaces", func(t *testing.T) {
		require.NoError(t, repo.UpsertRating(&competitions.Rating{User: 2, Competition: comp.ID, Book: book.ID, Rating: 3}))
		require.NoError(t, repo.UpsertRating(&competitions.Rating{User: 2, Competition: comp.ID, Book: book.ID, Rating: 5}))
		ratings, err := repo.Ratings(2)
		require.NoError(t, err)
		require.Len(t, ratings, 1)
		require.Equal(t, 5, ratings[0].Rating)
	})

	t.Run("comments by owner", func(t *testing.T) {
		require.NoError(t, repo.AddComment(&competitions.Comment{Student: 2, Competition: comp.ID, Book: book.ID, Text: "great"}))
		mine, err := repo.Comments(competitions.CommentFilter{Owner: 1})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		none, err := repo.Comments(competitions.CommentFilter{Owner: 7})
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("achievements are unique per user", func(t *testing.T) {
		require.NoError(t, repo.AddAchievement(&apimodel.Achievement{User: 2, Name: "First Comment"}))
		require.NoError(t, repo.AddAchievement(&apimodel.Achievement{User: 2, Name: "First Comment"}))
		list, err := repo.Achievements(2)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, repo.AddDailyPage(&competitions.DailyPage{User: 2, Competition: comp.ID, Book: book.ID, Page: 10}))
		require.NoError(t, repo.DeleteCompetition(comp.ID))

		_, err := repo.GetBook(book.ID)
		require.ErrorIs(t, err, errors.ErrNotFound)
		pages, err := repo.DailyPages(2)
		require.NoError(t, err)
		require.Empty(t, pages)
		require.ErrorIs(t, repo.DeleteCompetition(comp.ID), errors.ErrNotFound)
	})
}
