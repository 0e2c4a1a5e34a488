package votes

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/require"
	"github.com/toolgrid/gotoolgrid/schema"
)

var (
	creditsColumns = []string{
		"user_id", "available_credits", "total_earned_credits",
		"last_credit_refresh", "created_at", "updated_at",
	}
	voteColumns = []string{
		"id", "user_id", "content_id", "tool_id", "review_id",
		"vote_type", "vote_weight", "credits_spent", "created_at", "updated_at",
	}
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(goqu.New("postgres", db), 100, 100, 7*24*time.Hour, 10), mock
}

func creditsRow(userID int64, available int32) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows(creditsColumns).AddRow(
		userID, available, int32(100), now, now, now,
	)
}

func TestCost(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 1, Cost(1))
	require.EqualValues(t, 4, Cost(2))
	require.EqualValues(t, 9, Cost(3))
	require.EqualValues(t, 25, Cost(5))
	require.EqualValues(t, 100, Cost(10))
}

func TestQuadraticVoteChargesSquaredCost(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vote_credits"`)).
		WillReturnRows(creditsRow(7, 100))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credit_transaction"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(
			int64(1), int64(7), int64(100), nil, nil,
			int32(1), int32(3), int32(9), now, now,
		))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(`)).
		WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "content"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent, 3, 1)
	require.NoError(t, err)
	require.EqualValues(t, 9, result.CreditsSpent)
	require.EqualValues(t, 91, result.CreditsRemaining)
	require.EqualValues(t, 3, result.TargetScore)
	require.EqualValues(t, 3, result.Vote.VoteWeight)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuadraticVoteInsufficientCredits(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vote_credits"`)).
		WillReturnRows(creditsRow(7, 5))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns))
	mock.ExpectRollback()

	_, err := repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent, 3, 1)
	require.ErrorIs(t, err, ErrInsufficientCredits)
	require.NoError(t, mock.ExpectationsWereMet())
}

// replacing a vote refunds the old cost before charging the new one, so
// a prior vote's credits count towards the affordability check
func TestQuadraticVoteRevoteRefundsPriorCost(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	now := time.Now()

	priorVote := func() *sqlmock.Rows {
		return sqlmock.NewRows(voteColumns).AddRow(
			int64(1), int64(7), int64(100), nil, nil,
			int32(1), int32(3), int32(9), now, now,
		)
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vote_credits"`)).
		WillReturnRows(creditsRow(7, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(priorVote())
	mock.ExpectExec(`INSERT INTO "vote_credit_transaction" .*'vote_refund'`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`INSERT INTO "vote_credit_transaction" .*'vote_cast'`).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(
			int64(1), int64(7), int64(100), nil, nil,
			int32(-1), int32(2), int32(4), now, now,
		))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(`)).
		WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(int64(-2)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "content"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 0 available + 9 refunded covers the new cost of 4
	result, err := repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent, 2, -1)
	require.NoError(t, err)
	require.EqualValues(t, 4, result.CreditsSpent)
	require.EqualValues(t, 5, result.CreditsRemaining)
	require.EqualValues(t, -2, result.TargetScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuadraticVoteInvalidWeight(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent, 0, 1)
	require.ErrorIs(t, err, errInvalidVoteWeight)

	_, err = repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent, 11, 1)
	require.ErrorIs(t, err, errInvalidVoteWeight)
}

func TestQuadraticVoteUnknownTargetType(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.QuadraticVote(context.Background(), 7, 100, schema.VoteTargetType("comment"), 1, 1)
	require.ErrorIs(t, err, errUnknownTargetType)
}

func TestRemoveQuadraticVote(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vote_credits"`)).
		WillReturnRows(creditsRow(7, 91))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns).AddRow(
			int64(1), int64(7), int64(100), nil, nil,
			int32(1), int32(3), int32(9), now, now,
		))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "user_vote"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "vote_credit_transaction" .*'vote_refund'`).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(`)).
		WillReturnRows(sqlmock.NewRows([]string{"score"}).AddRow(int64(0)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "content"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	score, err := repo.RemoveQuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent)
	require.NoError(t, err)
	require.Zero(t, score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveQuadraticVoteMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vote_credits"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vote_credits"`)).
		WillReturnRows(creditsRow(7, 100))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns))
	mock.ExpectRollback()

	_, err := repo.RemoveQuadraticVote(context.Background(), 7, 100, schema.VoteTargetTypeContent)
	require.ErrorIs(t, err, ErrVoteNotFound)
}

func TestVoteAbsentIsNil(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_vote"`)).
		WillReturnRows(sqlmock.NewRows(voteColumns))

	row, err := repo.Vote(context.Background(), 7, 100, schema.VoteTargetTypeContent)
	require.NoError(t, err)
	require.Nil(t, row)
}
