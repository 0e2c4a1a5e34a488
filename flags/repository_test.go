package flags

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

var flagColumns = []string{
	"id", "type", "reason", "description", "content_id", "tool_id",
	"review_id", "comment_id", "user_id", "reporter_id", "status",
	"created_at", "updated_at",
}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(goqu.New("postgres", db), nil, 0), mock
}

func pendingContentFlagRow(id int64, contentID int64) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows(flagColumns).AddRow(
		id, "content", "spam", nil, contentID, nil, nil, nil, nil,
		int64(7), "pending", now, now,
	)
}

func TestCreateContentFlag(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "flag"`)).
		WillReturnRows(pendingContentFlagRow(1, 100))

	row, err := repo.CreateContentFlag(context.Background(), 100, 7, schema.FlagReasonSpam, "")
	require.NoError(t, err)
	require.Equal(t, schema.FlagTypeContent, row.Type)
	require.Equal(t, schema.FlagStatusPending, row.Status)
	require.True(t, row.ContentID.Valid)
	require.EqualValues(t, 100, row.ContentID.Int64)
	require.False(t, row.ToolID.Valid)
	require.False(t, row.UserID.Valid)

	require.NoError(t, mock.ExpectationsWereMet())
}

// every flag type writes exactly its own entity column
func TestCreateFlagTargetsEntityColumn(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ    schema.FlagType
		column string
	}{
		{schema.FlagTypeContent, "content_id"},
		{schema.FlagTypeTool, "tool_id"},
		{schema.FlagTypeReview, "review_id"},
		{schema.FlagTypeComment, "comment_id"},
		{schema.FlagTypeUser, "user_id"},
	}

	for _, testCase := range cases {
		t.Run(string(testCase.typ), func(t *testing.T) {
			t.Parallel()

			repo, mock := newTestRepository(t)

			now := time.Now()
			rows := sqlmock.NewRows(flagColumns).AddRow(
				int64(1), string(testCase.typ), "other", nil, nil, nil, nil, nil, nil,
				int64(7), "pending", now, now,
			)

			mock.ExpectQuery(`INSERT INTO "flag" .*"` + testCase.column + `"`).
				WillReturnRows(rows)

			var err error

			switch testCase.typ {
			case schema.FlagTypeContent:
				_, err = repo.CreateContentFlag(context.Background(), 5, 7, schema.FlagReasonOther, "")
			case schema.FlagTypeTool:
				_, err = repo.CreateToolFlag(context.Background(), 5, 7, schema.FlagReasonOther, "")
			case schema.FlagTypeReview:
				_, err = repo.CreateReviewFlag(context.Background(), 5, 7, schema.FlagReasonOther, "")
			case schema.FlagTypeComment:
				_, err = repo.CreateCommentFlag(context.Background(), 5, 7, schema.FlagReasonOther, "")
			case schema.FlagTypeUser:
				_, err = repo.CreateUserFlag(context.Background(), 5, 7, schema.FlagReasonOther, "")
			}

			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFlagNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "flag"`)).
		WillReturnRows(sqlmock.NewRows(flagColumns))

	_, err := repo.Flag(context.Background(), 42)
	require.ErrorIs(t, err, ErrFlagNotFound)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.UpdateStatus(context.Background(), 1, schema.FlagStatus("escalated"))
	require.ErrorIs(t, err, errUnknownStatus)
}

func TestUpdateStatusNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "flag"`)).
		WillReturnRows(sqlmock.NewRows(flagColumns))

	_, err := repo.UpdateStatus(context.Background(), 42, schema.FlagStatusApproved)
	require.ErrorIs(t, err, ErrFlagNotFound)
}

func TestPendingIsOldestFirst(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "flag" WHERE .*"status" = 'pending'.* ORDER BY .*"created_at" ASC`).
		WillReturnRows(pendingContentFlagRow(1, 100))

	rows, err := repo.Pending(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByEntityUnknownType(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.ByEntity(context.Background(), schema.FlagType("thread"), 1)
	require.ErrorIs(t, err, errUnknownType)
}

func TestNeedWaitWithoutRedis(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	needWait, err := repo.NeedWait(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, needWait)
}
