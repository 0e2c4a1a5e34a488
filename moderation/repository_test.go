package moderation

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
	actionColumns = []string{
		"id", "action_type", "moderator_id", "content_id", "user_id", "flag_id",
		"reason", "status", "ai_detected", "ai_score", "ai_reason", "metadata",
		"created_at", "updated_at", "reverted_at", "reverted_by_id",
	}
	appealColumns = []string{
		"id", "moderation_action_id", "user_id", "reason", "status",
		"moderator_id", "moderator_notes", "created_at", "updated_at", "resolved_at",
	}
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(goqu.New("postgres", db), nil), mock
}

func actionRow(id int64, status schema.ModerationActionStatus) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows(actionColumns).AddRow(
		id, "hide", int64(3), int64(100), nil, nil, "spam", string(status),
		false, nil, nil, nil, now, now, nil, nil,
	)
}

func appealRow(id int64, actionID int64, status schema.AppealStatus) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows(appealColumns).AddRow(
		id, actionID, int64(9), "it was not spam", string(status),
		int64(3), nil, now, now, now,
	)
}

func TestCreateContentAction(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "moderation_action"`)).
		WillReturnRows(actionRow(1, schema.ModerationActionStatusCompleted))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	row, err := repo.CreateContentAction(
		context.Background(), schema.ModerationActionTypeHide, 100, 3, "spam", 0, nil,
	)
	require.NoError(t, err)
	require.Equal(t, schema.ModerationActionStatusCompleted, row.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContentActionApprovesLinkedFlag(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "moderation_action"`)).
		WillReturnRows(actionRow(1, schema.ModerationActionStatusCompleted))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "flag" SET .*'approved'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.CreateContentAction(
		context.Background(), schema.ModerationActionTypeHide, 100, 3, "spam", 55, nil,
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertAction(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "moderation_action"`)).
		WillReturnRows(actionRow(5, schema.ModerationActionStatusReverted))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	row, err := repo.RevertAction(context.Background(), 5, 3, "mistake")
	require.NoError(t, err)
	require.Equal(t, schema.ModerationActionStatusReverted, row.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

// reverted is terminal, a second revert must not create another audit entry
func TestRevertActionTwice(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "moderation_action"`)).
		WillReturnRows(sqlmock.NewRows(actionColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM "moderation_action"`)).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.RevertAction(context.Background(), 5, 3, "again")
	require.ErrorIs(t, err, ErrAlreadyReverted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertActionMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "moderation_action"`)).
		WillReturnRows(sqlmock.NewRows(actionColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM "moderation_action"`)).
		WillReturnRows(sqlmock.NewRows([]string{"v"}))
	mock.ExpectRollback()

	_, err := repo.RevertAction(context.Background(), 404, 3, "")
	require.ErrorIs(t, err, ErrActionNotFound)
}

func TestApproveAppealRevertsLinkedAction(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "appeal"`)).
		WillReturnRows(appealRow(8, 5, schema.AppealStatusApproved))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM "moderation_action"`)).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "moderation_action"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	row, err := repo.ApproveAppeal(context.Background(), 8, 3, "agreed")
	require.NoError(t, err)
	require.Equal(t, schema.AppealStatusApproved, row.Status)
	require.EqualValues(t, 5, row.ModerationActionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAppealAlreadyResolved(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "appeal"`)).
		WillReturnRows(sqlmock.NewRows(appealColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM "appeal"`)).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.ApproveAppeal(context.Background(), 8, 3, "")
	require.ErrorIs(t, err, ErrAppealNotPending)
}

func TestApproveAppealMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "appeal"`)).
		WillReturnRows(sqlmock.NewRows(appealColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM "appeal"`)).
		WillReturnRows(sqlmock.NewRows([]string{"v"}))
	mock.ExpectCommit()

	row, err := repo.ApproveAppeal(context.Background(), 404, 3, "")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestRejectAppealLeavesActionUntouched(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "appeal"`)).
		WillReturnRows(appealRow(8, 5, schema.AppealStatusRejected))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audit_log"`)).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	row, err := repo.RejectAppeal(context.Background(), 8, 3, "valid action")
	require.NoError(t, err)
	require.Equal(t, schema.AppealStatusRejected, row.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogIsOldestFirst(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "moderation_audit_log" WHERE .* ORDER BY .*"id" ASC`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "action_id", "actor_id", "action", "details", "created_at"},
		).
			AddRow(int64(1), int64(5), int64(3), "create", nil, now).
			AddRow(int64(2), int64(5), int64(3), "revert", nil, now))

	rows, err := repo.AuditLog(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, schema.AuditActionCreate, rows[0].Action)
	require.Equal(t, schema.AuditActionRevert, rows[1].Action)
}
