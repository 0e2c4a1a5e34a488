package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "pending"
	AppealStatusApproved AppealStatus = "approved"
	AppealStatusRejected AppealStatus = "rejected"

	AppealTableName                      = "appeal"
	AppealTableIDColName                 = "id"
	AppealTableModerationActionIDColName = "moderation_action_id"
	AppealTableUserIDColName             = "user_id"
	AppealTableReasonColName             = "reason"
	AppealTableStatusColName             = "status"
	AppealTableModeratorIDColName        = "moderator_id"
	AppealTableModeratorNotesColName     = "moderator_notes"
	AppealTableCreatedAtColName          = "created_at"
	AppealTableUpdatedAtColName          = "updated_at"
	AppealTableResolvedAtColName         = "resolved_at"
)

type AppealRow struct {
	ID                 int64          `db:"id"`
	ModerationActionID int64          `db:"moderation_action_id"`
	UserID             int64          `db:"user_id"`
	Reason             string         `db:"reason"`
	Status             AppealStatus   `db:"status"`
	ModeratorID        sql.NullInt64  `db:"moderator_id"`
	ModeratorNotes     sql.NullString `db:"moderator_notes"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
	ResolvedAt         sql.NullTime   `db:"resolved_at"`
}

var (
	AppealTable                      = goqu.T(AppealTableName)
	AppealTableIDCol                 = AppealTable.Col(AppealTableIDColName)
	AppealTableModerationActionIDCol = AppealTable.Col(AppealTableModerationActionIDColName)
	AppealTableUserIDCol             = AppealTable.Col(AppealTableUserIDColName)
	AppealTableStatusCol             = AppealTable.Col(AppealTableStatusColName)
	AppealTableCreatedAtCol          = AppealTable.Col(AppealTableCreatedAtColName)
)
