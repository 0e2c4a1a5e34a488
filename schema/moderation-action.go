package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

type (
	ModerationActionType   string
	ModerationActionStatus string
)

const (
	ModerationActionTypeHide      ModerationActionType = "hide"
	ModerationActionTypeUnhide    ModerationActionType = "unhide"
	ModerationActionTypeDelete    ModerationActionType = "delete"
	ModerationActionTypeUndelete  ModerationActionType = "undelete"
	ModerationActionTypeWarn      ModerationActionType = "warn"
	ModerationActionTypeSuspend   ModerationActionType = "suspend"
	ModerationActionTypeUnsuspend ModerationActionType = "unsuspend"

	ModerationActionStatusPending   ModerationActionStatus = "pending"
	ModerationActionStatusCompleted ModerationActionStatus = "completed"
	ModerationActionStatusReverted  ModerationActionStatus = "reverted"

	// SystemModeratorID marks actions originated by automated moderation.
	SystemModeratorID int64 = 0

	ModerationActionTableName                = "moderation_action"
	ModerationActionTableIDColName           = "id"
	ModerationActionTableActionTypeColName   = "action_type"
	ModerationActionTableModeratorIDColName  = "moderator_id"
	ModerationActionTableContentIDColName    = "content_id"
	ModerationActionTableUserIDColName       = "user_id"
	ModerationActionTableFlagIDColName       = "flag_id"
	ModerationActionTableReasonColName       = "reason"
	ModerationActionTableStatusColName       = "status"
	ModerationActionTableAIDetectedColName   = "ai_detected"
	ModerationActionTableAIScoreColName      = "ai_score"
	ModerationActionTableAIReasonColName     = "ai_reason"
	ModerationActionTableMetadataColName     = "metadata"
	ModerationActionTableCreatedAtColName    = "created_at"
	ModerationActionTableUpdatedAtColName    = "updated_at"
	ModerationActionTableRevertedAtColName   = "reverted_at"
	ModerationActionTableRevertedByIDColName = "reverted_by_id"
)

type ModerationActionRow struct {
	ID           int64                  `db:"id"`
	ActionType   ModerationActionType   `db:"action_type"`
	ModeratorID  int64                  `db:"moderator_id"`
	ContentID    sql.NullInt64          `db:"content_id"`
	UserID       sql.NullInt64          `db:"user_id"`
	FlagID       sql.NullInt64          `db:"flag_id"`
	Reason       sql.NullString         `db:"reason"`
	Status       ModerationActionStatus `db:"status"`
	AIDetected   bool                   `db:"ai_detected"`
	AIScore      sql.NullFloat64        `db:"ai_score"`
	AIReason     sql.NullString         `db:"ai_reason"`
	Metadata     sql.NullString         `db:"metadata"`
	CreatedAt    time.Time              `db:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at"`
	RevertedAt   sql.NullTime           `db:"reverted_at"`
	RevertedByID sql.NullInt64          `db:"reverted_by_id"`
}

var (
	ModerationActionTable               = goqu.T(ModerationActionTableName)
	ModerationActionTableIDCol          = ModerationActionTable.Col(ModerationActionTableIDColName)
	ModerationActionTableActionTypeCol  = ModerationActionTable.Col(ModerationActionTableActionTypeColName)
	ModerationActionTableModeratorIDCol = ModerationActionTable.Col(ModerationActionTableModeratorIDColName)
	ModerationActionTableContentIDCol   = ModerationActionTable.Col(ModerationActionTableContentIDColName)
	ModerationActionTableUserIDCol      = ModerationActionTable.Col(ModerationActionTableUserIDColName)
	ModerationActionTableFlagIDCol      = ModerationActionTable.Col(ModerationActionTableFlagIDColName)
	ModerationActionTableStatusCol      = ModerationActionTable.Col(ModerationActionTableStatusColName)
	ModerationActionTableAIDetectedCol  = ModerationActionTable.Col(ModerationActionTableAIDetectedColName)
	ModerationActionTableCreatedAtCol   = ModerationActionTable.Col(ModerationActionTableCreatedAtColName)
)
