package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

type (
	FlagType   string
	FlagReason string
	FlagStatus string
)

const (
	FlagTypeContent FlagType = "content"
	FlagTypeTool    FlagType = "tool"
	FlagTypeReview  FlagType = "review"
	FlagTypeComment FlagType = "comment"
	FlagTypeUser    FlagType = "user"

	FlagReasonSpam           FlagReason = "spam"
	FlagReasonHarassment     FlagReason = "harassment"
	FlagReasonViolence       FlagReason = "violence"
	FlagReasonHateSpeech     FlagReason = "hate_speech"
	FlagReasonMisinformation FlagReason = "misinformation"
	FlagReasonCopyright      FlagReason = "copyright"
	FlagReasonAdultContent   FlagReason = "adult_content"
	FlagReasonOther          FlagReason = "other"

	FlagStatusPending  FlagStatus = "pending"
	FlagStatusApproved FlagStatus = "approved"
	FlagStatusRejected FlagStatus = "rejected"
	FlagStatusAppealed FlagStatus = "appealed"

	FlagTableName               = "flag"
	FlagTableIDColName          = "id"
	FlagTableTypeColName        = "type"
	FlagTableReasonColName      = "reason"
	FlagTableDescriptionColName = "description"
	FlagTableContentIDColName   = "content_id"
	FlagTableToolIDColName      = "tool_id"
	FlagTableReviewIDColName    = "review_id"
	FlagTableCommentIDColName   = "comment_id"
	FlagTableUserIDColName      = "user_id"
	FlagTableReporterIDColName  = "reporter_id"
	FlagTableStatusColName      = "status"
	FlagTableCreatedAtColName   = "created_at"
	FlagTableUpdatedAtColName   = "updated_at"
)

type FlagRow struct {
	ID          int64          `db:"id"`
	Type        FlagType       `db:"type"`
	Reason      FlagReason     `db:"reason"`
	Description sql.NullString `db:"description"`
	ContentID   sql.NullInt64  `db:"content_id"`
	ToolID      sql.NullInt64  `db:"tool_id"`
	ReviewID    sql.NullInt64  `db:"review_id"`
	CommentID   sql.NullInt64  `db:"comment_id"`
	UserID      sql.NullInt64  `db:"user_id"`
	ReporterID  int64          `db:"reporter_id"`
	Status      FlagStatus     `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

var (
	FlagTable              = goqu.T(FlagTableName)
	FlagTableIDCol         = FlagTable.Col(FlagTableIDColName)
	FlagTableTypeCol       = FlagTable.Col(FlagTableTypeColName)
	FlagTableReasonCol     = FlagTable.Col(FlagTableReasonColName)
	FlagTableContentIDCol  = FlagTable.Col(FlagTableContentIDColName)
	FlagTableToolIDCol     = FlagTable.Col(FlagTableToolIDColName)
	FlagTableReviewIDCol   = FlagTable.Col(FlagTableReviewIDColName)
	FlagTableCommentIDCol  = FlagTable.Col(FlagTableCommentIDColName)
	FlagTableUserIDCol     = FlagTable.Col(FlagTableUserIDColName)
	FlagTableReporterIDCol = FlagTable.Col(FlagTableReporterIDColName)
	FlagTableStatusCol     = FlagTable.Col(FlagTableStatusColName)
	FlagTableCreatedAtCol  = FlagTable.Col(FlagTableCreatedAtColName)
)
