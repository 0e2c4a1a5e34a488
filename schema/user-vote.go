package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

type VoteTargetType string

const (
	VoteTargetTypeContent VoteTargetType = "content"
	VoteTargetTypeTool    VoteTargetType = "tool"
	VoteTargetTypeReview  VoteTargetType = "review"

	UserVoteTableName                = "user_vote"
	UserVoteTableIDColName           = "id"
	UserVoteTableUserIDColName       = "user_id"
	UserVoteTableContentIDColName    = "content_id"
	UserVoteTableToolIDColName       = "tool_id"
	UserVoteTableReviewIDColName     = "review_id"
	UserVoteTableVoteTypeColName     = "vote_type"
	UserVoteTableVoteWeightColName   = "vote_weight"
	UserVoteTableCreditsSpentColName = "credits_spent"
	UserVoteTableCreatedAtColName    = "created_at"
	UserVoteTableUpdatedAtColName    = "updated_at"
)

type UserVoteRow struct {
	ID           int64         `db:"id"`
	UserID       int64         `db:"user_id"`
	ContentID    sql.NullInt64 `db:"content_id"`
	ToolID       sql.NullInt64 `db:"tool_id"`
	ReviewID     sql.NullInt64 `db:"review_id"`
	VoteType     int32         `db:"vote_type"`
	VoteWeight   int32         `db:"vote_weight"`
	CreditsSpent int32         `db:"credits_spent"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

var (
	UserVoteTable                = goqu.T(UserVoteTableName)
	UserVoteTableIDCol           = UserVoteTable.Col(UserVoteTableIDColName)
	UserVoteTableUserIDCol       = UserVoteTable.Col(UserVoteTableUserIDColName)
	UserVoteTableContentIDCol    = UserVoteTable.Col(UserVoteTableContentIDColName)
	UserVoteTableToolIDCol       = UserVoteTable.Col(UserVoteTableToolIDColName)
	UserVoteTableReviewIDCol     = UserVoteTable.Col(UserVoteTableReviewIDColName)
	UserVoteTableVoteTypeCol     = UserVoteTable.Col(UserVoteTableVoteTypeColName)
	UserVoteTableVoteWeightCol   = UserVoteTable.Col(UserVoteTableVoteWeightColName)
	UserVoteTableCreditsSpentCol = UserVoteTable.Col(UserVoteTableCreditsSpentColName)
	UserVoteTableCreatedAtCol    = UserVoteTable.Col(UserVoteTableCreatedAtColName)
)
