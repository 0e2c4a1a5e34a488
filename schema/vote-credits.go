package schema

import (
	"time"

	"github.com/doug-martin/goqu/v9"
)

const (
	VoteCreditsTableName                      = "vote_credits"
	VoteCreditsTableUserIDColName             = "user_id"
	VoteCreditsTableAvailableCreditsColName   = "available_credits"
	VoteCreditsTableTotalEarnedCreditsColName = "total_earned_credits"
	VoteCreditsTableLastCreditRefreshColName  = "last_credit_refresh"
	VoteCreditsTableCreatedAtColName          = "created_at"
	VoteCreditsTableUpdatedAtColName          = "updated_at"
)

type VoteCreditsRow struct {
	UserID             int64     `db:"user_id"`
	AvailableCredits   int32     `db:"available_credits"`
	TotalEarnedCredits int32     `db:"total_earned_credits"`
	LastCreditRefresh  time.Time `db:"last_credit_refresh"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

var (
	VoteCreditsTable                      = goqu.T(VoteCreditsTableName)
	VoteCreditsTableUserIDCol             = VoteCreditsTable.Col(VoteCreditsTableUserIDColName)
	VoteCreditsTableAvailableCreditsCol   = VoteCreditsTable.Col(VoteCreditsTableAvailableCreditsColName)
	VoteCreditsTableTotalEarnedCreditsCol = VoteCreditsTable.Col(VoteCreditsTableTotalEarnedCreditsColName)
	VoteCreditsTableLastCreditRefreshCol  = VoteCreditsTable.Col(VoteCreditsTableLastCreditRefreshColName)
)
