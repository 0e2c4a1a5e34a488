package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

type VoteCreditTransactionReason string

const (
	VoteCreditTransactionReasonVoteCast      VoteCreditTransactionReason = "vote_cast"
	VoteCreditTransactionReasonVoteRefund    VoteCreditTransactionReason = "vote_refund"
	VoteCreditTransactionReasonCreditRefresh VoteCreditTransactionReason = "credit_refresh"

	VoteCreditTransactionTableName                 = "vote_credit_transaction"
	VoteCreditTransactionTableIDColName            = "id"
	VoteCreditTransactionTableUserIDColName        = "user_id"
	VoteCreditTransactionTableCreditsChangeColName = "credits_change"
	VoteCreditTransactionTableReasonColName        = "reason"
	VoteCreditTransactionTableContentIDColName     = "content_id"
	VoteCreditTransactionTableToolIDColName        = "tool_id"
	VoteCreditTransactionTableReviewIDColName      = "review_id"
	VoteCreditTransactionTableCreatedAtColName     = "created_at"
)

// VoteCreditTransactionRow is an append-only ledger entry.
type VoteCreditTransactionRow struct {
	ID            int64                       `db:"id"`
	UserID        int64                       `db:"user_id"`
	CreditsChange int32                       `db:"credits_change"`
	Reason        VoteCreditTransactionReason `db:"reason"`
	ContentID     sql.NullInt64               `db:"content_id"`
	ToolID        sql.NullInt64               `db:"tool_id"`
	ReviewID      sql.NullInt64               `db:"review_id"`
	CreatedAt     time.Time                   `db:"created_at"`
}

var (
	VoteCreditTransactionTable             = goqu.T(VoteCreditTransactionTableName)
	VoteCreditTransactionTableIDCol        = VoteCreditTransactionTable.Col(VoteCreditTransactionTableIDColName)
	VoteCreditTransactionTableUserIDCol    = VoteCreditTransactionTable.Col(VoteCreditTransactionTableUserIDColName)
	VoteCreditTransactionTableCreatedAtCol = VoteCreditTransactionTable.Col(VoteCreditTransactionTableCreatedAtColName)
)
