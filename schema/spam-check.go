package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

const (
	SpamCheckTableName             = "spam_check"
	SpamCheckTableIDColName        = "id"
	SpamCheckTableTypeColName      = "type"
	SpamCheckTableContentColName   = "content"
	SpamCheckTableScoreColName     = "score"
	SpamCheckTableIsSpamColName    = "is_spam"
	SpamCheckTableReasonColName    = "reason"
	SpamCheckTableCreatedAtColName = "created_at"
)

type SpamCheckRow struct {
	ID        int64          `db:"id"`
	Type      string         `db:"type"`
	Content   string         `db:"content"`
	Score     float64        `db:"score"`
	IsSpam    bool           `db:"is_spam"`
	Reason    sql.NullString `db:"reason"`
	CreatedAt time.Time      `db:"created_at"`
}

var (
	SpamCheckTable             = goqu.T(SpamCheckTableName)
	SpamCheckTableIDCol        = SpamCheckTable.Col(SpamCheckTableIDColName)
	SpamCheckTableIsSpamCol    = SpamCheckTable.Col(SpamCheckTableIsSpamColName)
	SpamCheckTableCreatedAtCol = SpamCheckTable.Col(SpamCheckTableCreatedAtColName)
)
