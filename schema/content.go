package schema

import "github.com/doug-martin/goqu/v9"

const (
	ContentTableName             = "content"
	ContentTableIDColName        = "id"
	ContentTableBodyColName      = "body"
	ContentTableVoteScoreColName = "vote_score"
)

var (
	ContentTable             = goqu.T(ContentTableName)
	ContentTableIDCol        = ContentTable.Col(ContentTableIDColName)
	ContentTableBodyCol      = ContentTable.Col(ContentTableBodyColName)
	ContentTableVoteScoreCol = ContentTable.Col(ContentTableVoteScoreColName)
)
