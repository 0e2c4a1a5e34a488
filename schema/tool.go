package schema

import "github.com/doug-martin/goqu/v9"

const (
	ToolTableName               = "tool"
	ToolTableIDColName          = "id"
	ToolTableDescriptionColName = "description"
	ToolTableVoteScoreColName   = "vote_score"
)

var (
	ToolTable               = goqu.T(ToolTableName)
	ToolTableIDCol          = ToolTable.Col(ToolTableIDColName)
	ToolTableDescriptionCol = ToolTable.Col(ToolTableDescriptionColName)
	ToolTableVoteScoreCol   = ToolTable.Col(ToolTableVoteScoreColName)
)
