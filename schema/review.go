package schema

import "github.com/doug-martin/goqu/v9"

const (
	ReviewTableName             = "review"
	ReviewTableIDColName        = "id"
	ReviewTableTextColName      = "text"
	ReviewTableVoteScoreColName = "vote_score"
)

var (
	ReviewTable             = goqu.T(ReviewTableName)
	ReviewTableIDCol        = ReviewTable.Col(ReviewTableIDColName)
	ReviewTableTextCol      = ReviewTable.Col(ReviewTableTextColName)
	ReviewTableVoteScoreCol = ReviewTable.Col(ReviewTableVoteScoreColName)
)
