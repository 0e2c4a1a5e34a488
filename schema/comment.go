package schema

import "github.com/doug-martin/goqu/v9"

const (
	CommentTableName           = "comment"
	CommentTableIDColName      = "id"
	CommentTableMessageColName = "message"
)

var (
	CommentTable           = goqu.T(CommentTableName)
	CommentTableIDCol      = CommentTable.Col(CommentTableIDColName)
	CommentTableMessageCol = CommentTable.Col(CommentTableMessageColName)
)
