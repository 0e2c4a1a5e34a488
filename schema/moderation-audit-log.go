package schema

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

const (
	AuditActionCreate         = "create"
	AuditActionRevert         = "revert"
	AuditActionAppealCreated  = "appeal_created"
	AuditActionAppealApproved = "appeal_approved"
	AuditActionAppealRejected = "appeal_rejected"

	ModerationAuditLogTableName             = "moderation_audit_log"
	ModerationAuditLogTableIDColName        = "id"
	ModerationAuditLogTableActionIDColName  = "action_id"
	ModerationAuditLogTableActorIDColName   = "actor_id"
	ModerationAuditLogTableActionColName    = "action"
	ModerationAuditLogTableDetailsColName   = "details"
	ModerationAuditLogTableCreatedAtColName = "created_at"
)

// ModerationAuditLogRow is append-only: no update or delete path exists
// anywhere in the codebase, corrections are compensating rows.
type ModerationAuditLogRow struct {
	ID        int64          `db:"id"`
	ActionID  int64          `db:"action_id"`
	ActorID   int64          `db:"actor_id"`
	Action    string         `db:"action"`
	Details   sql.NullString `db:"details"`
	CreatedAt time.Time      `db:"created_at"`
}

var (
	ModerationAuditLogTable             = goqu.T(ModerationAuditLogTableName)
	ModerationAuditLogTableIDCol        = ModerationAuditLogTable.Col(ModerationAuditLogTableIDColName)
	ModerationAuditLogTableActionIDCol  = ModerationAuditLogTable.Col(ModerationAuditLogTableActionIDColName)
	ModerationAuditLogTableActorIDCol   = ModerationAuditLogTable.Col(ModerationAuditLogTableActorIDColName)
	ModerationAuditLogTableCreatedAtCol = ModerationAuditLogTable.Col(ModerationAuditLogTableCreatedAtColName)
)
