package moderation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/toolgrid/gotoolgrid/schema"
)

var (
	ErrActionNotFound   = errors.New("moderation action not found")
	ErrAlreadyReverted  = errors.New("moderation action already reverted")
	ErrAppealNotPending = errors.New("appeal already resolved")
)

var (
	actionsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgrid_moderation_actions_created_total",
		Help: "Moderation actions created.",
	}, []string{"action_type", "origin"})
	actionsRevertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolgrid_moderation_actions_reverted_total",
		Help: "Moderation actions reverted.",
	})
	appealsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgrid_moderation_appeals_resolved_total",
		Help: "Appeals resolved by moderators.",
	}, []string{"status"})
)

// AIDetails carries classifier output attached to automated actions.
type AIDetails struct {
	Score  float64
	Reason string
}

// Repository Main Object.
type Repository struct {
	db        *goqu.Database
	publisher Publisher
}

// NewRepository constructor.
func NewRepository(db *goqu.Database, publisher Publisher) *Repository {
	return &Repository{
		db:        db,
		publisher: publisher,
	}
}

func (s *Repository) publish(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}

	// fan-out is best-effort, moderation state is already committed
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.Errorf("failed to publish moderation event: %v", err)
	}
}

func marshalDetails(details map[string]interface{}) (interface{}, error) {
	if details == nil {
		return nil, nil //nolint: nilnil
	}

	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	return string(encoded), nil
}

func appendAuditLog(
	ctx context.Context,
	tx *goqu.TxDatabase,
	actionID int64,
	actorID int64,
	action string,
	details map[string]interface{},
) error {
	encoded, err := marshalDetails(details)
	if err != nil {
		return err
	}

	_, err = tx.Insert(schema.ModerationAuditLogTable).Rows(goqu.Record{
		schema.ModerationAuditLogTableActionIDColName:  actionID,
		schema.ModerationAuditLogTableActorIDColName:   actorID,
		schema.ModerationAuditLogTableActionColName:    action,
		schema.ModerationAuditLogTableDetailsColName:   encoded,
		schema.ModerationAuditLogTableCreatedAtColName: goqu.Func("NOW"),
	}).Executor().ExecContext(ctx)

	return err
}

func (s *Repository) createAction(
	ctx context.Context,
	actionType schema.ModerationActionType,
	entityCol string,
	entityID int64,
	moderatorID int64,
	reason string,
	flagID int64,
	aiDetails *AIDetails,
) (*schema.ModerationActionRow, error) {
	record := goqu.Record{
		schema.ModerationActionTableActionTypeColName:  actionType,
		schema.ModerationActionTableModeratorIDColName: moderatorID,
		schema.ModerationActionTableStatusColName:      schema.ModerationActionStatusCompleted,
		schema.ModerationActionTableAIDetectedColName:  aiDetails != nil,
		schema.ModerationActionTableCreatedAtColName:   goqu.Func("NOW"),
		schema.ModerationActionTableUpdatedAtColName:   goqu.Func("NOW"),
		entityCol: entityID,
	}

	if reason != "" {
		record[schema.ModerationActionTableReasonColName] = reason
	}

	if flagID > 0 {
		record[schema.ModerationActionTableFlagIDColName] = flagID
	}

	if aiDetails != nil {
		record[schema.ModerationActionTableAIScoreColName] = aiDetails.Score
		record[schema.ModerationActionTableAIReasonColName] = aiDetails.Reason
	}

	var row schema.ModerationActionRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		success, err := tx.Insert(schema.ModerationActionTable).Rows(record).
			Returning(goqu.Star()).
			Executor().ScanStructContext(ctx, &row)
		if err != nil {
			return err
		}

		if !success {
			return sql.ErrNoRows
		}

		err = appendAuditLog(ctx, tx, row.ID, moderatorID, schema.AuditActionCreate, map[string]interface{}{
			"action_type": actionType,
			"reason":      reason,
		})
		if err != nil {
			return err
		}

		if flagID > 0 {
			_, err = tx.Update(schema.FlagTable).
				Set(goqu.Record{
					schema.FlagTableStatusColName:    schema.FlagStatusApproved,
					schema.FlagTableUpdatedAtColName: goqu.Func("NOW"),
				}).
				Where(schema.FlagTableIDCol.Eq(flagID)).
				Executor().ExecContext(ctx)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	origin := "moderator"
	if aiDetails != nil {
		origin = "automated"
	}

	actionsCreatedTotal.WithLabelValues(string(actionType), origin).Inc()

	s.publish(ctx, Event{
		Type:      EventActionCreated,
		ActionID:  row.ID,
		ActorID:   moderatorID,
		Timestamp: time.Now(),
	})

	return &row, nil
}

// CreateContentAction records an already-applied enforcement step against
// a content entity. Mutating the entity's own visibility is the caller's
// concern.
func (s *Repository) CreateContentAction(
	ctx context.Context,
	actionType schema.ModerationActionType,
	contentID int64,
	moderatorID int64,
	reason string,
	flagID int64,
	aiDetails *AIDetails,
) (*schema.ModerationActionRow, error) {
	return s.createAction(
		ctx, actionType, schema.ModerationActionTableContentIDColName, contentID,
		moderatorID, reason, flagID, aiDetails,
	)
}

func (s *Repository) CreateUserAction(
	ctx context.Context,
	actionType schema.ModerationActionType,
	userID int64,
	moderatorID int64,
	reason string,
	flagID int64,
	aiDetails *AIDetails,
) (*schema.ModerationActionRow, error) {
	return s.createAction(
		ctx, actionType, schema.ModerationActionTableUserIDColName, userID,
		moderatorID, reason, flagID, aiDetails,
	)
}

// RevertAction marks an action reverted. Reverted is terminal: a second
// revert fails with ErrAlreadyReverted.
func (s *Repository) RevertAction(
	ctx context.Context, actionID int64, moderatorID int64, reason string,
) (*schema.ModerationActionRow, error) {
	var row schema.ModerationActionRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		success, err := tx.Update(schema.ModerationActionTable).
			Set(goqu.Record{
				schema.ModerationActionTableStatusColName:       schema.ModerationActionStatusReverted,
				schema.ModerationActionTableRevertedAtColName:   goqu.Func("NOW"),
				schema.ModerationActionTableRevertedByIDColName: moderatorID,
				schema.ModerationActionTableUpdatedAtColName:    goqu.Func("NOW"),
			}).
			Where(
				schema.ModerationActionTableIDCol.Eq(actionID),
				schema.ModerationActionTableStatusCol.Neq(schema.ModerationActionStatusReverted),
			).
			Returning(goqu.Star()).
			Executor().ScanStructContext(ctx, &row)
		if err != nil {
			return err
		}

		if !success {
			var exists bool

			found, err := tx.Select(goqu.V(true)).
				From(schema.ModerationActionTable).
				Where(schema.ModerationActionTableIDCol.Eq(actionID)).
				ScanValContext(ctx, &exists)
			if err != nil {
				return err
			}

			if !found {
				return ErrActionNotFound
			}

			return ErrAlreadyReverted
		}

		return appendAuditLog(ctx, tx, actionID, moderatorID, schema.AuditActionRevert, map[string]interface{}{
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	actionsRevertedTotal.Inc()

	s.publish(ctx, Event{
		Type:      EventActionReverted,
		ActionID:  actionID,
		ActorID:   moderatorID,
		Timestamp: time.Now(),
	})

	return &row, nil
}

// AddToAuditLog appends an entry outside of any larger transaction.
// There is deliberately no update or delete counterpart: corrections are
// new compensating entries referencing the old one via details.
func (s *Repository) AddToAuditLog(
	ctx context.Context, actionID int64, actorID int64, action string, details map[string]interface{},
) error {
	encoded, err := marshalDetails(details)
	if err != nil {
		return err
	}

	_, err = s.db.Insert(schema.ModerationAuditLogTable).Rows(goqu.Record{
		schema.ModerationAuditLogTableActionIDColName:  actionID,
		schema.ModerationAuditLogTableActorIDColName:   actorID,
		schema.ModerationAuditLogTableActionColName:    action,
		schema.ModerationAuditLogTableDetailsColName:   encoded,
		schema.ModerationAuditLogTableCreatedAtColName: goqu.Func("NOW"),
	}).Executor().ExecContext(ctx)

	return err
}

func (s *Repository) AuditLog(ctx context.Context, actionID int64) ([]schema.ModerationAuditLogRow, error) {
	var rows []schema.ModerationAuditLogRow

	err := s.db.Select(goqu.Star()).
		From(schema.ModerationAuditLogTable).
		Where(schema.ModerationAuditLogTableActionIDCol.Eq(actionID)).
		Order(schema.ModerationAuditLogTableIDCol.Asc()).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) Action(ctx context.Context, id int64) (*schema.ModerationActionRow, error) {
	var row schema.ModerationActionRow

	success, err := s.db.Select(goqu.Star()).
		From(schema.ModerationActionTable).
		Where(schema.ModerationActionTableIDCol.Eq(id)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrActionNotFound
	}

	return &row, nil
}

func (s *Repository) Actions(
	ctx context.Context, status schema.ModerationActionStatus, limit uint, offset uint,
) ([]schema.ModerationActionRow, error) {
	sqSelect := s.db.Select(goqu.Star()).
		From(schema.ModerationActionTable).
		Order(schema.ModerationActionTableCreatedAtCol.Desc()).
		Limit(limit).Offset(offset)

	if status != "" {
		sqSelect = sqSelect.Where(schema.ModerationActionTableStatusCol.Eq(status))
	}

	var rows []schema.ModerationActionRow

	err := sqSelect.ScanStructsContext(ctx, &rows)

	return rows, err
}

// CreateAppeal opens a pending appeal against an existing action and
// flips the linked flag, if any, to appealed.
func (s *Repository) CreateAppeal(
	ctx context.Context, actionID int64, userID int64, reason string,
) (*schema.AppealRow, error) {
	action, err := s.Action(ctx, actionID)
	if err != nil {
		return nil, err
	}

	var row schema.AppealRow

	err = s.db.WithTx(func(tx *goqu.TxDatabase) error {
		success, err := tx.Insert(schema.AppealTable).Rows(goqu.Record{
			schema.AppealTableModerationActionIDColName: actionID,
			schema.AppealTableUserIDColName:             userID,
			schema.AppealTableReasonColName:             reason,
			schema.AppealTableStatusColName:             schema.AppealStatusPending,
			schema.AppealTableCreatedAtColName:          goqu.Func("NOW"),
			schema.AppealTableUpdatedAtColName:          goqu.Func("NOW"),
		}).
			Returning(goqu.Star()).
			Executor().ScanStructContext(ctx, &row)
		if err != nil {
			return err
		}

		if !success {
			return sql.ErrNoRows
		}

		if action.FlagID.Valid {
			_, err = tx.Update(schema.FlagTable).
				Set(goqu.Record{
					schema.FlagTableStatusColName:    schema.FlagStatusAppealed,
					schema.FlagTableUpdatedAtColName: goqu.Func("NOW"),
				}).
				Where(schema.FlagTableIDCol.Eq(action.FlagID.Int64)).
				Executor().ExecContext(ctx)
			if err != nil {
				return err
			}
		}

		return appendAuditLog(ctx, tx, actionID, userID, schema.AuditActionAppealCreated, map[string]interface{}{
			"appeal_id": row.ID,
			"reason":    reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (s *Repository) resolveAppeal(
	ctx context.Context,
	tx *goqu.TxDatabase,
	id int64,
	moderatorID int64,
	notes string,
	status schema.AppealStatus,
) (*schema.AppealRow, error) {
	record := goqu.Record{
		schema.AppealTableStatusColName:      status,
		schema.AppealTableModeratorIDColName: moderatorID,
		schema.AppealTableUpdatedAtColName:   goqu.Func("NOW"),
		schema.AppealTableResolvedAtColName:  goqu.Func("NOW"),
	}

	if notes != "" {
		record[schema.AppealTableModeratorNotesColName] = notes
	}

	var row schema.AppealRow

	success, err := tx.Update(schema.AppealTable).
		Set(record).
		Where(
			schema.AppealTableIDCol.Eq(id),
			schema.AppealTableStatusCol.Eq(schema.AppealStatusPending),
		).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		var exists bool

		found, err := tx.Select(goqu.V(true)).
			From(schema.AppealTable).
			Where(schema.AppealTableIDCol.Eq(id)).
			ScanValContext(ctx, &exists)
		if err != nil {
			return nil, err
		}

		if found {
			return nil, ErrAppealNotPending
		}

		return nil, nil //nolint: nilnil
	}

	return &row, nil
}

// ApproveAppeal resolves a pending appeal and reverts the linked action,
// atomically. Returns nil without side effects when the appeal does not
// exist.
func (s *Repository) ApproveAppeal(
	ctx context.Context, id int64, moderatorID int64, notes string,
) (*schema.AppealRow, error) {
	var row *schema.AppealRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		var err error

		row, err = s.resolveAppeal(ctx, tx, id, moderatorID, notes, schema.AppealStatusApproved)
		if err != nil || row == nil {
			return err
		}

		// a resolved appeal pointing at a missing action is data
		// corruption, abort loudly
		var exists bool

		found, err := tx.Select(goqu.V(true)).
			From(schema.ModerationActionTable).
			Where(schema.ModerationActionTableIDCol.Eq(row.ModerationActionID)).
			ScanValContext(ctx, &exists)
		if err != nil {
			return err
		}

		if !found {
			return ErrActionNotFound
		}

		_, err = tx.Update(schema.ModerationActionTable).
			Set(goqu.Record{
				schema.ModerationActionTableStatusColName:       schema.ModerationActionStatusReverted,
				schema.ModerationActionTableRevertedAtColName:   goqu.Func("NOW"),
				schema.ModerationActionTableRevertedByIDColName: moderatorID,
				schema.ModerationActionTableUpdatedAtColName:    goqu.Func("NOW"),
			}).
			Where(
				schema.ModerationActionTableIDCol.Eq(row.ModerationActionID),
				schema.ModerationActionTableStatusCol.Neq(schema.ModerationActionStatusReverted),
			).
			Executor().ExecContext(ctx)
		if err != nil {
			return err
		}

		return appendAuditLog(
			ctx, tx, row.ModerationActionID, moderatorID, schema.AuditActionAppealApproved,
			map[string]interface{}{
				"appeal_id": id,
				"notes":     notes,
			},
		)
	})
	if err != nil {
		return nil, err
	}

	if row != nil {
		appealsResolvedTotal.WithLabelValues(string(schema.AppealStatusApproved)).Inc()

		appealID := id
		s.publish(ctx, Event{
			Type:      EventAppealResolved,
			ActionID:  row.ModerationActionID,
			ActorID:   moderatorID,
			AppealID:  &appealID,
			Timestamp: time.Now(),
		})
	}

	return row, nil
}

// RejectAppeal resolves a pending appeal without touching the original
// action.
func (s *Repository) RejectAppeal(
	ctx context.Context, id int64, moderatorID int64, notes string,
) (*schema.AppealRow, error) {
	var row *schema.AppealRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		var err error

		row, err = s.resolveAppeal(ctx, tx, id, moderatorID, notes, schema.AppealStatusRejected)
		if err != nil || row == nil {
			return err
		}

		return appendAuditLog(
			ctx, tx, row.ModerationActionID, moderatorID, schema.AuditActionAppealRejected,
			map[string]interface{}{
				"appeal_id": id,
				"notes":     notes,
			},
		)
	})
	if err != nil {
		return nil, err
	}

	if row != nil {
		appealsResolvedTotal.WithLabelValues(string(schema.AppealStatusRejected)).Inc()

		appealID := id
		s.publish(ctx, Event{
			Type:      EventAppealResolved,
			ActionID:  row.ModerationActionID,
			ActorID:   moderatorID,
			AppealID:  &appealID,
			Timestamp: time.Now(),
		})
	}

	return row, nil
}

func (s *Repository) Appeal(ctx context.Context, id int64) (*schema.AppealRow, error) {
	var row schema.AppealRow

	success, err := s.db.Select(goqu.Star()).
		From(schema.AppealTable).
		Where(schema.AppealTableIDCol.Eq(id)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, sql.ErrNoRows
	}

	return &row, nil
}

func (s *Repository) AppealsByStatus(
	ctx context.Context, status schema.AppealStatus, limit uint, offset uint,
) ([]schema.AppealRow, error) {
	order := schema.AppealTableCreatedAtCol.Desc()
	if status == schema.AppealStatusPending {
		order = schema.AppealTableCreatedAtCol.Asc()
	}

	var rows []schema.AppealRow

	err := s.db.Select(goqu.Star()).
		From(schema.AppealTable).
		Where(schema.AppealTableStatusCol.Eq(status)).
		Order(order).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) AppealsByUser(
	ctx context.Context, userID int64, limit uint, offset uint,
) ([]schema.AppealRow, error) {
	var rows []schema.AppealRow

	err := s.db.Select(goqu.Star()).
		From(schema.AppealTable).
		Where(schema.AppealTableUserIDCol.Eq(userID)).
		Order(schema.AppealTableCreatedAtCol.Desc()).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}
