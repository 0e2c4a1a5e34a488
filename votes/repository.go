package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/toolgrid/gotoolgrid/schema"
)

var (
	ErrInsufficientCredits = errors.New("insufficient vote credits")
	ErrVoteNotFound        = errors.New("vote not found")
	errInvalidVoteWeight   = errors.New("invalid vote weight")
	errUnknownTargetType   = errors.New("unknown vote target type")
)

var votesCastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "toolgrid_votes_cast_total",
	Help: "Quadratic votes cast.",
}, []string{"target_type"})

// Cost is the quadratic-voting rule: a vote of weight w costs w² credits.
func Cost(weight int32) int32 {
	return weight * weight
}

type target struct {
	voteCol      string
	txnCol       string
	table        exp.IdentifierExpression
	idCol        exp.IdentifierExpression
	scoreColName string
}

func voteTarget(targetType schema.VoteTargetType) (target, error) {
	switch targetType {
	case schema.VoteTargetTypeContent:
		return target{
			voteCol:      schema.UserVoteTableContentIDColName,
			txnCol:       schema.VoteCreditTransactionTableContentIDColName,
			table:        schema.ContentTable,
			idCol:        schema.ContentTableIDCol,
			scoreColName: schema.ContentTableVoteScoreColName,
		}, nil
	case schema.VoteTargetTypeTool:
		return target{
			voteCol:      schema.UserVoteTableToolIDColName,
			txnCol:       schema.VoteCreditTransactionTableToolIDColName,
			table:        schema.ToolTable,
			idCol:        schema.ToolTableIDCol,
			scoreColName: schema.ToolTableVoteScoreColName,
		}, nil
	case schema.VoteTargetTypeReview:
		return target{
			voteCol:      schema.UserVoteTableReviewIDColName,
			txnCol:       schema.VoteCreditTransactionTableReviewIDColName,
			table:        schema.ReviewTable,
			idCol:        schema.ReviewTableIDCol,
			scoreColName: schema.ReviewTableVoteScoreColName,
		}, nil
	}

	return target{}, fmt.Errorf("%w: `%s`", errUnknownTargetType, targetType)
}

// VoteResult is the outcome of a successful QuadraticVote.
type VoteResult struct {
	Vote             schema.UserVoteRow
	CreditsSpent     int32
	CreditsRemaining int32
	TargetScore      int64
}

// Repository Main Object.
type Repository struct {
	db              *goqu.Database
	startingCredits int32
	refreshCredits  int32
	refreshInterval time.Duration
	maxVoteWeight   int32
}

// NewRepository constructor.
func NewRepository(
	db *goqu.Database,
	startingCredits int32,
	refreshCredits int32,
	refreshInterval time.Duration,
	maxVoteWeight int32,
) *Repository {
	return &Repository{
		db:              db,
		startingCredits: startingCredits,
		refreshCredits:  refreshCredits,
		refreshInterval: refreshInterval,
		maxVoteWeight:   maxVoteWeight,
	}
}

// creditsForUpdate locks the user's credits row, creating it with the
// starting balance on first touch.
func (s *Repository) creditsForUpdate(
	ctx context.Context, tx *goqu.TxDatabase, userID int64,
) (*schema.VoteCreditsRow, error) {
	_, err := tx.Insert(schema.VoteCreditsTable).Rows(goqu.Record{
		schema.VoteCreditsTableUserIDColName:             userID,
		schema.VoteCreditsTableAvailableCreditsColName:   s.startingCredits,
		schema.VoteCreditsTableTotalEarnedCreditsColName: s.startingCredits,
		schema.VoteCreditsTableLastCreditRefreshColName:  goqu.Func("NOW"),
		schema.VoteCreditsTableCreatedAtColName:          goqu.Func("NOW"),
		schema.VoteCreditsTableUpdatedAtColName:          goqu.Func("NOW"),
	}).OnConflict(goqu.DoNothing()).Executor().ExecContext(ctx)
	if err != nil {
		return nil, err
	}

	var row schema.VoteCreditsRow

	success, err := tx.Select(goqu.Star()).
		From(schema.VoteCreditsTable).
		Where(schema.VoteCreditsTableUserIDCol.Eq(userID)).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrVoteNotFound
	}

	return &row, nil
}

func (s *Repository) appendTransaction(
	ctx context.Context,
	tx *goqu.TxDatabase,
	userID int64,
	change int32,
	reason schema.VoteCreditTransactionReason,
	txnCol string,
	targetID int64,
) error {
	_, err := tx.Insert(schema.VoteCreditTransactionTable).Rows(goqu.Record{
		schema.VoteCreditTransactionTableUserIDColName:        userID,
		schema.VoteCreditTransactionTableCreditsChangeColName: change,
		schema.VoteCreditTransactionTableReasonColName:        reason,
		schema.VoteCreditTransactionTableCreatedAtColName:     goqu.Func("NOW"),
		txnCol: targetID,
	}).Executor().ExecContext(ctx)

	return err
}

func (s *Repository) setAvailableCredits(
	ctx context.Context, tx *goqu.TxDatabase, userID int64, available int32,
) error {
	_, err := tx.Update(schema.VoteCreditsTable).
		Set(goqu.Record{
			schema.VoteCreditsTableAvailableCreditsColName: available,
			schema.VoteCreditsTableUpdatedAtColName:        goqu.Func("NOW"),
		}).
		Where(schema.VoteCreditsTableUserIDCol.Eq(userID)).
		Executor().ExecContext(ctx)

	return err
}

// refreshTargetScore recomputes the aggregate tally from the votes table,
// returning the new score.
func refreshTargetScore(
	ctx context.Context, tx *goqu.TxDatabase, tgt target, targetID int64,
) (int64, error) {
	var score int64

	_, err := tx.Select(goqu.COALESCE(
		goqu.SUM(goqu.L("? * ?", schema.UserVoteTableVoteTypeCol, schema.UserVoteTableVoteWeightCol)), 0,
	)).
		From(schema.UserVoteTable).
		Where(schema.UserVoteTable.Col(tgt.voteCol).Eq(targetID)).
		Executor().ScanValContext(ctx, &score)
	if err != nil {
		return 0, err
	}

	_, err = tx.Update(tgt.table).
		Set(goqu.Record{tgt.scoreColName: score}).
		Where(tgt.idCol.Eq(targetID)).
		Executor().ExecContext(ctx)

	return score, err
}

// QuadraticVote casts or replaces the user's vote on a target. Replacing
// refunds the previous cost and charges the new one as two separate ledger
// rows, so the credit history stays auditable.
func (s *Repository) QuadraticVote(
	ctx context.Context,
	userID int64,
	targetID int64,
	targetType schema.VoteTargetType,
	voteWeight int32,
	voteType int32,
) (*VoteResult, error) {
	tgt, err := voteTarget(targetType)
	if err != nil {
		return nil, err
	}

	if voteWeight < 1 || voteWeight > s.maxVoteWeight {
		return nil, fmt.Errorf("%w: %d", errInvalidVoteWeight, voteWeight)
	}

	if voteType > 0 {
		voteType = 1
	} else {
		voteType = -1
	}

	cost := Cost(voteWeight)

	var result VoteResult

	err = s.db.WithTx(func(tx *goqu.TxDatabase) error {
		credits, err := s.creditsForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		available := credits.AvailableCredits

		var prior schema.UserVoteRow

		hasPrior, err := tx.Select(goqu.Star()).
			From(schema.UserVoteTable).
			Where(
				schema.UserVoteTableUserIDCol.Eq(userID),
				schema.UserVoteTable.Col(tgt.voteCol).Eq(targetID),
			).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &prior)
		if err != nil {
			return err
		}

		if hasPrior {
			available += prior.CreditsSpent
		}

		if available < cost {
			return ErrInsufficientCredits
		}

		if hasPrior {
			err = s.appendTransaction(
				ctx, tx, userID, prior.CreditsSpent,
				schema.VoteCreditTransactionReasonVoteRefund, tgt.txnCol, targetID,
			)
			if err != nil {
				return err
			}
		}

		err = s.appendTransaction(
			ctx, tx, userID, -cost,
			schema.VoteCreditTransactionReasonVoteCast, tgt.txnCol, targetID,
		)
		if err != nil {
			return err
		}

		err = s.setAvailableCredits(ctx, tx, userID, available-cost)
		if err != nil {
			return err
		}

		voteRecord := goqu.Record{
			schema.UserVoteTableVoteTypeColName:     voteType,
			schema.UserVoteTableVoteWeightColName:   voteWeight,
			schema.UserVoteTableCreditsSpentColName: cost,
			schema.UserVoteTableUpdatedAtColName:    goqu.Func("NOW"),
		}

		if hasPrior {
			success, err := tx.Update(schema.UserVoteTable).
				Set(voteRecord).
				Where(schema.UserVoteTableIDCol.Eq(prior.ID)).
				Returning(goqu.Star()).
				Executor().ScanStructContext(ctx, &result.Vote)
			if err != nil {
				return err
			}

			if !success {
				return ErrVoteNotFound
			}
		} else {
			voteRecord[schema.UserVoteTableUserIDColName] = userID
			voteRecord[tgt.voteCol] = targetID
			voteRecord[schema.UserVoteTableCreatedAtColName] = goqu.Func("NOW")

			success, err := tx.Insert(schema.UserVoteTable).Rows(voteRecord).
				Returning(goqu.Star()).
				Executor().ScanStructContext(ctx, &result.Vote)
			if err != nil {
				return err
			}

			if !success {
				return ErrVoteNotFound
			}
		}

		result.TargetScore, err = refreshTargetScore(ctx, tx, tgt, targetID)
		if err != nil {
			return err
		}

		result.CreditsSpent = cost
		result.CreditsRemaining = available - cost

		return nil
	})
	if err != nil {
		return nil, err
	}

	votesCastTotal.WithLabelValues(string(targetType)).Inc()

	return &result, nil
}

// RemoveQuadraticVote withdraws the user's vote on a target and refunds
// the spent credits through a compensating ledger row.
func (s *Repository) RemoveQuadraticVote(
	ctx context.Context, userID int64, targetID int64, targetType schema.VoteTargetType,
) (int64, error) {
	tgt, err := voteTarget(targetType)
	if err != nil {
		return 0, err
	}

	var score int64

	err = s.db.WithTx(func(tx *goqu.TxDatabase) error {
		credits, err := s.creditsForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		var prior schema.UserVoteRow

		hasPrior, err := tx.Select(goqu.Star()).
			From(schema.UserVoteTable).
			Where(
				schema.UserVoteTableUserIDCol.Eq(userID),
				schema.UserVoteTable.Col(tgt.voteCol).Eq(targetID),
			).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &prior)
		if err != nil {
			return err
		}

		if !hasPrior {
			return ErrVoteNotFound
		}

		_, err = tx.Delete(schema.UserVoteTable).
			Where(schema.UserVoteTableIDCol.Eq(prior.ID)).
			Executor().ExecContext(ctx)
		if err != nil {
			return err
		}

		err = s.appendTransaction(
			ctx, tx, userID, prior.CreditsSpent,
			schema.VoteCreditTransactionReasonVoteRefund, tgt.txnCol, targetID,
		)
		if err != nil {
			return err
		}

		err = s.setAvailableCredits(ctx, tx, userID, credits.AvailableCredits+prior.CreditsSpent)
		if err != nil {
			return err
		}

		score, err = refreshTargetScore(ctx, tx, tgt, targetID)

		return err
	})
	if err != nil {
		return 0, err
	}

	return score, nil
}

// UserVoteCredits returns the user's credit balance, creating the row with
// the starting balance on first touch.
func (s *Repository) UserVoteCredits(ctx context.Context, userID int64) (*schema.VoteCreditsRow, error) {
	var row *schema.VoteCreditsRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		var err error

		row, err = s.creditsForUpdate(ctx, tx, userID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

// RefreshCredits tops the balance back up to the configured refresh amount
// once per refresh interval. Balances above the refresh amount are left
// alone.
func (s *Repository) RefreshCredits(ctx context.Context, userID int64) (*schema.VoteCreditsRow, error) {
	var row *schema.VoteCreditsRow

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		var err error

		row, err = s.creditsForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if time.Since(row.LastCreditRefresh) < s.refreshInterval {
			return nil
		}

		delta := s.refreshCredits - row.AvailableCredits
		if delta <= 0 {
			return nil
		}

		_, err = tx.Update(schema.VoteCreditsTable).
			Set(goqu.Record{
				schema.VoteCreditsTableAvailableCreditsColName: s.refreshCredits,
				schema.VoteCreditsTableTotalEarnedCreditsColName: goqu.L(
					"? + ?", schema.VoteCreditsTableTotalEarnedCreditsCol, delta,
				),
				schema.VoteCreditsTableLastCreditRefreshColName: goqu.Func("NOW"),
				schema.VoteCreditsTableUpdatedAtColName:         goqu.Func("NOW"),
			}).
			Where(schema.VoteCreditsTableUserIDCol.Eq(userID)).
			Executor().ExecContext(ctx)
		if err != nil {
			return err
		}

		_, err = tx.Insert(schema.VoteCreditTransactionTable).Rows(goqu.Record{
			schema.VoteCreditTransactionTableUserIDColName:        userID,
			schema.VoteCreditTransactionTableCreditsChangeColName: delta,
			schema.VoteCreditTransactionTableReasonColName:        schema.VoteCreditTransactionReasonCreditRefresh,
			schema.VoteCreditTransactionTableCreatedAtColName:     goqu.Func("NOW"),
		}).Executor().ExecContext(ctx)

		row.AvailableCredits = s.refreshCredits
		row.TotalEarnedCredits += delta

		return err
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

func (s *Repository) VoteCreditHistory(
	ctx context.Context, userID int64, limit uint, offset uint,
) ([]schema.VoteCreditTransactionRow, error) {
	var rows []schema.VoteCreditTransactionRow

	err := s.db.Select(goqu.Star()).
		From(schema.VoteCreditTransactionTable).
		Where(schema.VoteCreditTransactionTableUserIDCol.Eq(userID)).
		Order(schema.VoteCreditTransactionTableIDCol.Desc()).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) UserVotes(
	ctx context.Context, userID int64, limit uint, offset uint,
) ([]schema.UserVoteRow, error) {
	var rows []schema.UserVoteRow

	err := s.db.Select(goqu.Star()).
		From(schema.UserVoteTable).
		Where(schema.UserVoteTableUserIDCol.Eq(userID)).
		Order(schema.UserVoteTableCreatedAtCol.Desc()).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

// Vote returns the user's current vote on a target, nil when absent.
func (s *Repository) Vote(
	ctx context.Context, userID int64, targetID int64, targetType schema.VoteTargetType,
) (*schema.UserVoteRow, error) {
	tgt, err := voteTarget(targetType)
	if err != nil {
		return nil, err
	}

	var row schema.UserVoteRow

	success, err := s.db.Select(goqu.Star()).
		From(schema.UserVoteTable).
		Where(
			schema.UserVoteTableUserIDCol.Eq(userID),
			schema.UserVoteTable.Col(tgt.voteCol).Eq(targetID),
		).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, nil //nolint: nilnil
	}

	return &row, nil
}
