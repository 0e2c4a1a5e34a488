package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/toolgrid/gotoolgrid/schema"
)

var (
	ErrFlagNotFound  = errors.New("flag not found")
	errUnknownType   = errors.New("unknown flag type")
	errUnknownStatus = errors.New("unknown flag status")
)

const MaxDescriptionLength = 4 * 1024

var flagsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "toolgrid_flags_created_total",
	Help: "Flags submitted by reporters.",
}, []string{"type", "reason"})

// Repository Main Object.
type Repository struct {
	db             *goqu.Database
	redis          *redis.Client
	submitInterval time.Duration
}

// NewRepository constructor.
func NewRepository(db *goqu.Database, redisClient *redis.Client, submitInterval time.Duration) *Repository {
	return &Repository{
		db:             db,
		redis:          redisClient,
		submitInterval: submitInterval,
	}
}

func entityColumn(typ schema.FlagType) (string, error) {
	switch typ {
	case schema.FlagTypeContent:
		return schema.FlagTableContentIDColName, nil
	case schema.FlagTypeTool:
		return schema.FlagTableToolIDColName, nil
	case schema.FlagTypeReview:
		return schema.FlagTableReviewIDColName, nil
	case schema.FlagTypeComment:
		return schema.FlagTableCommentIDColName, nil
	case schema.FlagTypeUser:
		return schema.FlagTableUserIDColName, nil
	}

	return "", fmt.Errorf("%w: `%s`", errUnknownType, typ)
}

func (s *Repository) create(
	ctx context.Context,
	typ schema.FlagType,
	entityID int64,
	reporterID int64,
	reason schema.FlagReason,
	description string,
) (*schema.FlagRow, error) {
	entityCol, err := entityColumn(typ)
	if err != nil {
		return nil, err
	}

	if len(description) > MaxDescriptionLength {
		description = description[:MaxDescriptionLength]
	}

	record := goqu.Record{
		schema.FlagTableTypeColName:       typ,
		schema.FlagTableReasonColName:     reason,
		schema.FlagTableReporterIDColName: reporterID,
		schema.FlagTableStatusColName:     schema.FlagStatusPending,
		schema.FlagTableCreatedAtColName:  goqu.Func("NOW"),
		schema.FlagTableUpdatedAtColName:  goqu.Func("NOW"),
		entityCol:                         entityID,
	}

	if description != "" {
		record[schema.FlagTableDescriptionColName] = description
	}

	var row schema.FlagRow

	success, err := s.db.Insert(schema.FlagTable).Rows(record).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, sql.ErrNoRows
	}

	flagsCreatedTotal.WithLabelValues(string(typ), string(reason)).Inc()

	return &row, nil
}

func (s *Repository) CreateContentFlag(
	ctx context.Context, contentID int64, reporterID int64, reason schema.FlagReason, description string,
) (*schema.FlagRow, error) {
	return s.create(ctx, schema.FlagTypeContent, contentID, reporterID, reason, description)
}

func (s *Repository) CreateToolFlag(
	ctx context.Context, toolID int64, reporterID int64, reason schema.FlagReason, description string,
) (*schema.FlagRow, error) {
	return s.create(ctx, schema.FlagTypeTool, toolID, reporterID, reason, description)
}

func (s *Repository) CreateReviewFlag(
	ctx context.Context, reviewID int64, reporterID int64, reason schema.FlagReason, description string,
) (*schema.FlagRow, error) {
	return s.create(ctx, schema.FlagTypeReview, reviewID, reporterID, reason, description)
}

func (s *Repository) CreateCommentFlag(
	ctx context.Context, commentID int64, reporterID int64, reason schema.FlagReason, description string,
) (*schema.FlagRow, error) {
	return s.create(ctx, schema.FlagTypeComment, commentID, reporterID, reason, description)
}

func (s *Repository) CreateUserFlag(
	ctx context.Context, userID int64, reporterID int64, reason schema.FlagReason, description string,
) (*schema.FlagRow, error) {
	return s.create(ctx, schema.FlagTypeUser, userID, reporterID, reason, description)
}

// UpdateStatus is a bare status transition. Side effects (moderation
// actions, audit entries) belong to the moderation repository.
func (s *Repository) UpdateStatus(
	ctx context.Context, id int64, status schema.FlagStatus,
) (*schema.FlagRow, error) {
	switch status {
	case schema.FlagStatusPending, schema.FlagStatusApproved,
		schema.FlagStatusRejected, schema.FlagStatusAppealed:
	default:
		return nil, fmt.Errorf("%w: `%s`", errUnknownStatus, status)
	}

	var row schema.FlagRow

	success, err := s.db.Update(schema.FlagTable).
		Set(goqu.Record{
			schema.FlagTableStatusColName:    status,
			schema.FlagTableUpdatedAtColName: goqu.Func("NOW"),
		}).
		Where(schema.FlagTableIDCol.Eq(id)).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrFlagNotFound
	}

	return &row, nil
}

func (s *Repository) Flag(ctx context.Context, id int64) (*schema.FlagRow, error) {
	var row schema.FlagRow

	success, err := s.db.Select(goqu.Star()).
		From(schema.FlagTable).
		Where(schema.FlagTableIDCol.Eq(id)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrFlagNotFound
	}

	return &row, nil
}

// Pending returns unresolved flags oldest-first so that triage is FIFO.
func (s *Repository) Pending(ctx context.Context, limit uint, offset uint) ([]schema.FlagRow, error) {
	var rows []schema.FlagRow

	err := s.db.Select(goqu.Star()).
		From(schema.FlagTable).
		Where(schema.FlagTableStatusCol.Eq(schema.FlagStatusPending)).
		Order(schema.FlagTableCreatedAtCol.Asc()).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) ByStatus(
	ctx context.Context, status schema.FlagStatus, limit uint, offset uint,
) ([]schema.FlagRow, error) {
	order := schema.FlagTableCreatedAtCol.Desc()
	if status == schema.FlagStatusPending {
		order = schema.FlagTableCreatedAtCol.Asc()
	}

	var rows []schema.FlagRow

	err := s.db.Select(goqu.Star()).
		From(schema.FlagTable).
		Where(schema.FlagTableStatusCol.Eq(status)).
		Order(order).
		Limit(limit).Offset(offset).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) ByEntity(
	ctx context.Context, typ schema.FlagType, entityID int64,
) ([]schema.FlagRow, error) {
	entityCol, err := entityColumn(typ)
	if err != nil {
		return nil, err
	}

	var rows []schema.FlagRow

	err = s.db.Select(goqu.Star()).
		From(schema.FlagTable).
		Where(
			schema.FlagTableTypeCol.Eq(typ),
			schema.FlagTable.Col(entityCol).Eq(entityID),
		).
		Order(schema.FlagTableCreatedAtCol.Desc()).
		ScanStructsContext(ctx, &rows)

	return rows, err
}

func (s *Repository) CountByStatus(ctx context.Context, status schema.FlagStatus) (int64, error) {
	count, err := s.db.From(schema.FlagTable).
		Where(schema.FlagTableStatusCol.Eq(status)).
		CountContext(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// NeedWait reports whether reporterID submitted a flag within the
// configured interval. A successful check reserves the slot.
func (s *Repository) NeedWait(ctx context.Context, reporterID int64) (bool, error) {
	if s.redis == nil || s.submitInterval <= 0 {
		return false, nil
	}

	key := fmt.Sprintf("flag-submit/%d", reporterID)

	set, err := s.redis.SetNX(ctx, key, 1, s.submitInterval).Result()
	if err != nil {
		return false, err
	}

	return !set, nil
}
