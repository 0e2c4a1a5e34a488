package spam

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/toolgrid/gotoolgrid/moderation"
	"github.com/toolgrid/gotoolgrid/schema"
)

var spamChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "toolgrid_spam_checks_total",
	Help: "Spam checks by scoring tier and outcome.",
}, []string{"tier", "outcome"})

// Result of a spam check.
type Result struct {
	IsSpam bool    `json:"is_spam"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Scorer scores text for spam likelihood. An external classifier is
// preferred when configured, the deterministic heuristic is the fallback.
// Scoring never fails: any internal error degrades to a non-spam verdict.
type Scorer struct {
	db                  *goqu.Database
	classifier          *ClassifierClient
	redis               *redis.Client
	moderationRepo      *moderation.Repository
	spamThreshold       float64
	autoActionThreshold float64
	cacheTTL            time.Duration
}

// NewScorer constructor. classifier and redisClient may be nil.
func NewScorer(
	db *goqu.Database,
	classifier *ClassifierClient,
	redisClient *redis.Client,
	moderationRepo *moderation.Repository,
	spamThreshold float64,
	autoActionThreshold float64,
	cacheTTL time.Duration,
) *Scorer {
	return &Scorer{
		db:                  db,
		classifier:          classifier,
		redis:               redisClient,
		moderationRepo:      moderationRepo,
		spamThreshold:       spamThreshold,
		autoActionThreshold: autoActionThreshold,
		cacheTTL:            cacheTTL,
	}
}

// ScoreText scores free-form text.
func (s *Scorer) ScoreText(ctx context.Context, content string) Result {
	return s.Score(ctx, "text", content)
}

// Score scores content of a given type, records the check and caches the
// verdict.
func (s *Scorer) Score(ctx context.Context, typ string, content string) Result {
	if result, ok := s.cached(ctx, content); ok {
		return result
	}

	result, tier := s.classify(ctx, content)

	s.persistCheck(ctx, typ, content, result)
	s.cacheResult(ctx, content, result)

	outcome := "clean"
	if result.IsSpam {
		outcome = "spam"
	}

	spamChecksTotal.WithLabelValues(tier, outcome).Inc()

	return result
}

func (s *Scorer) classify(ctx context.Context, content string) (Result, string) {
	if s.classifier != nil {
		score, err := s.classifier.SpamScore(ctx, content)
		if err == nil {
			return Result{
				IsSpam: score > s.spamThreshold,
				Score:  score,
				Reason: fmt.Sprintf("classifier spam score %.2f", score),
			}, "classifier"
		}

		// fail open to the heuristic, a flaky classifier must not
		// block scoring
		logrus.Warnf("spam classifier fallback: %v", err)
	}

	return heuristicScore(content), "heuristic"
}

func cacheKey(content string) string {
	hash := sha256.Sum256([]byte(content))

	return "spam-check/" + hex.EncodeToString(hash[:])
}

func (s *Scorer) cached(ctx context.Context, content string) (Result, bool) {
	if s.redis == nil {
		return Result{}, false
	}

	value, err := s.redis.Get(ctx, cacheKey(content)).Result()
	if err != nil {
		if err != redis.Nil {
			logrus.Errorf("spam check cache read: %v", err)
		}

		return Result{}, false
	}

	var result Result

	err = json.Unmarshal([]byte(value), &result)
	if err != nil {
		return Result{}, false
	}

	return result, true
}

func (s *Scorer) cacheResult(ctx context.Context, content string, result Result) {
	if s.redis == nil {
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return
	}

	err = s.redis.Set(ctx, cacheKey(content), encoded, s.cacheTTL).Err()
	if err != nil {
		logrus.Errorf("spam check cache write: %v", err)
	}
}

// persistCheck appends the immutable spam_check record. A failed write is
// logged but never fails the score.
func (s *Scorer) persistCheck(ctx context.Context, typ string, content string, result Result) {
	record := goqu.Record{
		schema.SpamCheckTableTypeColName:      typ,
		schema.SpamCheckTableContentColName:   content,
		schema.SpamCheckTableScoreColName:     result.Score,
		schema.SpamCheckTableIsSpamColName:    result.IsSpam,
		schema.SpamCheckTableCreatedAtColName: goqu.Func("NOW"),
	}

	if result.Reason != "" {
		record[schema.SpamCheckTableReasonColName] = result.Reason
	}

	_, err := s.db.Insert(schema.SpamCheckTable).Rows(record).Executor().ExecContext(ctx)
	if err != nil {
		logrus.Errorf("failed to record spam check: %v", err)
	}
}

func (s *Scorer) flaggedText(ctx context.Context, flag *schema.FlagRow) (string, error) {
	var (
		text    string
		success bool
		err     error
	)

	switch flag.Type {
	case schema.FlagTypeContent:
		success, err = s.db.Select(schema.ContentTableBodyCol).
			From(schema.ContentTable).
			Where(schema.ContentTableIDCol.Eq(flag.ContentID.Int64)).
			ScanValContext(ctx, &text)
	case schema.FlagTypeTool:
		success, err = s.db.Select(schema.ToolTableDescriptionCol).
			From(schema.ToolTable).
			Where(schema.ToolTableIDCol.Eq(flag.ToolID.Int64)).
			ScanValContext(ctx, &text)
	case schema.FlagTypeReview:
		success, err = s.db.Select(schema.ReviewTableTextCol).
			From(schema.ReviewTable).
			Where(schema.ReviewTableIDCol.Eq(flag.ReviewID.Int64)).
			ScanValContext(ctx, &text)
	case schema.FlagTypeComment:
		success, err = s.db.Select(schema.CommentTableMessageCol).
			From(schema.CommentTable).
			Where(schema.CommentTableIDCol.Eq(flag.CommentID.Int64)).
			ScanValContext(ctx, &text)
	case schema.FlagTypeUser:
		return "", nil
	}

	if err != nil {
		return "", err
	}

	if !success {
		return "", nil
	}

	return text, nil
}

// CheckFlaggedContent scores the entity behind a flag and, for content
// flags crossing the auto-action threshold, hides the content as the
// system moderator. Returns whether an action was taken.
func (s *Scorer) CheckFlaggedContent(ctx context.Context, flag *schema.FlagRow) (bool, error) {
	text, err := s.flaggedText(ctx, flag)
	if err != nil {
		return false, err
	}

	if text == "" {
		return false, nil
	}

	result := s.Score(ctx, string(flag.Type), text)

	if !result.IsSpam || result.Score < s.autoActionThreshold {
		return false, nil
	}

	if flag.Type != schema.FlagTypeContent || s.moderationRepo == nil {
		return false, nil
	}

	_, err = s.moderationRepo.CreateContentAction(
		ctx,
		schema.ModerationActionTypeHide,
		flag.ContentID.Int64,
		schema.SystemModeratorID,
		"automated spam detection",
		flag.ID,
		&moderation.AIDetails{
			Score:  result.Score,
			Reason: result.Reason,
		},
	)
	if err != nil {
		return false, err
	}

	logrus.Infof("auto-hid content %d flagged as spam (score %.2f)", flag.ContentID.Int64, result.Score)

	return true, nil
}
