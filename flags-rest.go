package gotoolgrid

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toolgrid/gotoolgrid/flags"
	"github.com/toolgrid/gotoolgrid/schema"
	"github.com/toolgrid/gotoolgrid/spam"
	"github.com/toolgrid/gotoolgrid/util"
)

// APIFlag APIFlag.
type APIFlag struct {
	ID          int64             `json:"id"`
	Type        schema.FlagType   `json:"type"`
	Reason      schema.FlagReason `json:"reason"`
	Description *string           `json:"description,omitempty"`
	ContentID   *int64            `json:"content_id,omitempty"`
	ToolID      *int64            `json:"tool_id,omitempty"`
	ReviewID    *int64            `json:"review_id,omitempty"`
	CommentID   *int64            `json:"comment_id,omitempty"`
	UserID      *int64            `json:"user_id,omitempty"`
	ReporterID  int64             `json:"reporter_id"`
	Status      schema.FlagStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func extractFlag(row *schema.FlagRow) APIFlag {
	return APIFlag{
		ID:          row.ID,
		Type:        row.Type,
		Reason:      row.Reason,
		Description: util.SQLNullStringToPtr(row.Description),
		ContentID:   util.SQLNullInt64ToPtr(row.ContentID),
		ToolID:      util.SQLNullInt64ToPtr(row.ToolID),
		ReviewID:    util.SQLNullInt64ToPtr(row.ReviewID),
		CommentID:   util.SQLNullInt64ToPtr(row.CommentID),
		UserID:      util.SQLNullInt64ToPtr(row.UserID),
		ReporterID:  row.ReporterID,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func extractFlags(rows []schema.FlagRow) []APIFlag {
	result := make([]APIFlag, 0, len(rows))
	for i := range rows {
		result = append(result, extractFlag(&rows[i]))
	}

	return result
}

type createFlagRequest struct {
	Type        schema.FlagType   `json:"type"        binding:"required"`
	EntityID    int64             `json:"entity_id"   binding:"required"`
	ReporterID  int64             `json:"reporter_id" binding:"required"`
	Reason      schema.FlagReason `json:"reason"      binding:"required"`
	Description string            `json:"description"`
}

type updateFlagStatusRequest struct {
	Status schema.FlagStatus `json:"status" binding:"required"`
}

// FlagsREST FlagsREST.
type FlagsREST struct {
	repository *flags.Repository
	scorer     *spam.Scorer
}

func NewFlagsREST(repository *flags.Repository, scorer *spam.Scorer) *FlagsREST {
	return &FlagsREST{
		repository: repository,
		scorer:     scorer,
	}
}

func (s *FlagsREST) postFlagAction(ctx *gin.Context) {
	var request createFlagRequest

	err := ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	needWait, err := s.repository.NeedWait(ctx, request.ReporterID)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	if needWait {
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "too many flags, try again later"})

		return
	}

	var row *schema.FlagRow

	switch request.Type {
	case schema.FlagTypeContent:
		row, err = s.repository.CreateContentFlag(
			ctx, request.EntityID, request.ReporterID, request.Reason, request.Description,
		)
	case schema.FlagTypeTool:
		row, err = s.repository.CreateToolFlag(
			ctx, request.EntityID, request.ReporterID, request.Reason, request.Description,
		)
	case schema.FlagTypeReview:
		row, err = s.repository.CreateReviewFlag(
			ctx, request.EntityID, request.ReporterID, request.Reason, request.Description,
		)
	case schema.FlagTypeComment:
		row, err = s.repository.CreateCommentFlag(
			ctx, request.EntityID, request.ReporterID, request.Reason, request.Description,
		)
	case schema.FlagTypeUser:
		row, err = s.repository.CreateUserFlag(
			ctx, request.EntityID, request.ReporterID, request.Reason, request.Description,
		)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown flag type"})

		return
	}

	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusCreated, extractFlag(row))
}

func (s *FlagsREST) getFlagAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.Flag(ctx, id)
	if err != nil {
		if errors.Is(err, flags.ErrFlagNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractFlag(row))
}

func (s *FlagsREST) listFlagsAction(ctx *gin.Context) {
	status := schema.FlagStatus(ctx.DefaultQuery("status", string(schema.FlagStatusPending)))
	limit := parseQueryUint(ctx, "limit", 20)
	offset := parseQueryUint(ctx, "offset", 0)

	rows, err := s.repository.ByStatus(ctx, status, limit, offset)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	count, err := s.repository.CountByStatus(ctx, status)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": extractFlags(rows),
		"count": count,
	})
}

func (s *FlagsREST) putFlagStatusAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	var request updateFlagStatusRequest

	err = ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	row, err := s.repository.UpdateStatus(ctx, id, request.Status)
	if err != nil {
		if errors.Is(err, flags.ErrFlagNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractFlag(row))
}

// postFlagCheckAction runs the spam scorer over a single flag on demand,
// outside the periodic sweep.
func (s *FlagsREST) postFlagCheckAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.Flag(ctx, id)
	if err != nil {
		if errors.Is(err, flags.ErrFlagNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	acted, err := s.scorer.CheckFlaggedContent(ctx, row)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"action_taken": acted})
}

func (s *FlagsREST) getEntityFlagsAction(ctx *gin.Context) {
	typ := schema.FlagType(ctx.Param("type"))

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	rows, err := s.repository.ByEntity(ctx, typ, id)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": extractFlags(rows)})
}

func (s *FlagsREST) SetupRouter(router *gin.Engine) {
	router.POST("/api/flags", s.postFlagAction)
	router.GET("/api/flags", s.listFlagsAction)
	router.GET("/api/flags/:id", s.getFlagAction)
	router.PUT("/api/flags/:id/status", s.putFlagStatusAction)
	router.POST("/api/flags/:id/check", s.postFlagCheckAction)
	router.GET("/api/flags/entity/:type/:id", s.getEntityFlagsAction)
}

func parseQueryUint(ctx *gin.Context, name string, fallback uint) uint {
	value, err := strconv.ParseUint(ctx.Query(name), 10, 32)
	if err != nil {
		return fallback
	}

	return uint(value)
}
