package gotoolgrid

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toolgrid/gotoolgrid/moderation"
	"github.com/toolgrid/gotoolgrid/schema"
	"github.com/toolgrid/gotoolgrid/util"
)

// APIModerationAction APIModerationAction.
type APIModerationAction struct {
	ID           int64                         `json:"id"`
	ActionType   schema.ModerationActionType   `json:"action_type"`
	ModeratorID  int64                         `json:"moderator_id"`
	ContentID    *int64                        `json:"content_id,omitempty"`
	UserID       *int64                        `json:"user_id,omitempty"`
	FlagID       *int64                        `json:"flag_id,omitempty"`
	Reason       *string                       `json:"reason,omitempty"`
	Status       schema.ModerationActionStatus `json:"status"`
	AIDetected   bool                          `json:"ai_detected"`
	AIScore      *float64                      `json:"ai_score,omitempty"`
	AIReason     *string                       `json:"ai_reason,omitempty"`
	CreatedAt    time.Time                     `json:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at"`
	RevertedAt   *time.Time                    `json:"reverted_at,omitempty"`
	RevertedByID *int64                        `json:"reverted_by_id,omitempty"`
}

// APIAppeal APIAppeal.
type APIAppeal struct {
	ID                 int64               `json:"id"`
	ModerationActionID int64               `json:"moderation_action_id"`
	UserID             int64               `json:"user_id"`
	Reason             string              `json:"reason"`
	Status             schema.AppealStatus `json:"status"`
	ModeratorID        *int64              `json:"moderator_id,omitempty"`
	ModeratorNotes     *string             `json:"moderator_notes,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ResolvedAt         *time.Time          `json:"resolved_at,omitempty"`
}

// APIAuditLogEntry APIAuditLogEntry.
type APIAuditLogEntry struct {
	ID        int64           `json:"id"`
	ActionID  int64           `json:"action_id"`
	ActorID   int64           `json:"actor_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func extractModerationAction(row *schema.ModerationActionRow) APIModerationAction {
	result := APIModerationAction{
		ID:           row.ID,
		ActionType:   row.ActionType,
		ModeratorID:  row.ModeratorID,
		ContentID:    util.SQLNullInt64ToPtr(row.ContentID),
		UserID:       util.SQLNullInt64ToPtr(row.UserID),
		FlagID:       util.SQLNullInt64ToPtr(row.FlagID),
		Reason:       util.SQLNullStringToPtr(row.Reason),
		Status:       row.Status,
		AIDetected:   row.AIDetected,
		AIReason:     util.SQLNullStringToPtr(row.AIReason),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		RevertedAt:   util.SQLNullTimeToPtr(row.RevertedAt),
		RevertedByID: util.SQLNullInt64ToPtr(row.RevertedByID),
	}

	if row.AIScore.Valid {
		result.AIScore = &row.AIScore.Float64
	}

	return result
}

func extractAppeal(row *schema.AppealRow) APIAppeal {
	return APIAppeal{
		ID:                 row.ID,
		ModerationActionID: row.ModerationActionID,
		UserID:             row.UserID,
		Reason:             row.Reason,
		Status:             row.Status,
		ModeratorID:        util.SQLNullInt64ToPtr(row.ModeratorID),
		ModeratorNotes:     util.SQLNullStringToPtr(row.ModeratorNotes),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		ResolvedAt:         util.SQLNullTimeToPtr(row.ResolvedAt),
	}
}

func extractAppeals(rows []schema.AppealRow) []APIAppeal {
	result := make([]APIAppeal, 0, len(rows))
	for i := range rows {
		result = append(result, extractAppeal(&rows[i]))
	}

	return result
}

type createActionRequest struct {
	ActionType  schema.ModerationActionType `json:"action_type" binding:"required"`
	ContentID   int64                       `json:"content_id"`
	UserID      int64                       `json:"user_id"`
	ModeratorID int64                       `json:"moderator_id" binding:"required"`
	Reason      string                      `json:"reason"`
	FlagID      int64                       `json:"flag_id"`
}

type revertActionRequest struct {
	ModeratorID int64  `json:"moderator_id" binding:"required"`
	Reason      string `json:"reason"`
}

type createAppealRequest struct {
	ModerationActionID int64  `json:"moderation_action_id" binding:"required"`
	UserID             int64  `json:"user_id"              binding:"required"`
	Reason             string `json:"reason"               binding:"required"`
}

type resolveAppealRequest struct {
	ModeratorID int64  `json:"moderator_id" binding:"required"`
	Notes       string `json:"notes"`
}

// ModerationREST ModerationREST.
type ModerationREST struct {
	repository *moderation.Repository
}

func NewModerationREST(repository *moderation.Repository) *ModerationREST {
	return &ModerationREST{
		repository: repository,
	}
}

func (s *ModerationREST) postActionAction(ctx *gin.Context) {
	var request createActionRequest

	err := ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var row *schema.ModerationActionRow

	switch {
	case request.ContentID > 0:
		row, err = s.repository.CreateContentAction(
			ctx, request.ActionType, request.ContentID, request.ModeratorID,
			request.Reason, request.FlagID, nil,
		)
	case request.UserID > 0:
		row, err = s.repository.CreateUserAction(
			ctx, request.ActionType, request.UserID, request.ModeratorID,
			request.Reason, request.FlagID, nil,
		)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "content_id or user_id is required"})

		return
	}

	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusCreated, extractModerationAction(row))
}

func (s *ModerationREST) postRevertAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	var request revertActionRequest

	err = ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	row, err := s.repository.RevertAction(ctx, id, request.ModeratorID, request.Reason)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrActionNotFound):
			ctx.Status(http.StatusNotFound)
		case errors.Is(err, moderation.ErrAlreadyReverted):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			ctx.String(http.StatusInternalServerError, err.Error())
		}

		return
	}

	ctx.JSON(http.StatusOK, extractModerationAction(row))
}

func (s *ModerationREST) getActionAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.Action(ctx, id)
	if err != nil {
		if errors.Is(err, moderation.ErrActionNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractModerationAction(row))
}

func (s *ModerationREST) listActionsAction(ctx *gin.Context) {
	status := schema.ModerationActionStatus(ctx.Query("status"))
	limit := parseQueryUint(ctx, "limit", 20)
	offset := parseQueryUint(ctx, "offset", 0)

	rows, err := s.repository.Actions(ctx, status, limit, offset)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	items := make([]APIModerationAction, 0, len(rows))
	for i := range rows {
		items = append(items, extractModerationAction(&rows[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *ModerationREST) getAuditLogAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	rows, err := s.repository.AuditLog(ctx, id)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	items := make([]APIAuditLogEntry, 0, len(rows))

	for _, row := range rows {
		entry := APIAuditLogEntry{
			ID:        row.ID,
			ActionID:  row.ActionID,
			ActorID:   row.ActorID,
			Action:    row.Action,
			CreatedAt: row.CreatedAt,
		}

		if row.Details.Valid {
			entry.Details = json.RawMessage(row.Details.String)
		}

		items = append(items, entry)
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *ModerationREST) postAppealAction(ctx *gin.Context) {
	var request createAppealRequest

	err := ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	row, err := s.repository.CreateAppeal(ctx, request.ModerationActionID, request.UserID, request.Reason)
	if err != nil {
		if errors.Is(err, moderation.ErrActionNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusCreated, extractAppeal(row))
}

func (s *ModerationREST) getAppealAction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.Appeal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractAppeal(row))
}

func (s *ModerationREST) resolveAppealAction(ctx *gin.Context, approve bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	var request resolveAppealRequest

	err = ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var row *schema.AppealRow

	if approve {
		row, err = s.repository.ApproveAppeal(ctx, id, request.ModeratorID, request.Notes)
	} else {
		row, err = s.repository.RejectAppeal(ctx, id, request.ModeratorID, request.Notes)
	}

	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrAppealNotPending):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, moderation.ErrActionNotFound):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			ctx.String(http.StatusInternalServerError, err.Error())
		}

		return
	}

	if row == nil {
		ctx.Status(http.StatusNotFound)

		return
	}

	ctx.JSON(http.StatusOK, extractAppeal(row))
}

func (s *ModerationREST) listAppealsAction(ctx *gin.Context) {
	limit := parseQueryUint(ctx, "limit", 20)
	offset := parseQueryUint(ctx, "offset", 0)

	if userIDStr := ctx.Query("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			ctx.String(http.StatusBadRequest, err.Error())

			return
		}

		rows, err := s.repository.AppealsByUser(ctx, userID, limit, offset)
		if err != nil {
			ctx.String(http.StatusInternalServerError, err.Error())

			return
		}

		ctx.JSON(http.StatusOK, gin.H{"items": extractAppeals(rows)})

		return
	}

	status := schema.AppealStatus(ctx.DefaultQuery("status", string(schema.AppealStatusPending)))

	rows, err := s.repository.AppealsByStatus(ctx, status, limit, offset)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": extractAppeals(rows)})
}

func (s *ModerationREST) SetupRouter(router *gin.Engine) {
	router.POST("/api/moderation/actions", s.postActionAction)
	router.GET("/api/moderation/actions", s.listActionsAction)
	router.GET("/api/moderation/actions/:id", s.getActionAction)
	router.POST("/api/moderation/actions/:id/revert", s.postRevertAction)
	router.GET("/api/moderation/actions/:id/audit-log", s.getAuditLogAction)
	router.POST("/api/moderation/appeals", s.postAppealAction)
	router.GET("/api/moderation/appeals", s.listAppealsAction)
	router.GET("/api/moderation/appeals/:id", s.getAppealAction)
	router.POST("/api/moderation/appeals/:id/approve", func(ctx *gin.Context) {
		s.resolveAppealAction(ctx, true)
	})
	router.POST("/api/moderation/appeals/:id/reject", func(ctx *gin.Context) {
		s.resolveAppealAction(ctx, false)
	})
}
