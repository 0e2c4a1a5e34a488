package gotoolgrid

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toolgrid/gotoolgrid/schema"
	"github.com/toolgrid/gotoolgrid/util"
	"github.com/toolgrid/gotoolgrid/votes"
)

// APIUserVote APIUserVote.
type APIUserVote struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ContentID    *int64    `json:"content_id,omitempty"`
	ToolID       *int64    `json:"tool_id,omitempty"`
	ReviewID     *int64    `json:"review_id,omitempty"`
	VoteType     int32     `json:"vote_type"`
	VoteWeight   int32     `json:"vote_weight"`
	CreditsSpent int32     `json:"credits_spent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIVoteCredits APIVoteCredits.
type APIVoteCredits struct {
	UserID             int64     `json:"user_id"`
	AvailableCredits   int32     `json:"available_credits"`
	TotalEarnedCredits int32     `json:"total_earned_credits"`
	LastCreditRefresh  time.Time `json:"last_credit_refresh"`
}

// APIVoteCreditTransaction APIVoteCreditTransaction.
type APIVoteCreditTransaction struct {
	ID            int64                              `json:"id"`
	UserID        int64                              `json:"user_id"`
	CreditsChange int32                              `json:"credits_change"`
	Reason        schema.VoteCreditTransactionReason `json:"reason"`
	ContentID     *int64                             `json:"content_id,omitempty"`
	ToolID        *int64                             `json:"tool_id,omitempty"`
	ReviewID      *int64                             `json:"review_id,omitempty"`
	CreatedAt     time.Time                          `json:"created_at"`
}

func extractUserVote(row *schema.UserVoteRow) APIUserVote {
	return APIUserVote{
		ID:           row.ID,
		UserID:       row.UserID,
		ContentID:    util.SQLNullInt64ToPtr(row.ContentID),
		ToolID:       util.SQLNullInt64ToPtr(row.ToolID),
		ReviewID:     util.SQLNullInt64ToPtr(row.ReviewID),
		VoteType:     row.VoteType,
		VoteWeight:   row.VoteWeight,
		CreditsSpent: row.CreditsSpent,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func extractVoteCredits(row *schema.VoteCreditsRow) APIVoteCredits {
	return APIVoteCredits{
		UserID:             row.UserID,
		AvailableCredits:   row.AvailableCredits,
		TotalEarnedCredits: row.TotalEarnedCredits,
		LastCreditRefresh:  row.LastCreditRefresh,
	}
}

type castVoteRequest struct {
	UserID     int64                 `json:"user_id"     binding:"required"`
	TargetID   int64                 `json:"target_id"   binding:"required"`
	TargetType schema.VoteTargetType `json:"target_type" binding:"required"`
	VoteWeight int32                 `json:"vote_weight" binding:"required"`
	VoteType   int32                 `json:"vote_type"   binding:"required"`
}

type removeVoteRequest struct {
	UserID     int64                 `json:"user_id"     binding:"required"`
	TargetID   int64                 `json:"target_id"   binding:"required"`
	TargetType schema.VoteTargetType `json:"target_type" binding:"required"`
}

// VotesREST VotesREST.
type VotesREST struct {
	repository *votes.Repository
}

func NewVotesREST(repository *votes.Repository) *VotesREST {
	return &VotesREST{
		repository: repository,
	}
}

func (s *VotesREST) postVoteAction(ctx *gin.Context) {
	var request castVoteRequest

	err := ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	result, err := s.repository.QuadraticVote(
		ctx, request.UserID, request.TargetID, request.TargetType,
		request.VoteWeight, request.VoteType,
	)
	if err != nil {
		if errors.Is(err, votes.ErrInsufficientCredits) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"vote":              extractUserVote(&result.Vote),
		"credits_spent":     result.CreditsSpent,
		"credits_remaining": result.CreditsRemaining,
		"target_score":      result.TargetScore,
	})
}

func (s *VotesREST) deleteVoteAction(ctx *gin.Context) {
	var request removeVoteRequest

	err := ctx.BindJSON(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	score, err := s.repository.RemoveQuadraticVote(ctx, request.UserID, request.TargetID, request.TargetType)
	if err != nil {
		if errors.Is(err, votes.ErrVoteNotFound) {
			ctx.Status(http.StatusNotFound)

			return
		}

		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"target_score": score})
}

func (s *VotesREST) getVoteAction(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Query("user_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	targetID, err := strconv.ParseInt(ctx.Query("target_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	targetType := schema.VoteTargetType(ctx.Query("target_type"))

	row, err := s.repository.Vote(ctx, userID, targetID, targetType)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	if row == nil {
		ctx.Status(http.StatusNotFound)

		return
	}

	ctx.JSON(http.StatusOK, extractUserVote(row))
}

func (s *VotesREST) getCreditsAction(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.UserVoteCredits(ctx, userID)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractVoteCredits(row))
}

func (s *VotesREST) postRefreshCreditsAction(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	row, err := s.repository.RefreshCredits(ctx, userID)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	ctx.JSON(http.StatusOK, extractVoteCredits(row))
}

func (s *VotesREST) getCreditHistoryAction(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	limit := parseQueryUint(ctx, "limit", 20)
	offset := parseQueryUint(ctx, "offset", 0)

	rows, err := s.repository.VoteCreditHistory(ctx, userID, limit, offset)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	items := make([]APIVoteCreditTransaction, 0, len(rows))

	for i := range rows {
		row := &rows[i]

		items = append(items, APIVoteCreditTransaction{
			ID:            row.ID,
			UserID:        row.UserID,
			CreditsChange: row.CreditsChange,
			Reason:        row.Reason,
			ContentID:     util.SQLNullInt64ToPtr(row.ContentID),
			ToolID:        util.SQLNullInt64ToPtr(row.ToolID),
			ReviewID:      util.SQLNullInt64ToPtr(row.ReviewID),
			CreatedAt:     row.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *VotesREST) getUserVotesAction(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("user_id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())

		return
	}

	limit := parseQueryUint(ctx, "limit", 20)
	offset := parseQueryUint(ctx, "offset", 0)

	rows, err := s.repository.UserVotes(ctx, userID, limit, offset)
	if err != nil {
		ctx.String(http.StatusInternalServerError, err.Error())

		return
	}

	items := make([]APIUserVote, 0, len(rows))
	for i := range rows {
		items = append(items, extractUserVote(&rows[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *VotesREST) SetupRouter(router *gin.Engine) {
	router.POST("/api/votes", s.postVoteAction)
	router.DELETE("/api/votes", s.deleteVoteAction)
	router.GET("/api/votes", s.getVoteAction)
	router.GET("/api/votes/user/:user_id", s.getUserVotesAction)
	router.GET("/api/votes/credits/:user_id", s.getCreditsAction)
	router.POST("/api/votes/credits/:user_id/refresh", s.postRefreshCreditsAction)
	router.GET("/api/votes/credits/:user_id/history", s.getCreditHistoryAction)
}
