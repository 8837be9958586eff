package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service  *service.GiveawayService
	excluded map[string]struct{}
}

func NewGiveawayHandler(svc *service.GiveawayService, excludedUsernames []string) *GiveawayHandler {
	return &GiveawayHandler{
		service:  svc,
		excluded: service.ExcludedUsernamesFromList(excludedUsernames),
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("/draw", h.draw)
		giveaways.POST("", h.create)
		giveaways.POST("/:id/entries", h.registerEntry)
		giveaways.GET("/:id/entries", h.listEntries)
		giveaways.POST("/:id/finalize", h.finalize)
	}

	router.POST("/winners/:token/message", h.messageWinners)
	router.GET("/channels/:channel/history", h.history)
}

type drawRequest struct {
	Channel      string `json:"channel" binding:"required"`
	WinnersCount int    `json:"winners_count"`
}

func (h *GiveawayHandler) draw(c *gin.Context) {
	var input drawRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.WinnersCount < 1 {
		input.WinnersCount = 1
	}

	result, err := h.service.RunDirectDraw(c.Request.Context(), input.Channel, input.WinnersCount, h.excluded)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPool) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no eligible participants"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winners": result.Winners,
		"token":   result.Token,
	})
}

type createRequest struct {
	Channel      string `json:"channel" binding:"required"`
	Text         string `json:"text" binding:"required"`
	WinnersCount int    `json:"winners_count" binding:"required"`
	FinalizeAt   string `json:"finalize_at"`
}

func (h *GiveawayHandler) create(c *gin.Context) {
	var input createRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.CreateInput{
		Channel:      input.Channel,
		Text:         input.Text,
		WinnersCount: input.WinnersCount,
	}
	if input.FinalizeAt != "" {
		at, err := time.Parse(time.RFC3339, input.FinalizeAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "finalize_at must be RFC3339"})
			return
		}
		in.FinalizeAt = at
	}

	id, err := h.service.CreatePostGiveaway(c.Request.Context(), in)
	if err != nil {
		var pubErr *service.PublishError
		if errors.As(err, &pubErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *GiveawayHandler) registerEntry(c *gin.Context) {
	var candidate models.Candidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if candidate.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	count, err := h.service.RegisterEntry(c.Request.Context(), c.Param("id"), candidate)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": count})
}

func (h *GiveawayHandler) listEntries(c *gin.Context) {
	entries, err := h.service.ListEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *GiveawayHandler) finalize(c *gin.Context) {
	result, err := h.service.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAlreadyFinished) {
			c.JSON(http.StatusConflict, gin.H{"error": "giveaway already finished"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winners": result.Winners,
		"entries": result.EntryCount,
		"token":   result.Token,
	})
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *GiveawayHandler) messageWinners(c *gin.Context) {
	var input messageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, total, err := h.service.MessageWinners(c.Request.Context(), c.Param("token"), input.Text)
	if err != nil {
		if errors.Is(err, service.ErrStaleToken) {
			c.JSON(http.StatusGone, gin.H{"error": "winner list expired"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent, "total": total})
}

func (h *GiveawayHandler) history(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := h.service.QueryHistory(c.Request.Context(), c.Param("channel"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"records": records,
	})
}
