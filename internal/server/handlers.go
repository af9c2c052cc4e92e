package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	landedcostdomain "github.com/smallbiznis/kontera/internal/landedcost/domain"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	recdomain "github.com/smallbiznis/kontera/internal/reconciliation/domain"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
)

type handlers struct {
	posting    postingdomain.Service
	allocator  landedcostdomain.Allocator
	reconciler recdomain.Engine
	evaluator  supplierdomain.Evaluator
}

func parseID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) postTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.posting.Post(c.Request.Context(), id, c.GetHeader("X-Actor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) reverseEntryGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Memo string `json:"memo"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.posting.Reverse(c.Request.Context(), id, body.Memo, c.GetHeader("X-Actor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) allocateLandedCost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	allocated, err := h.allocator.Allocate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allocated": allocated})
}

func (h *handlers) reconcile(c *gin.Context) {
	report, err := h.reconciler.Reconcile(c.Request.Context(), c.Param("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) evaluateSupplier(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		PeriodStart time.Time `json:"period_start" binding:"required"`
		PeriodEnd   time.Time `json:"period_end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period"})
		return
	}

	snapshot, err := h.evaluator.Evaluate(c.Request.Context(), id, body.PeriodStart, body.PeriodEnd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
