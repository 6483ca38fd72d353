package handler

import (
	"strconv"

	"card-exchange/internal/adapter/http/dto"
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"
	"card-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// CardHandler handles card registry and pack endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation("invalid "+name))
		return 0, false
	}
	return id, true
}

// GetCard handles GET /api/v1/cards/:id.
func (h *CardHandler) GetCard(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	card, err := h.cardSvc.GetCard(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToCardResponse(card))
}

// ListByOwner handles GET /api/v1/cards?owner=<address>.
func (h *CardHandler) ListByOwner(c *gin.Context) {
	owner := c.Query("owner")
	cards, err := h.cardSvc.GetCardsByOwner(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToCardResponses(cards))
}

// ListMine handles GET /api/v1/cards/mine.
func (h *CardHandler) ListMine(c *gin.Context) {
	caller := middleware.CallerAddress(c)
	cards, err := h.cardSvc.GetCardsByOwner(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToCardResponses(cards))
}

// TotalSupply handles GET /api/v1/cards/supply.
func (h *CardHandler) TotalSupply(c *gin.Context) {
	n, err := h.cardSvc.TotalSupply(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"total_supply": n})
}

// PackState handles GET /api/v1/packs.
func (h *CardHandler) PackState(c *gin.Context) {
	settings, err := h.cardSvc.PackState(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToPackStateResponse(settings))
}

// BuyPack handles POST /api/v1/packs/buy.
func (h *CardHandler) BuyPack(c *gin.Context) {
	var req dto.BuyPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	cards, err := h.cardSvc.BuyPack(c.Request.Context(), caller, req.Payment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponses(cards))
}
