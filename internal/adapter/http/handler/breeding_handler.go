package handler

import (
	"card-exchange/internal/adapter/http/dto"
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"
	"card-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// BreedingHandler handles ascend and transmogrify endpoints.
type BreedingHandler struct {
	breedingSvc ports.BreedingService
}

// NewBreedingHandler creates a new BreedingHandler.
func NewBreedingHandler(breedingSvc ports.BreedingService) *BreedingHandler {
	return &BreedingHandler{breedingSvc: breedingSvc}
}

// Ascend handles POST /api/v1/breeding/ascend.
func (h *BreedingHandler) Ascend(c *gin.Context) {
	var req dto.AscendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	child, err := h.breedingSvc.Ascend(c.Request.Context(), caller, req.MatronID, req.SireID, req.Payment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponse(child))
}

// Transmogrify handles POST /api/v1/breeding/transmogrify.
func (h *BreedingHandler) Transmogrify(c *gin.Context) {
	var req dto.TransmogrifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	result, err := h.breedingSvc.Transmogrify(c.Request.Context(), caller, req.CardIDs[0], req.CardIDs[1], req.CardIDs[2], req.Payment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponse(result))
}

// GetCooldown handles GET /api/v1/cards/:id/cooldown.
func (h *BreedingHandler) GetCooldown(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	remaining, err := h.breedingSvc.GetCooldown(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CooldownResponse{
		CardID:    id,
		Remaining: int64(remaining.Seconds()),
	})
}
