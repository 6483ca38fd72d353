package handler

import (
	"card-exchange/internal/adapter/http/dto"
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"
	"card-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// RewardHandler handles DREM ledger endpoints.
type RewardHandler struct {
	rewardSvc ports.RewardService
}

// NewRewardHandler creates a new RewardHandler.
func NewRewardHandler(rewardSvc ports.RewardService) *RewardHandler {
	return &RewardHandler{rewardSvc: rewardSvc}
}

// Balance handles GET /api/v1/rewards/balance.
func (h *RewardHandler) Balance(c *gin.Context) {
	caller := middleware.CallerAddress(c)
	balance, err := h.rewardSvc.BalanceOf(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{Address: caller, Balance: balance})
}

// PreviewClaim handles GET /api/v1/rewards/claimable.
func (h *RewardHandler) PreviewClaim(c *gin.Context) {
	caller := middleware.CallerAddress(c)
	amount, err := h.rewardSvc.PreviewClaim(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ClaimResponse{Address: caller, Amount: amount})
}

// Claim handles POST /api/v1/rewards/claim.
func (h *RewardHandler) Claim(c *gin.Context) {
	caller := middleware.CallerAddress(c)
	amount, err := h.rewardSvc.Claim(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ClaimResponse{Address: caller, Amount: amount})
}

// BuyPackWithDrem handles POST /api/v1/packs/buy-with-drem.
func (h *RewardHandler) BuyPackWithDrem(c *gin.Context) {
	var req dto.BuyPackWithDremRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	cards, err := h.rewardSvc.BuyPackWithDrem(c.Request.Context(), caller, req.Packs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponses(cards))
}
