package handler

import (
	"card-exchange/internal/adapter/http/dto"
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"
	"card-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuctionHandler handles clock auction endpoints.
type AuctionHandler struct {
	auctionSvc ports.AuctionService
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(auctionSvc ports.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionSvc: auctionSvc}
}

// List handles GET /api/v1/auctions.
func (h *AuctionHandler) List(c *gin.Context) {
	auctions, err := h.auctionSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.AuctionResponse, len(auctions))
	for i := range auctions {
		out[i] = dto.ToAuctionResponse(&auctions[i], 0)
	}
	response.OK(c, out)
}

// Get handles GET /api/v1/auctions/:token_id.
func (h *AuctionHandler) Get(c *gin.Context) {
	tokenID, ok := parseIDParam(c, "token_id")
	if !ok {
		return
	}
	auction, price, err := h.auctionSvc.Get(c.Request.Context(), tokenID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToAuctionResponse(auction, price))
}

// Create handles POST /api/v1/auctions.
func (h *AuctionHandler) Create(c *gin.Context) {
	var req dto.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	auction, err := h.auctionSvc.Create(c.Request.Context(), caller, req.TokenID, req.StartingPrice, req.EndingPrice, req.Duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAuctionResponse(auction, auction.StartingPrice))
}

// Bid handles POST /api/v1/auctions/:token_id/bid.
func (h *AuctionHandler) Bid(c *gin.Context) {
	tokenID, ok := parseIDParam(c, "token_id")
	if !ok {
		return
	}
	var req dto.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	card, err := h.auctionSvc.Bid(c.Request.Context(), caller, tokenID, req.Payment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToCardResponse(card))
}

// Cancel handles DELETE /api/v1/auctions/:token_id.
func (h *AuctionHandler) Cancel(c *gin.Context) {
	tokenID, ok := parseIDParam(c, "token_id")
	if !ok {
		return
	}

	caller := middleware.CallerAddress(c)
	if err := h.auctionSvc.Cancel(c.Request.Context(), caller, tokenID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"token_id": tokenID, "cancelled": true})
}
