package handler

import (
	"strconv"

	"card-exchange/internal/adapter/http/dto"
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"
	"card-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles privileged endpoints: promo minting, role
// reassignment, economy knobs, pause switches, and DREM minting. Role
// enforcement lives in the services; handlers only resolve the caller.
type AdminHandler struct {
	accessSvc   ports.AccessService
	cardSvc     ports.CardService
	auctionSvc  ports.AuctionService
	breedingSvc ports.BreedingService
	rewardSvc   ports.RewardService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	accessSvc ports.AccessService,
	cardSvc ports.CardService,
	auctionSvc ports.AuctionService,
	breedingSvc ports.BreedingService,
	rewardSvc ports.RewardService,
) *AdminHandler {
	return &AdminHandler{
		accessSvc:   accessSvc,
		cardSvc:     cardSvc,
		auctionSvc:  auctionSvc,
		breedingSvc: breedingSvc,
		rewardSvc:   rewardSvc,
	}
}

func parseTraits(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// CreatePromoCard handles POST /api/v1/admin/promo-cards.
func (h *AdminHandler) CreatePromoCard(c *gin.Context) {
	var req dto.PromoCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	traits, err := parseTraits(req.Traits)
	if err != nil {
		response.Error(c, apperror.Validation("invalid traits"))
		return
	}

	caller := middleware.CallerAddress(c)
	card, err := h.cardSvc.CreatePromoCard(c.Request.Context(), caller, req.PackID, domain.CardType(req.CardType), traits, req.Owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponse(card))
}

// CreatePromoAuction handles POST /api/v1/admin/promo-auctions.
func (h *AdminHandler) CreatePromoAuction(c *gin.Context) {
	var req dto.PromoAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	traits, err := parseTraits(req.Traits)
	if err != nil {
		response.Error(c, apperror.Validation("invalid traits"))
		return
	}

	caller := middleware.CallerAddress(c)
	card, err := h.cardSvc.CreatePromoAuction(c.Request.Context(), caller, domain.CardType(req.CardType), traits, req.StartingPrice, req.EndingPrice, req.Duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToCardResponse(card))
}

// GetRoles handles GET /api/v1/admin/roles.
func (h *AdminHandler) GetRoles(c *gin.Context) {
	roles, err := h.accessSvc.Roles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.RolesResponse{
		CEO:   roles.CEO,
		CFO:   roles.CFO,
		COO:   roles.COO,
		Owner: roles.Owner,
	})
}

// SetRole handles PUT /api/v1/admin/roles/:role.
func (h *AdminHandler) SetRole(c *gin.Context) {
	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	ctx := c.Request.Context()

	var err error
	switch role := c.Param("role"); role {
	case "ceo":
		err = h.accessSvc.SetCEO(ctx, caller, req.Address)
	case "cfo":
		err = h.accessSvc.SetCFO(ctx, caller, req.Address)
	case "coo":
		err = h.accessSvc.SetCOO(ctx, caller, req.Address)
	default:
		response.Error(c, apperror.Validation("unknown role: "+role))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"role": c.Param("role"), "address": req.Address})
}

// SetKnob handles PUT /api/v1/admin/knobs/:name.
func (h *AdminHandler) SetKnob(c *gin.Context) {
	var req dto.KnobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	ctx := c.Request.Context()
	name := c.Param("name")

	var err error
	switch name {
	case "current_pack_id":
		err = h.cardSvc.SetCurrentPackID(ctx, caller, req.Value)
	case "pack_price":
		err = h.cardSvc.SetPackPrice(ctx, caller, req.Value)
	case "cards_per_pack":
		err = h.cardSvc.SetCardsPerPack(ctx, caller, int(req.Value))
	case "max_card_types":
		err = h.cardSvc.SetMaxCardTypes(ctx, caller, int(req.Value))
	case "season_pack_limit":
		err = h.cardSvc.SetSeasonPackLimit(ctx, caller, req.Value)
	case "owner_cut_bps":
		err = h.auctionSvc.SetOwnerCut(ctx, caller, int(req.Value))
	case "ascend_price":
		err = h.breedingSvc.SetAscendPrice(ctx, caller, req.Value)
	case "transmogrify_fee":
		err = h.breedingSvc.SetTransmogrifyFee(ctx, caller, req.Value)
	case "reward_threshold":
		err = h.rewardSvc.SetRewardThreshold(ctx, caller, req.Value)
	case "reward_unit":
		err = h.rewardSvc.SetRewardUnit(ctx, caller, req.Value)
	default:
		response.Error(c, apperror.Validation("unknown knob: "+name))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"knob": name, "value": req.Value})
}

// SetPause handles POST /api/v1/admin/pause/:scope and its unpause
// counterpart.
func (h *AdminHandler) SetPause(pause bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerAddress(c)
		ctx := c.Request.Context()

		var err error
		switch scope := c.Param("scope"); scope {
		case "deck":
			if pause {
				err = h.cardSvc.Pause(ctx, caller)
			} else {
				err = h.cardSvc.Unpause(ctx, caller)
			}
		case "auction":
			if pause {
				err = h.auctionSvc.Pause(ctx, caller)
			} else {
				err = h.auctionSvc.Unpause(ctx, caller)
			}
		default:
			response.Error(c, apperror.Validation("unknown scope: "+scope))
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, gin.H{"scope": c.Param("scope"), "paused": pause})
	}
}

// MintReward handles POST /api/v1/admin/rewards/mint.
func (h *AdminHandler) MintReward(c *gin.Context) {
	var req dto.MintRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	caller := middleware.CallerAddress(c)
	if err := h.rewardSvc.Mint(c.Request.Context(), caller, req.To, req.Amount); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"to": req.To, "amount": req.Amount})
}
