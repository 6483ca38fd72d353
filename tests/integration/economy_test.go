package integration

import (
	"context"
	"testing"
	"time"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/service"
	"card-exchange/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known test addresses.
const (
	ceoAddr   = "0xceo"
	cfoAddr   = "0xcfo"
	cooAddr   = "0xcoo"
	ownerAddr = "0xboss"
	aliceAddr = "0xalice"
	bobAddr   = "0xbob"
)

// testEnv wires the full service layer over in-memory repos with a settable
// clock, so whole economy flows run without postgres or redis.
type testEnv struct {
	cards    *inMemoryCardRepo
	auctions *inMemoryAuctionRepo
	settings *inMemorySettingsRepo
	roles    *inMemoryRoleRepo
	wallets  *inMemoryWalletRepo
	rewards  *inMemoryRewardRepo
	clock    *testClock
	events   *recordingPublisher

	accessSvc   *service.AccessServiceImpl
	cardSvc     *service.CardServiceImpl
	auctionSvc  *service.AuctionServiceImpl
	breedingSvc *service.BreedingServiceImpl
	rewardSvc   *service.RewardServiceImpl
	walletSvc   *service.WalletServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		cards: newInMemoryCardRepo(),
		auctions: newInMemoryAuctionRepo(),
		settings: newInMemorySettingsRepo(&domain.Settings{
			CurrentPackID:   1,
			PackPrice:       1000,
			CardsPerPack:    5,
			SeasonPackLimit: -1,
			MaxCardTypes:    32,
			AscendPrice:     200,
			TransmogrifyFee: 300,
			OwnerCutBps:     375,
			RewardThreshold: 10,
			RewardUnit:      100,
			PackPriceDrem:   50,
		}),
		roles: newInMemoryRoleRepo(&domain.RoleSet{
			CEO:   ceoAddr,
			CFO:   cfoAddr,
			COO:   cooAddr,
			Owner: ownerAddr,
		}),
		wallets: newInMemoryWalletRepo(),
		rewards: newInMemoryRewardRepo(),
		clock:   newTestClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)),
		events:  newRecordingPublisher(),
	}

	transactor := newInMemoryTransactor()
	traits := service.NewTraitEngine()
	log := zerolog.Nop()

	env.accessSvc = service.NewAccessService(env.roles, transactor, env.events, log)
	env.cardSvc = service.NewCardService(env.cards, env.auctions, env.settings, env.wallets,
		transactor, env.accessSvc, traits, env.clock, env.events, log)
	env.auctionSvc = service.NewAuctionService(env.cards, env.auctions, env.settings, env.wallets,
		transactor, env.accessSvc, env.clock, env.events, log)
	env.breedingSvc = service.NewBreedingService(env.cards, env.settings, env.wallets,
		transactor, env.accessSvc, traits, env.clock, env.events, log)
	env.rewardSvc = service.NewRewardService(env.rewards, env.cards, env.settings,
		transactor, env.accessSvc, traits, env.clock, env.events, log)
	env.walletSvc = service.NewWalletService(env.wallets, transactor, log)

	return env
}

func (env *testEnv) fund(t *testing.T, address string, amount int64) {
	t.Helper()
	require.NoError(t, env.wallets.Create(context.Background(), &domain.Wallet{
		Address: address,
		Balance: amount,
	}))
}

func (env *testEnv) mintCard(t *testing.T, owner string, cardType domain.CardType, traits uint64) int64 {
	t.Helper()
	card := &domain.Card{
		Traits:    traits,
		CardType:  cardType,
		Owner:     owner,
		CreatedAt: env.clock.Now(),
	}
	require.NoError(t, env.cards.Create(context.Background(), nil, card))
	return card.ID
}

func (env *testEnv) balance(t *testing.T, address string) int64 {
	t.Helper()
	w, err := env.wallets.GetByAddress(context.Background(), address)
	require.NoError(t, err)
	if w == nil {
		return 0
	}
	return w.Balance
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

// --- Pack purchases ---

func TestBuyPack_MintsAndDebits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, aliceAddr, 5000)

	// 2500 buys 2 packs at 1000 each; only 2000 leaves the wallet.
	cards, err := env.cardSvc.BuyPack(ctx, aliceAddr, 2500)
	require.NoError(t, err)
	assert.Len(t, cards, 10)
	for _, c := range cards {
		assert.Equal(t, aliceAddr, c.Owner)
		assert.Equal(t, int64(1), c.PackID)
		assert.NotZero(t, c.Traits)
	}

	assert.Equal(t, int64(3000), env.balance(t, aliceAddr))
	assert.Equal(t, int64(2000), env.balance(t, domain.TreasuryAddress))

	state, err := env.cardSvc.PackState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.SeasonPacksMinted)
}

func TestBuyPack_PaymentBelowPrice(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, aliceAddr, 5000)

	_, err := env.cardSvc.BuyPack(context.Background(), aliceAddr, 999)
	assertCode(t, err, "RULE_002")
}

func TestBuyPack_SeasonLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, aliceAddr, 100000)

	s, err := env.settings.Get(ctx)
	require.NoError(t, err)
	s.SeasonPackLimit = 2
	require.NoError(t, env.settings.Update(ctx, nil, s))

	_, err = env.cardSvc.BuyPack(ctx, aliceAddr, 2000)
	require.NoError(t, err)

	_, err = env.cardSvc.BuyPack(ctx, aliceAddr, 1000)
	assertCode(t, err, "RULE_004")

	// Rolling the season resets the counter and reopens minting.
	assertCode(t, env.cardSvc.SetCurrentPackID(ctx, cooAddr, 2), "ACL_001")
	require.NoError(t, env.cardSvc.SetCurrentPackID(ctx, ceoAddr, 2))
	cards, err := env.cardSvc.BuyPack(ctx, aliceAddr, 1000)
	require.NoError(t, err)
	assert.Len(t, cards, 5)
	assert.Equal(t, int64(2), cards[0].PackID)
}

func TestBuyPack_InsufficientWalletBalance(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, aliceAddr, 500)

	_, err := env.cardSvc.BuyPack(context.Background(), aliceAddr, 1000)
	assertCode(t, err, "RULE_006")
}

// --- Clock auctions ---

func TestAuction_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := env.mintCard(t, aliceAddr, 3, 0x1111)
	env.fund(t, bobAddr, 10000)

	_, err := env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 0, 100)
	require.NoError(t, err)

	// The card sits in escrow while the auction is live.
	card, err := env.cardSvc.GetCard(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowAddress, card.Owner)

	// Halfway through the clock the ask is half the starting price.
	env.clock.Advance(50 * time.Second)
	_, price, err := env.auctionSvc.Get(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), price)

	won, err := env.auctionSvc.Bid(ctx, bobAddr, tokenID, 1000)
	require.NoError(t, err)
	assert.Equal(t, bobAddr, won.Owner)

	// Only the clamped price leaves the bidder; the 375bps cut goes to the
	// treasury and the rest to the seller.
	assert.Equal(t, int64(9500), env.balance(t, bobAddr))
	assert.Equal(t, int64(18), env.balance(t, domain.TreasuryAddress))
	assert.Equal(t, int64(482), env.balance(t, aliceAddr))

	// The auction row is gone; a second settlement cannot happen.
	_, err = env.auctionSvc.Bid(ctx, bobAddr, tokenID, 1000)
	assertCode(t, err, "STATE_003")
}

func TestAuction_BidBelowPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := env.mintCard(t, aliceAddr, 3, 0x2222)
	env.fund(t, bobAddr, 10000)

	_, err := env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 1000, 100)
	require.NoError(t, err)

	_, err = env.auctionSvc.Bid(ctx, bobAddr, tokenID, 999)
	assertCode(t, err, "RULE_001")
}

func TestAuction_CreateTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := env.mintCard(t, aliceAddr, 3, 0x3333)

	_, err := env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 0, 100)
	require.NoError(t, err)

	// The card now belongs to escrow, so the seller no longer owns it.
	_, err = env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 0, 100)
	assertCode(t, err, "ACL_006")
}

func TestAuction_Cancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := env.mintCard(t, aliceAddr, 3, 0x4444)

	_, err := env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 0, 100)
	require.NoError(t, err)

	err = env.auctionSvc.Cancel(ctx, bobAddr, tokenID)
	assertCode(t, err, "ACL_007")

	require.NoError(t, env.auctionSvc.Cancel(ctx, aliceAddr, tokenID))

	card, err := env.cardSvc.GetCard(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, card.Owner)
}

func TestAuction_PauseOwnerCancelsWhilePaused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := env.mintCard(t, aliceAddr, 3, 0x5555)

	_, err := env.auctionSvc.Create(ctx, aliceAddr, tokenID, 1000, 0, 100)
	require.NoError(t, err)

	require.NoError(t, env.auctionSvc.Pause(ctx, ownerAddr))

	// Bidding and seller cancellation both stop while paused.
	_, err = env.auctionSvc.Bid(ctx, bobAddr, tokenID, 1000)
	assertCode(t, err, "STATE_001")
	assertCode(t, env.auctionSvc.Cancel(ctx, aliceAddr, tokenID), "STATE_001")

	// The pause owner may tear down stuck auctions; the card goes home.
	require.NoError(t, env.auctionSvc.Cancel(ctx, ownerAddr, tokenID))
	card, err := env.cardSvc.GetCard(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, card.Owner)

	require.NoError(t, env.auctionSvc.Unpause(ctx, ownerAddr))
	err = env.auctionSvc.Unpause(ctx, ownerAddr)
	assertCode(t, err, "STATE_002")
}

func TestPromoAuction_FullPriceToTreasury(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, bobAddr, 10000)

	card, err := env.cardSvc.CreatePromoAuction(ctx, cooAddr, 5, 0, 2000, 2000, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowAddress, card.Owner)

	won, err := env.auctionSvc.Bid(ctx, bobAddr, card.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, bobAddr, won.Owner)

	// Treasury is the seller, so the whole price lands there.
	assert.Equal(t, int64(2000), env.balance(t, domain.TreasuryAddress))
	assert.Equal(t, int64(8000), env.balance(t, bobAddr))
}

func TestPromoAuction_RequiresCOO(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.cardSvc.CreatePromoAuction(context.Background(), aliceAddr, 5, 0, 2000, 0, 100)
	assertCode(t, err, "ACL_003")
}

// --- Ascend and transmogrify ---

func TestAscend_CooldownEscalates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	matronID := env.mintCard(t, aliceAddr, 2, 0xAAAA)
	sireID := env.mintCard(t, aliceAddr, 3, 0xBBBB)
	env.fund(t, aliceAddr, 10000)

	child, err := env.breedingSvc.Ascend(ctx, aliceAddr, matronID, sireID, 200)
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, child.Owner)
	assert.Equal(t, matronID, child.MatronID)
	assert.Equal(t, sireID, child.SireID)
	assert.Equal(t, domain.CardType(2), child.CardType)
	assert.NotZero(t, child.Traits)

	// Both parents picked up the first cooldown rung; the error names the
	// cooling card.
	_, err = env.breedingSvc.Ascend(ctx, aliceAddr, matronID, sireID, 200)
	assertCode(t, err, "RULE_003")

	remaining, err := env.breedingSvc.GetCooldown(ctx, matronID)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, remaining)

	// Past the cooldown the pair breeds again and the rung escalates.
	env.clock.Advance(time.Minute)
	_, err = env.breedingSvc.Ascend(ctx, aliceAddr, matronID, sireID, 200)
	require.NoError(t, err)

	matron, err := env.cardSvc.GetCard(ctx, matronID)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), matron.CooldownIndex)
	assert.Equal(t, 5*time.Minute, matron.NextCooldown())

	// Two ascend fees at 200 each.
	assert.Equal(t, int64(9600), env.balance(t, aliceAddr))
	assert.Equal(t, int64(400), env.balance(t, domain.TreasuryAddress))
}

func TestAscend_RequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	matronID := env.mintCard(t, aliceAddr, 2, 0xAAAA)
	sireID := env.mintCard(t, bobAddr, 3, 0xBBBB)
	env.fund(t, aliceAddr, 10000)

	_, err := env.breedingSvc.Ascend(context.Background(), aliceAddr, matronID, sireID, 200)
	assertCode(t, err, "ACL_006")
}

func TestAscend_SameCardTwice(t *testing.T) {
	env := newTestEnv(t)
	id := env.mintCard(t, aliceAddr, 2, 0xAAAA)

	_, err := env.breedingSvc.Ascend(context.Background(), aliceAddr, id, id, 200)
	assertCode(t, err, "VAL_007")
}

func TestTransmogrify_BurnsThreeMintsOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id1 := env.mintCard(t, aliceAddr, 2, 0x1111)
	id2 := env.mintCard(t, aliceAddr, 3, 0x2222)
	id3 := env.mintCard(t, aliceAddr, 4, 0x3333)
	env.fund(t, aliceAddr, 1000)

	result, err := env.breedingSvc.Transmogrify(ctx, aliceAddr, id1, id2, id3, 300)
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, result.Owner)
	assert.Equal(t, domain.CardType(2), result.CardType)
	assert.NotZero(t, result.Traits)

	for _, id := range []int64{id1, id2, id3} {
		burned, err := env.cardSvc.GetCard(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.BurnedAddress, burned.Owner)
	}

	assert.Equal(t, int64(700), env.balance(t, aliceAddr))
	assert.Equal(t, int64(300), env.balance(t, domain.TreasuryAddress))
}

func TestTransmogrify_RejectsHeroCard(t *testing.T) {
	env := newTestEnv(t)
	id1 := env.mintCard(t, aliceAddr, 2, 0x1111)
	hero := env.mintCard(t, aliceAddr, domain.CardTypeHero, 0x2222)
	id3 := env.mintCard(t, aliceAddr, 4, 0x3333)
	env.fund(t, aliceAddr, 1000)

	_, err := env.breedingSvc.Transmogrify(context.Background(), aliceAddr, id1, hero, id3, 300)
	assertCode(t, err, "RULE_007")

	// Nothing burned on failure.
	card, err := env.cardSvc.GetCard(context.Background(), id1)
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, card.Owner)
}

// --- DREM rewards ---

func TestClaim_PaysOncePerThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		env.mintCard(t, aliceAddr, 2, uint64(0x1000+i))
	}

	pending, err := env.rewardSvc.PreviewClaim(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(200), pending)

	paid, err := env.rewardSvc.Claim(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(200), paid)

	balance, err := env.rewardSvc.BalanceOf(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	// Claiming again without new cards pays nothing.
	paid, err = env.rewardSvc.Claim(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Zero(t, paid)

	// Five more cards cross the next threshold.
	for i := 0; i < 5; i++ {
		env.mintCard(t, aliceAddr, 2, uint64(0x2000+i))
	}
	paid, err = env.rewardSvc.Claim(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), paid)
}

func TestRewardMint_CFOOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.rewardSvc.Mint(ctx, aliceAddr, bobAddr, 500)
	assertCode(t, err, "ACL_002")

	require.NoError(t, env.rewardSvc.Mint(ctx, cfoAddr, bobAddr, 500))
	balance, err := env.rewardSvc.BalanceOf(ctx, bobAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
}

func TestBuyPackWithDrem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.rewardSvc.Mint(ctx, cfoAddr, bobAddr, 500))

	cards, err := env.rewardSvc.BuyPackWithDrem(ctx, bobAddr, 2)
	require.NoError(t, err)
	assert.Len(t, cards, 10)

	balance, err := env.rewardSvc.BalanceOf(ctx, bobAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)

	// DREM packs count against the season limit like funded packs.
	state, err := env.cardSvc.PackState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.SeasonPacksMinted)

	_, err = env.rewardSvc.BuyPackWithDrem(ctx, bobAddr, 100)
	assertCode(t, err, "RULE_006")
}

// --- Roles and pause ---

func TestSetRole_CEOOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.accessSvc.SetCFO(ctx, cfoAddr, "0xnewcfo")
	assertCode(t, err, "ACL_001")

	err = env.accessSvc.SetCFO(ctx, ceoAddr, "")
	assertCode(t, err, "VAL_001")

	require.NoError(t, env.accessSvc.SetCFO(ctx, ceoAddr, "0xnewcfo"))
	roles, err := env.accessSvc.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xnewcfo", roles.CFO)

	// The old CFO lost the role.
	err = env.rewardSvc.Mint(ctx, cfoAddr, bobAddr, 1)
	assertCode(t, err, "ACL_002")
}

func TestDeckPause_BlocksMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fund(t, aliceAddr, 10000)
	matronID := env.mintCard(t, aliceAddr, 2, 0xAAAA)
	sireID := env.mintCard(t, aliceAddr, 3, 0xBBBB)

	err := env.cardSvc.Pause(ctx, aliceAddr)
	assertCode(t, err, "ACL_005")

	require.NoError(t, env.cardSvc.Pause(ctx, ownerAddr))

	_, err = env.cardSvc.BuyPack(ctx, aliceAddr, 1000)
	assertCode(t, err, "STATE_001")
	_, err = env.breedingSvc.Ascend(ctx, aliceAddr, matronID, sireID, 200)
	assertCode(t, err, "STATE_001")

	require.NoError(t, env.cardSvc.Unpause(ctx, ownerAddr))
	_, err = env.cardSvc.BuyPack(ctx, aliceAddr, 1000)
	require.NoError(t, err)
}

func TestKnobSetters_RoleGated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Economy knobs accept any C-level caller and nobody else.
	assertCode(t, env.cardSvc.SetPackPrice(ctx, aliceAddr, 2000), "ACL_004")
	require.NoError(t, env.cardSvc.SetPackPrice(ctx, cfoAddr, 2000))

	assertCode(t, env.cardSvc.SetCardsPerPack(ctx, aliceAddr, 3), "ACL_004")
	require.NoError(t, env.cardSvc.SetCardsPerPack(ctx, cooAddr, 3))

	// Ascend price is the CEO's alone.
	assertCode(t, env.breedingSvc.SetAscendPrice(ctx, cfoAddr, 250), "ACL_001")
	require.NoError(t, env.breedingSvc.SetAscendPrice(ctx, ceoAddr, 250))

	assertCode(t, env.auctionSvc.SetOwnerCut(ctx, cfoAddr, 10001), "VAL_004")
	require.NoError(t, env.auctionSvc.SetOwnerCut(ctx, cfoAddr, 500))

	state, err := env.cardSvc.PackState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), state.PackPrice)
	assert.Equal(t, 3, state.CardsPerPack)
	assert.Equal(t, int64(250), state.AscendPrice)
	assert.Equal(t, 500, state.OwnerCutBps)
}

func TestPromoCard_DuplicateTraitsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mintCard(t, aliceAddr, 2, 0xDEAD)

	_, err := env.cardSvc.CreatePromoCard(ctx, cooAddr, 0, 2, 0xDEAD, bobAddr)
	assertCode(t, err, "RULE_005")

	card, err := env.cardSvc.CreatePromoCard(ctx, cooAddr, 0, 2, 0xBEEF, bobAddr)
	require.NoError(t, err)
	assert.Equal(t, bobAddr, card.Owner)
	assert.Equal(t, uint64(0xBEEF), card.Traits)
}
