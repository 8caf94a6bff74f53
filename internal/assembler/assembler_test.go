package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/blockchain"
	"market-agent/internal/content"
	"market-agent/internal/fees"
	"market-agent/internal/program"
	"market-agent/internal/rules"
)

var (
	testProgramID  = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	platformWallet = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	bettor         = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
	creator        = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// stubSource serves fixed snapshots without any RPC.
type stubSource struct {
	markets     map[uint64]*program.Market
	raceMarkets map[uint64]*program.RaceMarket
	positions   map[string]*program.Position
	affiliates  map[string]*program.Affiliate
	profiles    map[string]*program.CreatorProfile
	whitelisted map[string]bool
}

func newStubSource() *stubSource {
	return &stubSource{
		markets:     make(map[uint64]*program.Market),
		raceMarkets: make(map[uint64]*program.RaceMarket),
		positions:   make(map[string]*program.Position),
		affiliates:  make(map[string]*program.Affiliate),
		profiles:    make(map[string]*program.CreatorProfile),
		whitelisted: make(map[string]bool),
	}
}

func positionKey(marketID uint64, owner solana.PublicKey) string {
	return fmt.Sprintf("%d/%s", marketID, owner)
}

func (s *stubSource) GetMarket(_ context.Context, marketID uint64) (*program.Market, error) {
	m, ok := s.markets[marketID]
	if !ok {
		return nil, fmt.Errorf("%w: market %d", blockchain.ErrNotFound, marketID)
	}
	return m, nil
}

func (s *stubSource) GetRaceMarket(_ context.Context, marketID uint64) (*program.RaceMarket, error) {
	m, ok := s.raceMarkets[marketID]
	if !ok {
		return nil, fmt.Errorf("%w: race market %d", blockchain.ErrNotFound, marketID)
	}
	return m, nil
}

func (s *stubSource) GetPosition(_ context.Context, marketID uint64, owner solana.PublicKey) (*program.Position, error) {
	p, ok := s.positions[positionKey(marketID, owner)]
	if !ok {
		return nil, fmt.Errorf("%w: position", blockchain.ErrNotFound)
	}
	return p, nil
}

func (s *stubSource) GetAffiliate(_ context.Context, code string) (*program.Affiliate, error) {
	a, ok := s.affiliates[code]
	if !ok {
		return nil, fmt.Errorf("%w: affiliate %q", blockchain.ErrNotFound, code)
	}
	return a, nil
}

func (s *stubSource) GetCreatorProfile(_ context.Context, owner solana.PublicKey) (*program.CreatorProfile, error) {
	p, ok := s.profiles[owner.String()]
	if !ok {
		return nil, fmt.Errorf("%w: creator profile", blockchain.ErrNotFound)
	}
	return p, nil
}

func (s *stubSource) IsWhitelisted(_ context.Context, marketID uint64, user solana.PublicKey) (bool, error) {
	return s.whitelisted[positionKey(marketID, user)], nil
}

func (s *stubSource) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash{1, 2, 3}, nil
}

func newTestAssembler(src *stubSource) *Assembler {
	return New(Config{
		ProgramID:      testProgramID,
		PlatformWallet: platformWallet,
		FeeTable:       fees.DefaultTable(),
		Timing:         rules.DefaultTimingConfig(),
		Bounds:         rules.DefaultBetBounds(),
		Content:        content.DefaultTables(),
	}, src, nil)
}

const (
	closeTs   = int64(1_800_000_000)
	betTime   = closeTs - 3600
	eventTs   = closeTs + 72*3600
	measureTs = closeTs + 1
)

func activeMarket() *program.Market {
	return &program.Market{
		MarketID:           1,
		Creator:            creator,
		Question:           "Will BTC close above $100k per CoinGecko?",
		CloseTs:            closeTs,
		EventTs:            eventTs,
		MeasurementStartTs: measureTs,
		YesPool:            50_000_000,
		NoPool:             40_000_000,
		Status:             program.StatusActive,
		Layer:              program.LayerLab,
		AccessGate:         program.GatePublic,
		ResolutionMode:     program.ResolveByCreator,
		PlatformFeeBps:     300,
		AffiliateFeeBps:    50,
		CreatorFeeBps:      150,
	}
}

func TestPlaceBetAssemblesTransaction(t *testing.T) {
	src := newStubSource()
	src.markets[1] = activeMarket()
	a := newTestAssembler(src)

	out, err := a.PlaceBet(context.Background(), PlaceBetParams{
		MarketID: 1,
		Side:     program.SideYes,
		Amount:   10_000_000,
		Bettor:   bettor,
		Now:      betTime,
	})
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	if out.Action != program.InstrPlaceBet {
		t.Errorf("action = %s", out.Action)
	}
	if out.TransactionBase64 == "" {
		t.Error("expected an encoded transaction")
	}
	for _, key := range []string{"market", "position", "config"} {
		if out.Addresses[key] == "" {
			t.Errorf("missing %s address", key)
		}
	}
	if out.Quote == nil {
		t.Fatal("expected a quote")
	}
	// Frozen 300 bps against the hypothetical 60/100 pools.
	if out.Quote.NetPayout != 16_466_667 {
		t.Errorf("net payout = %d, want 16466667", out.Quote.NetPayout)
	}
	if out.Simulation != nil {
		t.Error("no simulator configured, result should be nil")
	}
}

func TestPlaceBetUsesFrozenFeeRate(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	m.PlatformFeeBps = 100 // older than anything in the live table
	src.markets[1] = m
	a := newTestAssembler(src)

	out, err := a.PlaceBet(context.Background(), PlaceBetParams{
		MarketID: 1,
		Side:     program.SideYes,
		Amount:   10_000_000,
		Bettor:   bettor,
		Now:      betTime,
	})
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if out.Quote.FeeBps != 100 {
		t.Errorf("fee bps = %d, want the frozen 100", out.Quote.FeeBps)
	}
}

func TestPlaceBetRejectedInFreezeWindow(t *testing.T) {
	src := newStubSource()
	src.markets[1] = activeMarket()
	a := newTestAssembler(src)

	out, err := a.PlaceBet(context.Background(), PlaceBetParams{
		MarketID: 1,
		Side:     program.SideYes,
		Amount:   10_000_000,
		Bettor:   bettor,
		Now:      closeTs - 60,
	})
	if out != nil {
		t.Fatal("no transaction may be produced on rejection")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Result == nil || verr.Result.Violations[0].Rule != rules.RuleBettingFreeze {
		t.Errorf("unexpected violation: %+v", verr.Result)
	}
}

func TestPlaceBetWhitelistGate(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	m.AccessGate = program.GateWhitelist
	src.markets[1] = m
	a := newTestAssembler(src)

	params := PlaceBetParams{
		MarketID: 1,
		Side:     program.SideNo,
		Amount:   10_000_000,
		Bettor:   bettor,
		Now:      betTime,
	}

	if _, err := a.PlaceBet(context.Background(), params); err == nil {
		t.Fatal("non-whitelisted bettor should be rejected")
	}

	src.whitelisted[positionKey(1, bettor)] = true
	if _, err := a.PlaceBet(context.Background(), params); err != nil {
		t.Fatalf("whitelisted bettor rejected: %v", err)
	}
}

func TestPlaceBetFirstBetQuote(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	m.YesPool = 0
	m.NoPool = 0
	src.markets[1] = m
	a := newTestAssembler(src)

	out, err := a.PlaceBet(context.Background(), PlaceBetParams{
		MarketID: 1,
		Side:     program.SideYes,
		Amount:   10_000_000,
		Bettor:   bettor,
		Now:      betTime,
	})
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if out.Quote.NetPayout != 10_000_000 {
		t.Errorf("sole bet should quote its stake back, got %d", out.Quote.NetPayout)
	}
}

func TestPlaceBetWithAffiliate(t *testing.T) {
	src := newStubSource()
	src.markets[1] = activeMarket()
	src.affiliates["alpha"] = &program.Affiliate{Code: "alpha", Owner: creator, Active: true}
	a := newTestAssembler(src)

	params := PlaceBetParams{
		MarketID:      1,
		Side:          program.SideYes,
		Amount:        10_000_000,
		Bettor:        bettor,
		AffiliateCode: "alpha",
		Now:           betTime,
	}

	out, err := a.PlaceBet(context.Background(), params)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if out.Addresses["affiliate"] == "" {
		t.Error("affiliate address missing")
	}

	src.affiliates["alpha"].Active = false
	if _, err := a.PlaceBet(context.Background(), params); err == nil {
		t.Fatal("inactive affiliate should be rejected")
	}

	params.AffiliateCode = "unknown"
	if _, err := a.PlaceBet(context.Background(), params); err == nil {
		t.Fatal("unknown affiliate should be rejected")
	}
}

func TestCreateMarketHappyPath(t *testing.T) {
	a := newTestAssembler(newStubSource())

	out, err := a.CreateMarket(context.Background(), CreateMarketParams{
		MarketID:           5,
		Question:           "Will ETH close above $5k on 2027-01-01 per Binance?",
		CloseTs:            closeTs,
		EventTs:            eventTs,
		MeasurementStartTs: measureTs,
		Layer:              program.LayerLab,
		AccessGate:         program.GatePublic,
		ResolutionMode:     program.ResolveByCreator,
		CreatorFeeBps:      150,
		Creator:            creator,
	})
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if out.TransactionBase64 == "" {
		t.Error("expected an encoded transaction")
	}
	// Lab markets carry a creation cost the creator should be told about.
	costNoted := false
	for _, w := range out.Warnings {
		if strings.Contains(w, "costs") {
			costNoted = true
		}
	}
	if !costNoted {
		t.Errorf("expected a creation cost warning, got %v", out.Warnings)
	}
}

func TestCreateMarketContentBlocked(t *testing.T) {
	a := newTestAssembler(newStubSource())

	_, err := a.CreateMarket(context.Background(), CreateMarketParams{
		MarketID:           5,
		Question:           "Is this the best token per CoinGecko?",
		CloseTs:            closeTs,
		EventTs:            eventTs,
		MeasurementStartTs: measureTs,
		Layer:              program.LayerOfficial,
		Creator:            creator,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Verdict == nil {
		t.Fatalf("err = %v, want a content ValidationError", err)
	}
}

func TestCreateMarketTimingRejected(t *testing.T) {
	a := newTestAssembler(newStubSource())

	_, err := a.CreateMarket(context.Background(), CreateMarketParams{
		MarketID:           5,
		Question:           "Will ETH close above $5k per Binance?",
		CloseTs:            closeTs,
		EventTs:            closeTs + 6*3600, // under the 12h floor
		MeasurementStartTs: measureTs,
		Layer:              program.LayerOfficial,
		Creator:            creator,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Result == nil {
		t.Fatalf("err = %v, want a timing ValidationError", err)
	}
}

func TestCreateMarketCreatorFeeCeiling(t *testing.T) {
	a := newTestAssembler(newStubSource())

	_, err := a.CreateMarket(context.Background(), CreateMarketParams{
		MarketID:           5,
		Question:           "Will ETH close above $5k per Binance?",
		CloseTs:            closeTs,
		EventTs:            eventTs,
		MeasurementStartTs: measureTs,
		Layer:              program.LayerOfficial,
		CreatorFeeBps:      500, // ceiling is 200
		Creator:            creator,
	})
	if err == nil {
		t.Fatal("creator fee above the ceiling should be rejected")
	}
}

func TestCreateRaceMarketValidatesOutcomes(t *testing.T) {
	a := newTestAssembler(newStubSource())

	base := CreateMarketParams{
		MarketID:           6,
		Question:           "Which team wins the final per ESPN?",
		CloseTs:            closeTs,
		EventTs:            eventTs,
		MeasurementStartTs: measureTs,
		Layer:              program.LayerOfficial,
		Creator:            creator,
	}

	if _, err := a.CreateRaceMarket(context.Background(), CreateRaceMarketParams{
		CreateMarketParams: base,
		Outcomes:           []string{"only one"},
	}); err == nil {
		t.Error("a single outcome should be rejected")
	}

	if _, err := a.CreateRaceMarket(context.Background(), CreateRaceMarketParams{
		CreateMarketParams: base,
		Outcomes:           []string{"red", "red"},
	}); err == nil {
		t.Error("duplicate outcomes should be rejected")
	}

	out, err := a.CreateRaceMarket(context.Background(), CreateRaceMarketParams{
		CreateMarketParams: base,
		Outcomes:           []string{"red", "green", "blue"},
	})
	if err != nil {
		t.Fatalf("CreateRaceMarket failed: %v", err)
	}
	if out.Action != program.InstrCreateRaceMarket {
		t.Errorf("action = %s", out.Action)
	}
}

func resolvedMarket() *program.Market {
	m := activeMarket()
	winning := program.SideYes
	m.Status = program.StatusResolved
	m.WinningSide = &winning
	m.SnapshotYesPool = 60_000_000
	m.SnapshotNoPool = 40_000_000
	return m
}

func TestClaimWinnings(t *testing.T) {
	src := newStubSource()
	src.markets[1] = resolvedMarket()
	src.positions[positionKey(1, bettor)] = &program.Position{
		MarketID: 1,
		Owner:    bettor,
		Amounts:  [program.MaxOutcomes]uint64{10_000_000, 0},
	}
	a := newTestAssembler(src)

	out, err := a.ClaimWinnings(context.Background(), ClaimParams{MarketID: 1, Claimer: bettor})
	if err != nil {
		t.Fatalf("ClaimWinnings failed: %v", err)
	}
	// Settled on the snapshot pools with the frozen 300 bps.
	if out.Quote.NetPayout != 16_466_667 {
		t.Errorf("net payout = %d, want 16466667", out.Quote.NetPayout)
	}
}

func TestClaimWinningsRejections(t *testing.T) {
	src := newStubSource()
	a := newTestAssembler(src)

	// Unresolved market.
	src.markets[1] = activeMarket()
	src.positions[positionKey(1, bettor)] = &program.Position{
		Amounts: [program.MaxOutcomes]uint64{10_000_000, 0},
	}
	if _, err := a.ClaimWinnings(context.Background(), ClaimParams{MarketID: 1, Claimer: bettor}); err == nil {
		t.Error("claim on an unresolved market should fail")
	}

	// Already claimed.
	src.markets[1] = resolvedMarket()
	src.positions[positionKey(1, bettor)] = &program.Position{
		Amounts: [program.MaxOutcomes]uint64{10_000_000, 0},
		Claimed: true,
	}
	if _, err := a.ClaimWinnings(context.Background(), ClaimParams{MarketID: 1, Claimer: bettor}); err == nil {
		t.Error("double claim should fail")
	}

	// Stake only on the losing side.
	src.positions[positionKey(1, bettor)] = &program.Position{
		Amounts: [program.MaxOutcomes]uint64{0, 10_000_000},
	}
	if _, err := a.ClaimWinnings(context.Background(), ClaimParams{MarketID: 1, Claimer: bettor}); err == nil {
		t.Error("losing position should have nothing to claim")
	}
}

func TestProposeResolutionRequiresClosedMarket(t *testing.T) {
	src := newStubSource()
	src.markets[1] = activeMarket()
	a := newTestAssembler(src)

	params := ProposeResolutionParams{
		MarketID:    1,
		WinningSide: program.SideYes,
		Proposer:    creator,
	}

	if _, err := a.ProposeResolution(context.Background(), params); err == nil {
		t.Fatal("proposing on an active market should fail")
	}

	src.markets[1].Status = program.StatusClosed

	params.Proposer = bettor
	if _, err := a.ProposeResolution(context.Background(), params); err == nil {
		t.Fatal("creator-resolved market must reject other proposers")
	}

	params.Proposer = creator
	out, err := a.ProposeResolution(context.Background(), params)
	if err != nil {
		t.Fatalf("ProposeResolution failed: %v", err)
	}
	if out.Action != program.InstrProposeResolution {
		t.Errorf("action = %s", out.Action)
	}
	if out.Addresses["market"] == "" || out.Addresses["config"] == "" {
		t.Errorf("addresses incomplete: %v", out.Addresses)
	}
}

func TestFinalizeResolutionWaitsOutDisputeWindow(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	proposedAt := closeTs + 3600
	m.Status = program.StatusResolvedPending
	m.ResolutionProposedAt = &proposedAt
	src.markets[1] = m
	a := newTestAssembler(src)

	if _, err := a.FinalizeResolution(context.Background(), FinalizeResolutionParams{
		MarketID:  1,
		Finalizer: creator,
		Now:       proposedAt + 3600,
	}); err == nil {
		t.Fatal("finalize inside the dispute window should fail")
	}

	out, err := a.FinalizeResolution(context.Background(), FinalizeResolutionParams{
		MarketID:  1,
		Finalizer: creator,
		Now:       proposedAt + 25*3600,
	})
	if err != nil {
		t.Fatalf("FinalizeResolution failed: %v", err)
	}
	if out.Action != program.InstrFinalizeResolution {
		t.Errorf("action = %s", out.Action)
	}
}

func TestDisputeRequiresStake(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	proposedAt := closeTs + 3600
	m.Status = program.StatusResolvedPending
	m.ResolutionProposedAt = &proposedAt
	src.markets[1] = m
	a := newTestAssembler(src)

	params := DisputeParams{
		MarketID: 1,
		Reason:   "resolution contradicts the official result",
		Disputer: bettor,
		Now:      proposedAt + 3600,
	}

	// No position at all.
	if _, err := a.DisputeResolution(context.Background(), params); err == nil {
		t.Fatal("disputer without a stake should be rejected")
	}

	src.positions[positionKey(1, bettor)] = &program.Position{
		Amounts: [program.MaxOutcomes]uint64{0, 10_000_000},
	}
	out, err := a.DisputeResolution(context.Background(), params)
	if err != nil {
		t.Fatalf("DisputeResolution failed: %v", err)
	}
	if out.TransactionBase64 == "" {
		t.Error("expected an encoded transaction")
	}

	// After the window closes the dispute is refused.
	params.Now = proposedAt + 25*3600
	if _, err := a.DisputeResolution(context.Background(), params); err == nil {
		t.Fatal("dispute after the window should be rejected")
	}
}

func TestCancelMarketAuthority(t *testing.T) {
	src := newStubSource()
	src.markets[1] = activeMarket()
	a := newTestAssembler(src)

	if _, err := a.CancelMarket(context.Background(), CancelParams{MarketID: 1, Authority: bettor}); err == nil {
		t.Fatal("a stranger must not cancel the market")
	}
	if _, err := a.CancelMarket(context.Background(), CancelParams{MarketID: 1, Authority: creator}); err != nil {
		t.Fatalf("creator cancel failed: %v", err)
	}
	if _, err := a.CancelMarket(context.Background(), CancelParams{MarketID: 1, Authority: platformWallet}); err != nil {
		t.Fatalf("platform cancel failed: %v", err)
	}

	src.markets[1].Status = program.StatusResolved
	if _, err := a.CancelMarket(context.Background(), CancelParams{MarketID: 1, Authority: creator}); err == nil {
		t.Fatal("resolved market must not be cancelled")
	}
}

func TestWhitelistManagement(t *testing.T) {
	src := newStubSource()
	m := activeMarket()
	m.AccessGate = program.GateWhitelist
	src.markets[1] = m
	a := newTestAssembler(src)

	params := WhitelistParams{MarketID: 1, User: bettor, Authority: creator}

	out, err := a.WhitelistAdd(context.Background(), params)
	if err != nil {
		t.Fatalf("WhitelistAdd failed: %v", err)
	}
	if out.Addresses["whitelist_entry"] == "" {
		t.Error("whitelist entry address missing")
	}

	params.Authority = bettor
	if _, err := a.WhitelistAdd(context.Background(), params); err == nil {
		t.Fatal("only the creator manages the whitelist")
	}

	m.AccessGate = program.GatePublic
	params.Authority = creator
	if _, err := a.WhitelistRemove(context.Background(), params); err == nil {
		t.Fatal("whitelist management on a public market should fail")
	}
}

func TestRegisterAffiliate(t *testing.T) {
	src := newStubSource()
	a := newTestAssembler(src)

	if _, err := a.RegisterAffiliate(context.Background(), RegisterAffiliateParams{
		Code:  "a!",
		Owner: bettor,
	}); err == nil {
		t.Fatal("malformed code should be rejected")
	}

	src.affiliates["taken"] = &program.Affiliate{Code: "taken", Owner: creator, Active: true}
	if _, err := a.RegisterAffiliate(context.Background(), RegisterAffiliateParams{
		Code:  "taken",
		Owner: bettor,
	}); err == nil {
		t.Fatal("registered code should be rejected")
	}

	out, err := a.RegisterAffiliate(context.Background(), RegisterAffiliateParams{
		Code:  "fresh1",
		Owner: bettor,
	})
	if err != nil {
		t.Fatalf("RegisterAffiliate failed: %v", err)
	}
	if out.Addresses["affiliate"] == "" {
		t.Error("affiliate address missing")
	}
}

func TestClaimAffiliateEarnings(t *testing.T) {
	src := newStubSource()
	src.affiliates["alpha"] = &program.Affiliate{
		Code:      "alpha",
		Owner:     creator,
		Unclaimed: 5_000_000,
		Active:    true,
	}
	a := newTestAssembler(src)

	if _, err := a.ClaimAffiliateEarnings(context.Background(), ClaimAffiliateParams{
		Code:  "alpha",
		Owner: bettor,
	}); err == nil {
		t.Fatal("only the owner claims affiliate earnings")
	}

	out, err := a.ClaimAffiliateEarnings(context.Background(), ClaimAffiliateParams{
		Code:  "alpha",
		Owner: creator,
	})
	if err != nil {
		t.Fatalf("ClaimAffiliateEarnings failed: %v", err)
	}
	if out.Action != program.InstrClaimAffiliate {
		t.Errorf("action = %s", out.Action)
	}

	src.affiliates["alpha"].Unclaimed = 0
	if _, err := a.ClaimAffiliateEarnings(context.Background(), ClaimAffiliateParams{
		Code:  "alpha",
		Owner: creator,
	}); err == nil {
		t.Fatal("empty balance should have nothing to claim")
	}
}

func TestUpdateCreatorProfile(t *testing.T) {
	a := newTestAssembler(newStubSource())

	if _, err := a.UpdateCreatorProfile(context.Background(), UpdateCreatorParams{
		DisplayName: "satoshi",
		FeeBps:      500, // ceiling is 200
		Owner:       creator,
	}); err == nil {
		t.Fatal("fee above the shared ceiling should be rejected")
	}

	out, err := a.UpdateCreatorProfile(context.Background(), UpdateCreatorParams{
		DisplayName: "satoshi",
		FeeBps:      150,
		Owner:       creator,
	})
	if err != nil {
		t.Fatalf("UpdateCreatorProfile failed: %v", err)
	}
	if out.Addresses["creator_profile"] == "" {
		t.Error("creator profile address missing")
	}
}
