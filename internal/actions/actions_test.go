package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/assembler"
	"market-agent/internal/blockchain"
	"market-agent/internal/content"
	"market-agent/internal/fees"
	"market-agent/internal/program"
	"market-agent/internal/quote"
	"market-agent/internal/rules"
)

var (
	testProgramID = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	testWallet    = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")
)

// fixedSource serves one market and nothing else.
type fixedSource struct {
	market *program.Market
}

func (s *fixedSource) GetMarket(_ context.Context, marketID uint64) (*program.Market, error) {
	if s.market != nil && s.market.MarketID == marketID {
		return s.market, nil
	}
	return nil, fmt.Errorf("%w: market %d", blockchain.ErrNotFound, marketID)
}

func (s *fixedSource) GetRaceMarket(_ context.Context, marketID uint64) (*program.RaceMarket, error) {
	return nil, fmt.Errorf("%w: race market %d", blockchain.ErrNotFound, marketID)
}

func (s *fixedSource) GetPosition(_ context.Context, _ uint64, _ solana.PublicKey) (*program.Position, error) {
	return nil, fmt.Errorf("%w: position", blockchain.ErrNotFound)
}

func (s *fixedSource) GetAffiliate(_ context.Context, code string) (*program.Affiliate, error) {
	return nil, fmt.Errorf("%w: affiliate %q", blockchain.ErrNotFound, code)
}

func (s *fixedSource) GetCreatorProfile(_ context.Context, _ solana.PublicKey) (*program.CreatorProfile, error) {
	return nil, fmt.Errorf("%w: creator profile", blockchain.ErrNotFound)
}

func (s *fixedSource) IsWhitelisted(_ context.Context, _ uint64, _ solana.PublicKey) (bool, error) {
	return false, nil
}

func (s *fixedSource) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash{9}, nil
}

func newTestRegistry(src *fixedSource) *Registry {
	asm := assembler.New(assembler.Config{
		ProgramID:      testProgramID,
		PlatformWallet: testWallet,
		FeeTable:       fees.DefaultTable(),
		Timing:         rules.DefaultTimingConfig(),
		Bounds:         rules.DefaultBetBounds(),
		Content:        content.DefaultTables(),
	}, src, nil)

	registry := NewRegistry()
	NewService(asm, src, fees.DefaultTable()).RegisterAll(registry)
	return registry
}

func testMarket() *program.Market {
	return &program.Market{
		MarketID:       1,
		Question:       "Will BTC close above $100k per CoinGecko?",
		CloseTs:        1_800_000_000,
		YesPool:        50_000_000,
		NoPool:         40_000_000,
		Status:         program.StatusActive,
		AccessGate:     program.GatePublic,
		PlatformFeeBps: 300,
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	r := newTestRegistry(&fixedSource{})
	_, err := r.Dispatch(context.Background(), "no_such_action", nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

func TestRegistryListsAllActions(t *testing.T) {
	names := newTestRegistry(&fixedSource{}).Names()
	want := []string{
		program.InstrCreateMarket, program.InstrPlaceBet, program.InstrClaimWinnings,
		program.InstrDisputeResolution, "quote_bet", "fee_schedule", "get_market",
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("action %q not registered", w)
		}
	}
}

func TestDispatchRejectsUnknownFields(t *testing.T) {
	r := newTestRegistry(&fixedSource{market: testMarket()})
	_, err := r.Dispatch(context.Background(), "get_market", json.RawMessage(`{"market_id":1,"bogus":true}`))
	var verr *assembler.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError for unknown field", err)
	}
}

func TestGetMarketView(t *testing.T) {
	r := newTestRegistry(&fixedSource{market: testMarket()})

	result, err := r.Dispatch(context.Background(), "get_market", json.RawMessage(`{"market_id":1}`))
	if err != nil {
		t.Fatalf("get_market failed: %v", err)
	}
	view, ok := result.(MarketView)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if view.TotalPool != 90_000_000 {
		t.Errorf("total pool = %d", view.TotalPool)
	}
	if view.Status != "ACTIVE" {
		t.Errorf("status = %s", view.Status)
	}

	_, err = r.Dispatch(context.Background(), "get_market", json.RawMessage(`{"market_id":2}`))
	if !errors.Is(err, blockchain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQuoteBet(t *testing.T) {
	r := newTestRegistry(&fixedSource{market: testMarket()})

	result, err := r.Dispatch(context.Background(), "quote_bet",
		json.RawMessage(`{"market_id":1,"side":"YES","amount":10000000}`))
	if err != nil {
		t.Fatalf("quote_bet failed: %v", err)
	}
	q, ok := result.(quote.Quote)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if q.NetPayout != 16_466_667 {
		t.Errorf("net payout = %d, want 16466667", q.NetPayout)
	}

	if _, err := r.Dispatch(context.Background(), "quote_bet",
		json.RawMessage(`{"market_id":1,"side":"MAYBE","amount":10000000}`)); err == nil {
		t.Fatal("unknown side should be rejected")
	}
}

func TestPlaceBetThroughRegistry(t *testing.T) {
	r := newTestRegistry(&fixedSource{market: testMarket()})

	payload := json.RawMessage(fmt.Sprintf(
		`{"market_id":1,"side":"YES","amount":10000000,"bettor":%q}`, testWallet))
	result, err := r.Dispatch(context.Background(), program.InstrPlaceBet, payload)
	if err != nil {
		t.Fatalf("place_bet failed: %v", err)
	}
	out, ok := result.(*assembler.Assembled)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if out.TransactionBase64 == "" {
		t.Error("expected an encoded transaction")
	}

	// Malformed wallet never reaches the assembler.
	bad := json.RawMessage(`{"market_id":1,"side":"YES","amount":10000000,"bettor":"not-a-key"}`)
	if _, err := r.Dispatch(context.Background(), program.InstrPlaceBet, bad); err == nil {
		t.Fatal("bad bettor address should be rejected")
	}
}

func TestFeeSchedule(t *testing.T) {
	r := newTestRegistry(&fixedSource{})

	result, err := r.Dispatch(context.Background(), "fee_schedule", nil)
	if err != nil {
		t.Fatalf("fee_schedule failed: %v", err)
	}
	table, ok := result.(map[string]fees.Schedule)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if table["LAB"].PlatformFeeBps != 300 {
		t.Errorf("lab platform fee = %d", table["LAB"].PlatformFeeBps)
	}
}
