package actions

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"market-agent/internal/assembler"
	"market-agent/internal/fees"
	"market-agent/internal/program"
	"market-agent/internal/quote"
)

// Service binds the registry handlers to the assembler and the snapshot
// source. Write actions return an assembler.Assembled; read actions return
// view structs.
type Service struct {
	asm       *assembler.Assembler
	snapshots assembler.SnapshotSource
	feeTable  fees.Table
}

// NewService creates the action service.
func NewService(asm *assembler.Assembler, snapshots assembler.SnapshotSource, feeTable fees.Table) *Service {
	return &Service{asm: asm, snapshots: snapshots, feeTable: feeTable}
}

// RegisterAll installs every action on the registry.
func (s *Service) RegisterAll(r *Registry) {
	r.Register(program.InstrCreateMarket, typed(s.createMarket))
	r.Register(program.InstrCreateRaceMarket, typed(s.createRaceMarket))
	r.Register(program.InstrPlaceBet, typed(s.placeBet))
	r.Register(program.InstrPlaceRaceBet, typed(s.placeRaceBet))
	r.Register(program.InstrClaimWinnings, typed(s.claimWinnings))
	r.Register(program.InstrProposeResolution, typed(s.proposeResolution))
	r.Register(program.InstrFinalizeResolution, typed(s.finalizeResolution))
	r.Register(program.InstrDisputeResolution, typed(s.disputeResolution))
	r.Register(program.InstrCancelMarket, typed(s.cancelMarket))
	r.Register(program.InstrWhitelistAdd, typed(s.whitelistAdd))
	r.Register(program.InstrWhitelistRemove, typed(s.whitelistRemove))
	r.Register(program.InstrRegisterAffiliate, typed(s.registerAffiliate))
	r.Register(program.InstrClaimAffiliate, typed(s.claimAffiliate))
	r.Register(program.InstrUpdateCreator, typed(s.updateCreator))

	r.Register("get_market", typed(s.getMarket))
	r.Register("get_race_market", typed(s.getRaceMarket))
	r.Register("get_position", typed(s.getPosition))
	r.Register("get_affiliate", typed(s.getAffiliate))
	r.Register("get_creator_profile", typed(s.getCreatorProfile))
	r.Register("quote_bet", typed(s.quoteBet))
	r.Register("fee_schedule", typed(s.feeSchedule))
}

func badRequest(format string, args ...interface{}) error {
	return &assembler.ValidationError{Message: fmt.Sprintf(format, args...)}
}

func parseWallet(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, badRequest("%s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, badRequest("%s is not a valid address: %v", field, err)
	}
	return key, nil
}

// --- write actions ---

type createMarketRequest struct {
	MarketID             uint64   `json:"market_id"`
	Question             string   `json:"question"`
	CloseTs              int64    `json:"close_ts"`
	EventTs              int64    `json:"event_ts"`
	MeasurementStartTs   int64    `json:"measurement_start_ts"`
	ResolutionDeadlineTs int64    `json:"resolution_deadline_ts"`
	Layer                string   `json:"layer"`
	AccessGate           string   `json:"access_gate"`
	ResolutionMode       string   `json:"resolution_mode"`
	CreatorFeeBps        uint16   `json:"creator_fee_bps"`
	Creator              string   `json:"creator"`
	Outcomes             []string `json:"outcomes,omitempty"`
}

func (s *Service) marketParams(req createMarketRequest) (assembler.CreateMarketParams, error) {
	creator, err := parseWallet("creator", req.Creator)
	if err != nil {
		return assembler.CreateMarketParams{}, err
	}
	layer, err := program.ParseLayer(req.Layer)
	if err != nil {
		return assembler.CreateMarketParams{}, badRequest("%v", err)
	}
	gate, err := program.ParseAccessGate(req.AccessGate)
	if err != nil {
		return assembler.CreateMarketParams{}, badRequest("%v", err)
	}
	mode, err := program.ParseResolutionMode(req.ResolutionMode)
	if err != nil {
		return assembler.CreateMarketParams{}, badRequest("%v", err)
	}
	return assembler.CreateMarketParams{
		MarketID:             req.MarketID,
		Question:             req.Question,
		CloseTs:              req.CloseTs,
		EventTs:              req.EventTs,
		MeasurementStartTs:   req.MeasurementStartTs,
		ResolutionDeadlineTs: req.ResolutionDeadlineTs,
		Layer:                layer,
		AccessGate:           gate,
		ResolutionMode:       mode,
		CreatorFeeBps:        req.CreatorFeeBps,
		Creator:              creator,
	}, nil
}

func (s *Service) createMarket(ctx context.Context, req createMarketRequest) (interface{}, error) {
	p, err := s.marketParams(req)
	if err != nil {
		return nil, err
	}
	return s.asm.CreateMarket(ctx, p)
}

func (s *Service) createRaceMarket(ctx context.Context, req createMarketRequest) (interface{}, error) {
	p, err := s.marketParams(req)
	if err != nil {
		return nil, err
	}
	return s.asm.CreateRaceMarket(ctx, assembler.CreateRaceMarketParams{
		CreateMarketParams: p,
		Outcomes:           req.Outcomes,
	})
}

type placeBetRequest struct {
	MarketID      uint64 `json:"market_id"`
	Side          string `json:"side"`
	Outcome       *uint8 `json:"outcome,omitempty"`
	Amount        uint64 `json:"amount"`
	Bettor        string `json:"bettor"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
	InviteProof   string `json:"invite_proof,omitempty"`
}

func (s *Service) placeBet(ctx context.Context, req placeBetRequest) (interface{}, error) {
	bettor, err := parseWallet("bettor", req.Bettor)
	if err != nil {
		return nil, err
	}
	side, err := program.ParseSide(req.Side)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	return s.asm.PlaceBet(ctx, assembler.PlaceBetParams{
		MarketID:      req.MarketID,
		Side:          side,
		Amount:        req.Amount,
		Bettor:        bettor,
		AffiliateCode: req.AffiliateCode,
		InviteProof:   req.InviteProof,
	})
}

func (s *Service) placeRaceBet(ctx context.Context, req placeBetRequest) (interface{}, error) {
	bettor, err := parseWallet("bettor", req.Bettor)
	if err != nil {
		return nil, err
	}
	if req.Outcome == nil {
		return nil, badRequest("outcome is required for race bets")
	}
	return s.asm.PlaceRaceBet(ctx, assembler.PlaceRaceBetParams{
		MarketID:      req.MarketID,
		Outcome:       *req.Outcome,
		Amount:        req.Amount,
		Bettor:        bettor,
		AffiliateCode: req.AffiliateCode,
		InviteProof:   req.InviteProof,
	})
}

type claimRequest struct {
	MarketID uint64 `json:"market_id"`
	Claimer  string `json:"claimer"`
}

func (s *Service) claimWinnings(ctx context.Context, req claimRequest) (interface{}, error) {
	claimer, err := parseWallet("claimer", req.Claimer)
	if err != nil {
		return nil, err
	}
	return s.asm.ClaimWinnings(ctx, assembler.ClaimParams{MarketID: req.MarketID, Claimer: claimer})
}

type proposeRequest struct {
	MarketID    uint64 `json:"market_id"`
	WinningSide string `json:"winning_side"`
	Proposer    string `json:"proposer"`
}

func (s *Service) proposeResolution(ctx context.Context, req proposeRequest) (interface{}, error) {
	proposer, err := parseWallet("proposer", req.Proposer)
	if err != nil {
		return nil, err
	}
	side, err := program.ParseSide(req.WinningSide)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	return s.asm.ProposeResolution(ctx, assembler.ProposeResolutionParams{
		MarketID:    req.MarketID,
		WinningSide: side,
		Proposer:    proposer,
	})
}

type finalizeRequest struct {
	MarketID  uint64 `json:"market_id"`
	Finalizer string `json:"finalizer"`
}

func (s *Service) finalizeResolution(ctx context.Context, req finalizeRequest) (interface{}, error) {
	finalizer, err := parseWallet("finalizer", req.Finalizer)
	if err != nil {
		return nil, err
	}
	return s.asm.FinalizeResolution(ctx, assembler.FinalizeResolutionParams{
		MarketID:  req.MarketID,
		Finalizer: finalizer,
	})
}

type disputeRequest struct {
	MarketID uint64 `json:"market_id"`
	Reason   string `json:"reason"`
	Disputer string `json:"disputer"`
}

func (s *Service) disputeResolution(ctx context.Context, req disputeRequest) (interface{}, error) {
	disputer, err := parseWallet("disputer", req.Disputer)
	if err != nil {
		return nil, err
	}
	return s.asm.DisputeResolution(ctx, assembler.DisputeParams{
		MarketID: req.MarketID,
		Reason:   req.Reason,
		Disputer: disputer,
	})
}

type cancelRequest struct {
	MarketID  uint64 `json:"market_id"`
	Authority string `json:"authority"`
}

func (s *Service) cancelMarket(ctx context.Context, req cancelRequest) (interface{}, error) {
	authority, err := parseWallet("authority", req.Authority)
	if err != nil {
		return nil, err
	}
	return s.asm.CancelMarket(ctx, assembler.CancelParams{MarketID: req.MarketID, Authority: authority})
}

type whitelistRequest struct {
	MarketID  uint64 `json:"market_id"`
	User      string `json:"user"`
	Authority string `json:"authority"`
}

func (s *Service) whitelistParams(req whitelistRequest) (assembler.WhitelistParams, error) {
	user, err := parseWallet("user", req.User)
	if err != nil {
		return assembler.WhitelistParams{}, err
	}
	authority, err := parseWallet("authority", req.Authority)
	if err != nil {
		return assembler.WhitelistParams{}, err
	}
	return assembler.WhitelistParams{MarketID: req.MarketID, User: user, Authority: authority}, nil
}

func (s *Service) whitelistAdd(ctx context.Context, req whitelistRequest) (interface{}, error) {
	p, err := s.whitelistParams(req)
	if err != nil {
		return nil, err
	}
	return s.asm.WhitelistAdd(ctx, p)
}

func (s *Service) whitelistRemove(ctx context.Context, req whitelistRequest) (interface{}, error) {
	p, err := s.whitelistParams(req)
	if err != nil {
		return nil, err
	}
	return s.asm.WhitelistRemove(ctx, p)
}

type affiliateRequest struct {
	Code  string `json:"code"`
	Owner string `json:"owner"`
}

func (s *Service) registerAffiliate(ctx context.Context, req affiliateRequest) (interface{}, error) {
	owner, err := parseWallet("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	return s.asm.RegisterAffiliate(ctx, assembler.RegisterAffiliateParams{Code: req.Code, Owner: owner})
}

func (s *Service) claimAffiliate(ctx context.Context, req affiliateRequest) (interface{}, error) {
	owner, err := parseWallet("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	return s.asm.ClaimAffiliateEarnings(ctx, assembler.ClaimAffiliateParams{Code: req.Code, Owner: owner})
}

type updateCreatorRequest struct {
	DisplayName string `json:"display_name"`
	FeeBps      uint16 `json:"fee_bps"`
	Owner       string `json:"owner"`
}

func (s *Service) updateCreator(ctx context.Context, req updateCreatorRequest) (interface{}, error) {
	owner, err := parseWallet("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	return s.asm.UpdateCreatorProfile(ctx, assembler.UpdateCreatorParams{
		DisplayName: req.DisplayName,
		FeeBps:      req.FeeBps,
		Owner:       owner,
	})
}

// --- read actions ---

type marketRequest struct {
	MarketID uint64 `json:"market_id"`
}

// MarketView is the API shape of a boolean market snapshot.
type MarketView struct {
	MarketID             uint64          `json:"market_id"`
	Creator              string          `json:"creator"`
	Question             string          `json:"question"`
	CloseTs              int64           `json:"close_ts"`
	EventTs              int64           `json:"event_ts"`
	MeasurementStartTs   int64           `json:"measurement_start_ts"`
	ResolutionDeadlineTs int64           `json:"resolution_deadline_ts"`
	YesPool              uint64          `json:"yes_pool"`
	NoPool               uint64          `json:"no_pool"`
	TotalPool            uint64          `json:"total_pool"`
	TotalPoolDisplay     decimal.Decimal `json:"total_pool_display"`
	YesOdds              decimal.Decimal `json:"yes_odds"`
	NoOdds               decimal.Decimal `json:"no_odds"`
	Status               string          `json:"status"`
	WinningSide          *string         `json:"winning_side,omitempty"`
	Layer                string          `json:"layer"`
	AccessGate           string          `json:"access_gate"`
	ResolutionMode       string          `json:"resolution_mode"`
	PlatformFeeBps       uint16          `json:"platform_fee_bps"`
	AffiliateFeeBps      uint16          `json:"affiliate_fee_bps"`
	CreatorFeeBps        uint16          `json:"creator_fee_bps"`
	ResolutionProposedAt *int64          `json:"resolution_proposed_at,omitempty"`
}

func (s *Service) getMarket(ctx context.Context, req marketRequest) (interface{}, error) {
	m, err := s.snapshots.GetMarket(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	view := MarketView{
		MarketID:             m.MarketID,
		Creator:              m.Creator.String(),
		Question:             m.Question,
		CloseTs:              m.CloseTs,
		EventTs:              m.EventTs,
		MeasurementStartTs:   m.MeasurementStartTs,
		ResolutionDeadlineTs: m.ResolutionDeadlineTs,
		YesPool:              m.YesPool,
		NoPool:               m.NoPool,
		TotalPool:            m.TotalPool(),
		TotalPoolDisplay:     quote.ToDisplay(m.TotalPool()),
		YesOdds:              quote.Odds(m.YesPool, m.TotalPool()),
		NoOdds:               quote.Odds(m.NoPool, m.TotalPool()),
		Status:               m.Status.String(),
		Layer:                m.Layer.String(),
		AccessGate:           m.AccessGate.String(),
		ResolutionMode:       m.ResolutionMode.String(),
		PlatformFeeBps:       m.PlatformFeeBps,
		AffiliateFeeBps:      m.AffiliateFeeBps,
		CreatorFeeBps:        m.CreatorFeeBps,
		ResolutionProposedAt: m.ResolutionProposedAt,
	}
	if m.WinningSide != nil {
		side := m.WinningSide.String()
		view.WinningSide = &side
	}
	return view, nil
}

// RaceMarketView is the API shape of a multi-outcome market snapshot.
type RaceMarketView struct {
	MarketID       uint64            `json:"market_id"`
	Creator        string            `json:"creator"`
	Question       string            `json:"question"`
	Outcomes       []string          `json:"outcomes"`
	Pools          []uint64          `json:"pools"`
	Odds           []decimal.Decimal `json:"odds"`
	TotalPool      uint64            `json:"total_pool"`
	CloseTs        int64             `json:"close_ts"`
	EventTs        int64             `json:"event_ts"`
	Status         string            `json:"status"`
	WinningOutcome *uint8            `json:"winning_outcome,omitempty"`
	Layer          string            `json:"layer"`
	AccessGate     string            `json:"access_gate"`
	PlatformFeeBps uint16            `json:"platform_fee_bps"`
	CreatorFeeBps  uint16            `json:"creator_fee_bps"`
}

func (s *Service) getRaceMarket(ctx context.Context, req marketRequest) (interface{}, error) {
	m, err := s.snapshots.GetRaceMarket(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	n := int(m.OutcomeCount)
	view := RaceMarketView{
		MarketID:       m.MarketID,
		Creator:        m.Creator.String(),
		Question:       m.Question,
		Outcomes:       m.Outcomes(),
		Pools:          m.Pools[:n],
		Odds:           make([]decimal.Decimal, n),
		TotalPool:      m.TotalPool,
		CloseTs:        m.CloseTs,
		EventTs:        m.EventTs,
		Status:         m.Status.String(),
		WinningOutcome: m.WinningOutcome,
		Layer:          m.Layer.String(),
		AccessGate:     m.AccessGate.String(),
		PlatformFeeBps: m.PlatformFeeBps,
		CreatorFeeBps:  m.CreatorFeeBps,
	}
	for i := 0; i < n; i++ {
		view.Odds[i] = quote.Odds(m.Pools[i], m.TotalPool)
	}
	return view, nil
}

type positionRequest struct {
	MarketID uint64 `json:"market_id"`
	Owner    string `json:"owner"`
}

// PositionView is the API shape of a position snapshot.
type PositionView struct {
	MarketID  uint64   `json:"market_id"`
	Owner     string   `json:"owner"`
	YesAmount uint64   `json:"yes_amount"`
	NoAmount  uint64   `json:"no_amount"`
	Amounts   []uint64 `json:"amounts"`
	Total     uint64   `json:"total"`
	Claimed   bool     `json:"claimed"`
	Affiliate *string  `json:"affiliate,omitempty"`
}

func (s *Service) getPosition(ctx context.Context, req positionRequest) (interface{}, error) {
	owner, err := parseWallet("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	p, err := s.snapshots.GetPosition(ctx, req.MarketID, owner)
	if err != nil {
		return nil, err
	}
	view := PositionView{
		MarketID:  p.MarketID,
		Owner:     p.Owner.String(),
		YesAmount: p.AmountFor(program.SideYes),
		NoAmount:  p.AmountFor(program.SideNo),
		Amounts:   p.Amounts[:],
		Total:     p.Total(),
		Claimed:   p.Claimed,
	}
	if p.Affiliate != nil {
		a := p.Affiliate.String()
		view.Affiliate = &a
	}
	return view, nil
}

type affiliateLookupRequest struct {
	Code string `json:"code"`
}

// AffiliateView is the API shape of an affiliate snapshot.
type AffiliateView struct {
	Code        string `json:"code"`
	Owner       string `json:"owner"`
	TotalEarned uint64 `json:"total_earned"`
	Unclaimed   uint64 `json:"unclaimed"`
	Active      bool   `json:"active"`
}

func (s *Service) getAffiliate(ctx context.Context, req affiliateLookupRequest) (interface{}, error) {
	a, err := s.snapshots.GetAffiliate(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	return AffiliateView{
		Code:        a.Code,
		Owner:       a.Owner.String(),
		TotalEarned: a.TotalEarned,
		Unclaimed:   a.Unclaimed,
		Active:      a.Active,
	}, nil
}

type creatorLookupRequest struct {
	Owner string `json:"owner"`
}

// CreatorProfileView is the API shape of a creator profile snapshot.
type CreatorProfileView struct {
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
	FeeBps      uint16 `json:"fee_bps"`
	TotalVolume uint64 `json:"total_volume"`
	TotalEarned uint64 `json:"total_earned"`
	Unclaimed   uint64 `json:"unclaimed"`
}

func (s *Service) getCreatorProfile(ctx context.Context, req creatorLookupRequest) (interface{}, error) {
	owner, err := parseWallet("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	p, err := s.snapshots.GetCreatorProfile(ctx, owner)
	if err != nil {
		return nil, err
	}
	return CreatorProfileView{
		Owner:       p.Owner.String(),
		DisplayName: p.DisplayName,
		FeeBps:      p.FeeBps,
		TotalVolume: p.TotalVolume,
		TotalEarned: p.TotalEarned,
		Unclaimed:   p.Unclaimed,
	}, nil
}

type quoteRequest struct {
	MarketID uint64 `json:"market_id"`
	Side     string `json:"side"`
	Amount   uint64 `json:"amount"`
}

// quoteBet computes a hypothetical payout without assembling anything. An
// empty opposing pool is reported as undefined, not an error.
func (s *Service) quoteBet(ctx context.Context, req quoteRequest) (interface{}, error) {
	side, err := program.ParseSide(req.Side)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	if req.Amount == 0 {
		return nil, badRequest("amount must be positive")
	}
	m, err := s.snapshots.GetMarket(ctx, req.MarketID)
	if err != nil {
		return nil, err
	}
	q, err := quote.Hypothetical(req.Amount, m.PoolFor(side), m.TotalPool(), m.PlatformFeeBps)
	if err != nil && q.Undefined {
		return q, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// feeSchedule returns the live creation-time fee table. Existing markets keep
// the rates frozen in their accounts regardless of this table.
func (s *Service) feeSchedule(ctx context.Context, _ struct{}) (interface{}, error) {
	return map[string]fees.Schedule{
		program.LayerOfficial.String(): s.feeTable.Official,
		program.LayerLab.String():      s.feeTable.Lab,
		program.LayerPrivate.String():  s.feeTable.Private,
	}, nil
}
