package program

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// On-chain layout constants. Accounts are fixed-size: strings are stored as a
// length prefix plus a fixed buffer so every field sits at a known offset.
const (
	MaxQuestionLen = 200
	MaxOutcomes    = 10
	MinOutcomes    = 2
	labelSlotSize  = 32 // u8 length + 31 label bytes
	maxCodeLen     = 16
	maxNameLen     = 32

	discriminatorSize = 8

	marketAccountSize     = 330
	raceMarketAccountSize = 707
	positionAccountSize   = 155
	affiliateAccountSize  = 67
	creatorAccountSize    = 92
)

// Market is a read-only snapshot of a boolean market account.
type Market struct {
	MarketID             uint64
	Creator              solana.PublicKey
	Question             string
	CloseTs              int64
	EventTs              int64
	MeasurementStartTs   int64
	ResolutionDeadlineTs int64
	YesPool              uint64
	NoPool               uint64
	SnapshotYesPool      uint64
	SnapshotNoPool       uint64
	Status               MarketStatus
	WinningSide          *Side
	Layer                Layer
	AccessGate           AccessGate
	ResolutionMode       ResolutionMode
	PlatformFeeBps       uint16
	AffiliateFeeBps      uint16
	CreatorFeeBps        uint16
	ResolutionProposedAt *int64
	Bump                 uint8
}

// TotalPool returns the combined live pool.
func (m *Market) TotalPool() uint64 {
	return m.YesPool + m.NoPool
}

// PoolFor returns the live pool on the given side.
func (m *Market) PoolFor(side Side) uint64 {
	if side == SideYes {
		return m.YesPool
	}
	return m.NoPool
}

// SnapshotTotal returns the pool total frozen at close. Zero until the market
// has transitioned out of Active.
func (m *Market) SnapshotTotal() uint64 {
	return m.SnapshotYesPool + m.SnapshotNoPool
}

// SnapshotPoolFor returns the frozen pool on the given side.
func (m *Market) SnapshotPoolFor(side Side) uint64 {
	if side == SideYes {
		return m.SnapshotYesPool
	}
	return m.SnapshotNoPool
}

// RaceMarket is a read-only snapshot of a multi-outcome market account.
type RaceMarket struct {
	MarketID             uint64
	Creator              solana.PublicKey
	Question             string
	OutcomeCount         uint8
	Labels               [MaxOutcomes]string
	Pools                [MaxOutcomes]uint64
	TotalPool            uint64
	CloseTs              int64
	EventTs              int64
	MeasurementStartTs   int64
	ResolutionDeadlineTs int64
	Status               MarketStatus
	WinningOutcome       *uint8
	Layer                Layer
	AccessGate           AccessGate
	ResolutionMode       ResolutionMode
	PlatformFeeBps       uint16
	AffiliateFeeBps      uint16
	CreatorFeeBps        uint16
	ResolutionProposedAt *int64
	Bump                 uint8
}

// Outcomes returns the populated outcome labels.
func (m *RaceMarket) Outcomes() []string {
	return m.Labels[:m.OutcomeCount]
}

// Position is a read-only snapshot of a user's stake in one market. Boolean
// markets use slots 0 (yes) and 1 (no) of the outcome array.
type Position struct {
	MarketID  uint64
	Owner     solana.PublicKey
	Amounts   [MaxOutcomes]uint64
	Claimed   bool
	Affiliate *solana.PublicKey
	Bump      uint8
}

// AmountFor returns the stake on a boolean side.
func (p *Position) AmountFor(side Side) uint64 {
	return p.Amounts[side]
}

// Total returns the total stake across all outcomes.
func (p *Position) Total() uint64 {
	var sum uint64
	for _, a := range p.Amounts {
		sum += a
	}
	return sum
}

// Affiliate is a read-only snapshot of an affiliate account.
type Affiliate struct {
	Code        string
	Owner       solana.PublicKey
	TotalEarned uint64
	Unclaimed   uint64
	Active      bool
	Bump        uint8
}

// CreatorProfile is a read-only snapshot of a creator profile account.
type CreatorProfile struct {
	Owner       solana.PublicKey
	DisplayName string
	FeeBps      uint16
	TotalVolume uint64
	TotalEarned uint64
	Unclaimed   uint64
	Bump        uint8
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) u8() uint8 {
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) pubkey() solana.PublicKey {
	v := solana.PublicKeyFromBytes(r.data[r.off : r.off+32])
	r.off += 32
	return v
}

// fixedString reads a u32 length prefix followed by a fixed-size buffer.
func (r *reader) fixedString(bufLen int) (string, error) {
	n := int(r.u32())
	if n > bufLen {
		return "", fmt.Errorf("string length %d exceeds buffer %d", n, bufLen)
	}
	s := string(r.data[r.off : r.off+n])
	r.off += bufLen
	return s, nil
}

// shortString reads a u8 length prefix followed by a fixed-size buffer.
func (r *reader) shortString(bufLen int) (string, error) {
	n := int(r.u8())
	if n > bufLen {
		return "", fmt.Errorf("string length %d exceeds buffer %d", n, bufLen)
	}
	s := string(r.data[r.off : r.off+n])
	r.off += bufLen
	return s, nil
}

// optionU8 reads a presence flag followed by a fixed one-byte slot.
func (r *reader) optionU8() *uint8 {
	present := r.u8() == 1
	v := r.u8()
	if !present {
		return nil
	}
	return &v
}

// optionI64 reads a presence flag followed by a fixed eight-byte slot.
func (r *reader) optionI64() *int64 {
	present := r.u8() == 1
	v := r.i64()
	if !present {
		return nil
	}
	return &v
}

// optionPubkey reads a presence flag followed by a fixed 32-byte slot.
func (r *reader) optionPubkey() *solana.PublicKey {
	present := r.u8() == 1
	v := r.pubkey()
	if !present {
		return nil
	}
	return &v
}

func stripDiscriminator(data []byte, want int, kind string) ([]byte, error) {
	if len(data) < discriminatorSize {
		return nil, fmt.Errorf("invalid %s data length %d", kind, len(data))
	}
	data = data[discriminatorSize:]
	if len(data) < want {
		return nil, fmt.Errorf("insufficient %s data: got %d, want %d", kind, len(data), want)
	}
	return data, nil
}

// DecodeMarket deserializes a boolean market account.
func DecodeMarket(data []byte) (*Market, error) {
	data, err := stripDiscriminator(data, marketAccountSize, "market")
	if err != nil {
		return nil, err
	}

	r := &reader{data: data}
	m := &Market{}

	m.MarketID = r.u64()
	m.Creator = r.pubkey()
	if m.Question, err = r.fixedString(MaxQuestionLen); err != nil {
		return nil, fmt.Errorf("failed to decode question: %w", err)
	}
	m.CloseTs = r.i64()
	m.EventTs = r.i64()
	m.MeasurementStartTs = r.i64()
	m.ResolutionDeadlineTs = r.i64()
	m.YesPool = r.u64()
	m.NoPool = r.u64()
	m.SnapshotYesPool = r.u64()
	m.SnapshotNoPool = r.u64()

	m.Status = MarketStatus(r.u8())
	if !m.Status.Valid() {
		return nil, fmt.Errorf("unknown market status byte %d", uint8(m.Status))
	}
	if w := r.optionU8(); w != nil {
		side := Side(*w)
		m.WinningSide = &side
	}
	m.Layer = Layer(r.u8())
	m.AccessGate = AccessGate(r.u8())
	m.ResolutionMode = ResolutionMode(r.u8())
	m.PlatformFeeBps = r.u16()
	m.AffiliateFeeBps = r.u16()
	m.CreatorFeeBps = r.u16()
	m.ResolutionProposedAt = r.optionI64()
	m.Bump = r.u8()

	return m, nil
}

// DecodeRaceMarket deserializes a multi-outcome market account.
func DecodeRaceMarket(data []byte) (*RaceMarket, error) {
	data, err := stripDiscriminator(data, raceMarketAccountSize, "race market")
	if err != nil {
		return nil, err
	}

	r := &reader{data: data}
	m := &RaceMarket{}

	m.MarketID = r.u64()
	m.Creator = r.pubkey()
	if m.Question, err = r.fixedString(MaxQuestionLen); err != nil {
		return nil, fmt.Errorf("failed to decode question: %w", err)
	}

	m.OutcomeCount = r.u8()
	if m.OutcomeCount < MinOutcomes || m.OutcomeCount > MaxOutcomes {
		return nil, fmt.Errorf("outcome count %d out of range [%d, %d]", m.OutcomeCount, MinOutcomes, MaxOutcomes)
	}
	for i := 0; i < MaxOutcomes; i++ {
		if m.Labels[i], err = r.shortString(labelSlotSize - 1); err != nil {
			return nil, fmt.Errorf("failed to decode label %d: %w", i, err)
		}
	}
	var sum uint64
	for i := 0; i < MaxOutcomes; i++ {
		m.Pools[i] = r.u64()
		sum += m.Pools[i]
	}
	m.TotalPool = r.u64()
	if sum != m.TotalPool {
		return nil, fmt.Errorf("pool sum %d does not match total pool %d", sum, m.TotalPool)
	}

	m.CloseTs = r.i64()
	m.EventTs = r.i64()
	m.MeasurementStartTs = r.i64()
	m.ResolutionDeadlineTs = r.i64()

	m.Status = MarketStatus(r.u8())
	if !m.Status.Valid() {
		return nil, fmt.Errorf("unknown market status byte %d", uint8(m.Status))
	}
	m.WinningOutcome = r.optionU8()
	m.Layer = Layer(r.u8())
	m.AccessGate = AccessGate(r.u8())
	m.ResolutionMode = ResolutionMode(r.u8())
	m.PlatformFeeBps = r.u16()
	m.AffiliateFeeBps = r.u16()
	m.CreatorFeeBps = r.u16()
	m.ResolutionProposedAt = r.optionI64()
	m.Bump = r.u8()

	return m, nil
}

// DecodePosition deserializes a position account.
func DecodePosition(data []byte) (*Position, error) {
	data, err := stripDiscriminator(data, positionAccountSize, "position")
	if err != nil {
		return nil, err
	}

	r := &reader{data: data}
	p := &Position{}

	p.MarketID = r.u64()
	p.Owner = r.pubkey()
	for i := 0; i < MaxOutcomes; i++ {
		p.Amounts[i] = r.u64()
	}
	p.Claimed = r.u8() == 1
	p.Affiliate = r.optionPubkey()
	p.Bump = r.u8()

	return p, nil
}

// DecodeAffiliate deserializes an affiliate account.
func DecodeAffiliate(data []byte) (*Affiliate, error) {
	data, err := stripDiscriminator(data, affiliateAccountSize, "affiliate")
	if err != nil {
		return nil, err
	}

	r := &reader{data: data}
	a := &Affiliate{}

	if a.Code, err = r.shortString(maxCodeLen); err != nil {
		return nil, fmt.Errorf("failed to decode code: %w", err)
	}
	a.Owner = r.pubkey()
	a.TotalEarned = r.u64()
	a.Unclaimed = r.u64()
	a.Active = r.u8() == 1
	a.Bump = r.u8()

	return a, nil
}

// DecodeCreatorProfile deserializes a creator profile account.
func DecodeCreatorProfile(data []byte) (*CreatorProfile, error) {
	data, err := stripDiscriminator(data, creatorAccountSize, "creator profile")
	if err != nil {
		return nil, err
	}

	r := &reader{data: data}
	p := &CreatorProfile{}

	p.Owner = r.pubkey()
	if p.DisplayName, err = r.shortString(maxNameLen); err != nil {
		return nil, fmt.Errorf("failed to decode display name: %w", err)
	}
	p.FeeBps = r.u16()
	p.TotalVolume = r.u64()
	p.TotalEarned = r.u64()
	p.Unclaimed = r.u64()
	p.Bump = r.u8()

	return p, nil
}
