package program

import (
	"crypto/sha256"
	"encoding/binary"
)

// Instruction names as declared by the on-chain program.
const (
	InstrCreateMarket       = "create_market"
	InstrCreateRaceMarket   = "create_race_market"
	InstrPlaceBet           = "place_bet"
	InstrPlaceRaceBet       = "place_race_bet"
	InstrClaimWinnings      = "claim_winnings"
	InstrProposeResolution  = "propose_resolution"
	InstrFinalizeResolution = "finalize_resolution"
	InstrDisputeResolution  = "dispute_resolution"
	InstrCancelMarket       = "cancel_market"
	InstrWhitelistAdd       = "whitelist_add"
	InstrWhitelistRemove    = "whitelist_remove"
	InstrRegisterAffiliate  = "register_affiliate"
	InstrClaimAffiliate     = "claim_affiliate_earnings"
	InstrUpdateCreator      = "update_creator_profile"
)

// Discriminator returns the 8-byte anchor instruction discriminator,
// sha256("global:<name>")[:8].
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type dataBuilder struct {
	buf []byte
}

func newData(instr string) *dataBuilder {
	d := Discriminator(instr)
	return &dataBuilder{buf: append([]byte{}, d[:]...)}
}

func (b *dataBuilder) u8(v uint8) *dataBuilder {
	b.buf = append(b.buf, v)
	return b
}

func (b *dataBuilder) u16(v uint16) *dataBuilder {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *dataBuilder) u64(v uint64) *dataBuilder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *dataBuilder) i64(v int64) *dataBuilder {
	return b.u64(uint64(v))
}

// str appends a u32 length prefix followed by the raw bytes.
func (b *dataBuilder) str(s string) *dataBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
	b.buf = append(b.buf, tmp[:]...)
	b.buf = append(b.buf, s...)
	return b
}

func (b *dataBuilder) bytes() []byte {
	return b.buf
}

// CreateMarketData builds the instruction payload for create_market.
func CreateMarketData(marketID uint64, question string, closeTs, eventTs, measurementStartTs, resolutionDeadlineTs int64,
	layer Layer, gate AccessGate, mode ResolutionMode, platformFeeBps, affiliateFeeBps, creatorFeeBps uint16) []byte {
	return newData(InstrCreateMarket).
		u64(marketID).
		str(question).
		i64(closeTs).
		i64(eventTs).
		i64(measurementStartTs).
		i64(resolutionDeadlineTs).
		u8(uint8(layer)).
		u8(uint8(gate)).
		u8(uint8(mode)).
		u16(platformFeeBps).
		u16(affiliateFeeBps).
		u16(creatorFeeBps).
		bytes()
}

// CreateRaceMarketData builds the instruction payload for create_race_market.
func CreateRaceMarketData(marketID uint64, question string, labels []string, closeTs, eventTs, measurementStartTs, resolutionDeadlineTs int64,
	layer Layer, gate AccessGate, mode ResolutionMode, platformFeeBps, affiliateFeeBps, creatorFeeBps uint16) []byte {
	b := newData(InstrCreateRaceMarket).
		u64(marketID).
		str(question).
		u8(uint8(len(labels)))
	for _, label := range labels {
		b.str(label)
	}
	return b.
		i64(closeTs).
		i64(eventTs).
		i64(measurementStartTs).
		i64(resolutionDeadlineTs).
		u8(uint8(layer)).
		u8(uint8(gate)).
		u8(uint8(mode)).
		u16(platformFeeBps).
		u16(affiliateFeeBps).
		u16(creatorFeeBps).
		bytes()
}

// PlaceBetData builds the instruction payload for place_bet.
func PlaceBetData(side Side, amount uint64) []byte {
	return newData(InstrPlaceBet).
		u8(uint8(side)).
		u64(amount).
		bytes()
}

// PlaceRaceBetData builds the instruction payload for place_race_bet.
func PlaceRaceBetData(outcome uint8, amount uint64) []byte {
	return newData(InstrPlaceRaceBet).
		u8(outcome).
		u64(amount).
		bytes()
}

// ClaimWinningsData builds the instruction payload for claim_winnings.
func ClaimWinningsData() []byte {
	return newData(InstrClaimWinnings).bytes()
}

// ProposeResolutionData builds the instruction payload for propose_resolution.
func ProposeResolutionData(winningSide uint8) []byte {
	return newData(InstrProposeResolution).
		u8(winningSide).
		bytes()
}

// FinalizeResolutionData builds the instruction payload for finalize_resolution.
func FinalizeResolutionData() []byte {
	return newData(InstrFinalizeResolution).bytes()
}

// DisputeResolutionData builds the instruction payload for dispute_resolution.
func DisputeResolutionData(reasonHash [32]byte) []byte {
	b := newData(InstrDisputeResolution)
	b.buf = append(b.buf, reasonHash[:]...)
	return b.bytes()
}

// CancelMarketData builds the instruction payload for cancel_market.
func CancelMarketData() []byte {
	return newData(InstrCancelMarket).bytes()
}

// WhitelistAddData builds the instruction payload for whitelist_add.
func WhitelistAddData() []byte {
	return newData(InstrWhitelistAdd).bytes()
}

// WhitelistRemoveData builds the instruction payload for whitelist_remove.
func WhitelistRemoveData() []byte {
	return newData(InstrWhitelistRemove).bytes()
}

// RegisterAffiliateData builds the instruction payload for register_affiliate.
func RegisterAffiliateData(code string) []byte {
	return newData(InstrRegisterAffiliate).
		str(code).
		bytes()
}

// ClaimAffiliateData builds the instruction payload for claim_affiliate_earnings.
func ClaimAffiliateData() []byte {
	return newData(InstrClaimAffiliate).bytes()
}

// UpdateCreatorData builds the instruction payload for update_creator_profile.
func UpdateCreatorData(displayName string, feeBps uint16) []byte {
	return newData(InstrUpdateCreator).
		str(displayName).
		u16(feeBps).
		bytes()
}
