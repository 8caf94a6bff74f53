package assembler

import (
	"context"
	"errors"
	"regexp"

	"github.com/gagliardetto/solana-go"

	"market-agent/internal/blockchain"
	"market-agent/internal/program"
)

var affiliateCodePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,16}$`)

// RegisterAffiliateParams are the validated inputs for register_affiliate.
type RegisterAffiliateParams struct {
	Code  string
	Owner solana.PublicKey
}

// RegisterAffiliate assembles an unsigned register_affiliate transaction.
// Code uniqueness is enforced by the PDA derivation itself; the snapshot
// probe here only gives the caller a fast answer before they sign.
func (a *Assembler) RegisterAffiliate(ctx context.Context, p RegisterAffiliateParams) (*Assembled, error) {
	if !affiliateCodePattern.MatchString(p.Code) {
		return nil, inputError("affiliate code must be 3-16 alphanumeric characters")
	}

	existing, err := a.snapshots.GetAffiliate(ctx, p.Code)
	if err != nil && !errors.Is(err, blockchain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, inputError("affiliate code %q is already registered", p.Code)
	}

	affiliatePDA, _, err := program.AffiliateAddress(a.cfg.ProgramID, p.Code)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(affiliatePDA),
		signerWritable(p.Owner),
		readonly(solana.SystemProgramID),
	}

	data := program.RegisterAffiliateData(p.Code)

	tx, encoded, err := a.buildTransaction(ctx, p.Owner, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrRegisterAffiliate,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"affiliate": affiliatePDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// ClaimAffiliateParams are the validated inputs for claim_affiliate_earnings.
type ClaimAffiliateParams struct {
	Code  string
	Owner solana.PublicKey
}

// ClaimAffiliateEarnings assembles an unsigned claim_affiliate_earnings
// transaction for the affiliate's unclaimed balance.
func (a *Assembler) ClaimAffiliateEarnings(ctx context.Context, p ClaimAffiliateParams) (*Assembled, error) {
	affiliate, err := a.snapshots.GetAffiliate(ctx, p.Code)
	if err != nil {
		return nil, err
	}
	if !affiliate.Owner.Equals(p.Owner) {
		return nil, inputError("wallet does not own affiliate code %q", p.Code)
	}
	if affiliate.Unclaimed == 0 {
		return nil, inputError("affiliate %q has nothing to claim", p.Code)
	}

	affiliatePDA, _, err := program.AffiliateAddress(a.cfg.ProgramID, p.Code)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(affiliatePDA),
		signerWritable(p.Owner),
	}

	data := program.ClaimAffiliateData()

	tx, encoded, err := a.buildTransaction(ctx, p.Owner, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrClaimAffiliate,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"affiliate": affiliatePDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}

// UpdateCreatorParams are the validated inputs for update_creator_profile.
type UpdateCreatorParams struct {
	DisplayName string
	FeeBps      uint16
	Owner       solana.PublicKey
}

// UpdateCreatorProfile assembles an unsigned update_creator_profile
// transaction, creating the profile on first use.
func (a *Assembler) UpdateCreatorProfile(ctx context.Context, p UpdateCreatorParams) (*Assembled, error) {
	if len(p.DisplayName) == 0 || len(p.DisplayName) > 32 {
		return nil, inputError("display name must be 1-32 characters")
	}
	// The ceiling is shared across layers; Official carries the canonical copy.
	ceiling := a.cfg.FeeTable.Official.CreatorFeeCeilingBps
	if p.FeeBps > ceiling {
		return nil, inputError("creator fee %d bps exceeds ceiling of %d bps", p.FeeBps, ceiling)
	}

	profilePDA, _, err := program.CreatorProfileAddress(a.cfg.ProgramID, p.Owner)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		writable(profilePDA),
		signerWritable(p.Owner),
		readonly(solana.SystemProgramID),
	}

	data := program.UpdateCreatorData(p.DisplayName, p.FeeBps)

	tx, encoded, err := a.buildTransaction(ctx, p.Owner, accounts, data)
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		Action:            program.InstrUpdateCreator,
		TransactionBase64: encoded,
		Addresses: map[string]string{
			"creator_profile": profilePDA.String(),
		},
	}
	return a.finish(ctx, out, tx)
}
