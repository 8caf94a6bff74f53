// Package blockchain reads account snapshots from the external program over
// RPC and dry-runs assembled transactions. It never mutates chain state and
// never holds keys.
package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"market-agent/internal/program"
)

// Client is a read-only view of the prediction-market program.
type Client struct {
	rpcClient *rpc.Client
	programID solana.PublicKey
}

// EndpointForNetwork maps a named network to its public RPC endpoint.
func EndpointForNetwork(network string) string {
	switch network {
	case "mainnet-beta":
		return rpc.MainNetBeta_RPC
	case "testnet":
		return rpc.TestNet_RPC
	case "devnet":
		return rpc.DevNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}

// NewClient creates a snapshot client against one RPC endpoint and one
// program identity.
func NewClient(rpcURL string, programID solana.PublicKey) *Client {
	return &Client{
		rpcClient: rpc.New(rpcURL),
		programID: programID,
	}
}

// ProgramID returns the program identity this client reads.
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// fetchAccount returns the raw bytes of one account, mapping missing accounts
// to ErrNotFound and RPC failures to ErrTransport.
func (c *Client) fetchAccount(ctx context.Context, address solana.PublicKey, kind string) ([]byte, error) {
	info, err := c.rpcClient.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, address)
		}
		return nil, fmt.Errorf("%w: fetching %s %s: %v", ErrTransport, kind, address, err)
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, address)
	}
	return info.Value.Data.GetBinary(), nil
}

// GetMarket fetches and decodes a boolean market snapshot.
func (c *Client) GetMarket(ctx context.Context, marketID uint64) (*program.Market, error) {
	pda, _, err := program.MarketAddress(c.programID, marketID)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchAccount(ctx, pda, "market")
	if err != nil {
		return nil, err
	}

	market, err := program.DecodeMarket(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode market %d: %w", marketID, err)
	}
	return market, nil
}

// GetRaceMarket fetches and decodes a multi-outcome market snapshot.
func (c *Client) GetRaceMarket(ctx context.Context, marketID uint64) (*program.RaceMarket, error) {
	pda, _, err := program.RaceMarketAddress(c.programID, marketID)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchAccount(ctx, pda, "race market")
	if err != nil {
		return nil, err
	}

	market, err := program.DecodeRaceMarket(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode race market %d: %w", marketID, err)
	}
	return market, nil
}

// GetPosition fetches and decodes a position snapshot.
func (c *Client) GetPosition(ctx context.Context, marketID uint64, owner solana.PublicKey) (*program.Position, error) {
	pda, _, err := program.PositionAddress(c.programID, marketID, owner)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchAccount(ctx, pda, "position")
	if err != nil {
		return nil, err
	}

	position, err := program.DecodePosition(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode position for market %d: %w", marketID, err)
	}
	return position, nil
}

// GetAffiliate fetches and decodes an affiliate snapshot by code.
func (c *Client) GetAffiliate(ctx context.Context, code string) (*program.Affiliate, error) {
	pda, _, err := program.AffiliateAddress(c.programID, code)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchAccount(ctx, pda, "affiliate")
	if err != nil {
		return nil, err
	}

	affiliate, err := program.DecodeAffiliate(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode affiliate %q: %w", code, err)
	}
	return affiliate, nil
}

// GetCreatorProfile fetches and decodes a creator profile snapshot.
func (c *Client) GetCreatorProfile(ctx context.Context, owner solana.PublicKey) (*program.CreatorProfile, error) {
	pda, _, err := program.CreatorProfileAddress(c.programID, owner)
	if err != nil {
		return nil, err
	}

	data, err := c.fetchAccount(ctx, pda, "creator profile")
	if err != nil {
		return nil, err
	}

	profile, err := program.DecodeCreatorProfile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode creator profile %s: %w", owner, err)
	}
	return profile, nil
}

// IsWhitelisted probes for the caller's whitelist PDA on a market. A missing
// account is a definitive "no" for this snapshot, not an error.
func (c *Client) IsWhitelisted(ctx context.Context, marketID uint64, user solana.PublicKey) (bool, error) {
	pda, _, err := program.WhitelistAddress(c.programID, marketID, user)
	if err != nil {
		return false, err
	}

	_, err = c.fetchAccount(ctx, pda, "whitelist entry")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LatestBlockhash fetches the blockhash the assembled transaction will carry.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	resp, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("%w: fetching blockhash: %v", ErrTransport, err)
	}
	return resp.Value.Blockhash, nil
}
