package quote

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPayoutWorkedExample(t *testing.T) {
	// 10 units on a 60-unit winning pool out of 100 total, 3% fee.
	bet := uint64(10_000_000_000)
	winning := uint64(60_000_000_000)
	total := uint64(100_000_000_000)

	q, err := Payout(bet, winning, total, 300)
	if err != nil {
		t.Fatalf("Payout failed: %v", err)
	}

	if q.GrossPayout != 16_666_666_666 {
		t.Errorf("gross = %d, want 16666666666", q.GrossPayout)
	}
	if q.Profit != 6_666_666_666 {
		t.Errorf("profit = %d, want 6666666666", q.Profit)
	}
	if q.Fee != 199_999_999 {
		t.Errorf("fee = %d, want 199999999", q.Fee)
	}
	if q.NetPayout != 16_466_666_667 {
		t.Errorf("net = %d, want 16466666667", q.NetPayout)
	}
}

func TestPayoutInvariants(t *testing.T) {
	cases := []struct {
		bet, winning, total uint64
		feeBps              uint16
	}{
		{10_000_000, 60_000_000, 100_000_000, 300},
		{1, 1, 1, 250},
		{5_000_000, 5_000_000, 5_000_000, 350}, // sole bettor
		{10_000_000, 10_000_000, 95_000_000, 0},
		{99_999_999_999, 99_999_999_999, 100_000_000_000, 200},
	}

	for _, c := range cases {
		q, err := Payout(c.bet, c.winning, c.total, c.feeBps)
		if err != nil {
			t.Fatalf("Payout(%d, %d, %d, %d) failed: %v", c.bet, c.winning, c.total, c.feeBps, err)
		}
		if q.GrossPayout < c.bet {
			t.Errorf("gross %d < bet %d", q.GrossPayout, c.bet)
		}
		if q.Profit != q.GrossPayout-c.bet {
			t.Errorf("profit %d != gross %d - bet %d", q.Profit, q.GrossPayout, c.bet)
		}
		if q.Fee > q.Profit {
			t.Errorf("fee %d charged on stake, profit is only %d", q.Fee, q.Profit)
		}
		if q.NetPayout != q.GrossPayout-q.Fee {
			t.Errorf("net %d != gross %d - fee %d", q.NetPayout, q.GrossPayout, q.Fee)
		}
	}
}

func TestPayoutSoleBettorPaysNoFee(t *testing.T) {
	// Winning pool equals the total: no profit, so no fee.
	q, err := Payout(10_000_000, 10_000_000, 10_000_000, 300)
	if err != nil {
		t.Fatalf("Payout failed: %v", err)
	}
	if q.Profit != 0 {
		t.Errorf("profit = %d, want 0", q.Profit)
	}
	if q.Fee != 0 {
		t.Errorf("fee = %d, want 0", q.Fee)
	}
	if q.NetPayout != 10_000_000 {
		t.Errorf("net = %d, want the stake back", q.NetPayout)
	}
}

func TestPayoutEmptyPool(t *testing.T) {
	q, err := Payout(10_000_000, 0, 50_000_000, 300)
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
	if !q.Undefined {
		t.Error("quote should be flagged undefined")
	}
}

func TestPayoutRejectsZeroBet(t *testing.T) {
	if _, err := Payout(0, 10, 10, 300); err == nil {
		t.Fatal("expected error for zero bet")
	}
}

func TestPayoutRejectsInconsistentPools(t *testing.T) {
	// Bet larger than the winning pool it supposedly belongs to.
	if _, err := Payout(20, 10, 100, 300); err == nil {
		t.Fatal("expected error for bet > winning pool")
	}
	// Winning pool larger than total.
	if _, err := Payout(10, 200, 100, 300); err == nil {
		t.Fatal("expected error for winning > total")
	}
}

func TestPayoutLargePoolsNoOverflow(t *testing.T) {
	// b*T would overflow u64; the 128-bit intermediate must carry it.
	bet := uint64(50_000_000_000_000)      // 50k SOL
	winning := uint64(60_000_000_000_000)  // 60k SOL
	total := uint64(100_000_000_000_000)   // 100k SOL

	q, err := Payout(bet, winning, total, 250)
	if err != nil {
		t.Fatalf("Payout failed: %v", err)
	}
	want := uint64(83_333_333_333_333) // 50k * 100k / 60k, truncated
	if q.GrossPayout != want {
		t.Errorf("gross = %d, want %d", q.GrossPayout, want)
	}
}

func TestHypotheticalIncludesBet(t *testing.T) {
	// Pools before the bet: 50 yes / 40 no. A 10-unit yes bet quotes against
	// 60 / 100.
	q, err := Hypothetical(10_000_000, 50_000_000, 90_000_000, 300)
	if err != nil {
		t.Fatalf("Hypothetical failed: %v", err)
	}
	if q.GrossPayout != 16_666_666 {
		t.Errorf("gross = %d, want 16666666", q.GrossPayout)
	}
	if q.Fee != 199_999 {
		t.Errorf("fee = %d, want 199999", q.Fee)
	}
	if q.NetPayout != 16_466_667 {
		t.Errorf("net = %d, want 16466667", q.NetPayout)
	}
}

func TestHypotheticalFirstBet(t *testing.T) {
	// The first bet on an empty market quotes 1:1 minus nothing.
	q, err := Hypothetical(10_000_000, 0, 0, 300)
	if err != nil {
		t.Fatalf("Hypothetical failed: %v", err)
	}
	if q.NetPayout != 10_000_000 {
		t.Errorf("net = %d, want the stake back", q.NetPayout)
	}
}

func TestOdds(t *testing.T) {
	odds := Odds(60, 100)
	if !odds.Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("odds = %s, want 0.6", odds)
	}
	if !Odds(0, 0).IsZero() {
		t.Error("odds of an empty market should be zero")
	}
}

func TestDisplayConversion(t *testing.T) {
	d := ToDisplay(1_500_000_000)
	if !d.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("ToDisplay = %s, want 1.5", d)
	}

	lamports, err := FromDisplay(decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("FromDisplay failed: %v", err)
	}
	if lamports != 10_000_000 {
		t.Errorf("FromDisplay = %d, want 10000000", lamports)
	}

	if _, err := FromDisplay(decimal.RequireFromString("-1")); err == nil {
		t.Fatal("expected error for negative amount")
	}
}
