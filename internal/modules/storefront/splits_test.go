package storefront_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
	"github.com/mwansakal/sokoni-backend/internal/modules/storefront"
)

// Scenario: 60% + 30% configured, a further 20% must be rejected, exactly 10%
// accepted (reaching 100%).
func TestSplitSumCap(t *testing.T) {
	f := newFixture(t)
	pid := f.addPhysical(t, 100, 10)

	add := func(pct int64) error {
		return f.store.AddRevenueSplit(f.ctx, f.owner, pid, storefront.AddSplitRequest{
			Recipient: uuid.New().String(), Percentage: pct,
		})
	}

	require.NoError(t, add(6000))
	require.NoError(t, add(3000))
	require.ErrorIs(t, add(2000), fault.ErrValidation, "would exceed 100%")
	require.NoError(t, add(1000), "reaching exactly 100% is allowed")
	require.ErrorIs(t, add(1), fault.ErrValidation)
}

func TestSplitEntryValidation(t *testing.T) {
	f := newFixture(t)
	pid := f.addPhysical(t, 100, 10)

	err := f.store.AddRevenueSplit(f.ctx, f.buyer, pid, storefront.AddSplitRequest{Recipient: uuid.New().String(), Percentage: 100})
	require.ErrorIs(t, err, fault.ErrUnauthorized)

	err = f.store.AddRevenueSplit(f.ctx, f.owner, pid, storefront.AddSplitRequest{Recipient: uuid.Nil.String(), Percentage: 100})
	require.ErrorIs(t, err, fault.ErrValidation)

	err = f.store.AddRevenueSplit(f.ctx, f.owner, pid, storefront.AddSplitRequest{Recipient: uuid.New().String(), Percentage: 0})
	require.ErrorIs(t, err, fault.ErrValidation)

	err = f.store.AddRevenueSplit(f.ctx, f.owner, pid, storefront.AddSplitRequest{Recipient: uuid.New().String(), Percentage: 10000})
	require.ErrorIs(t, err, fault.ErrValidation, "a single split may not take the full 100%")

	err = f.store.AddRevenueSplit(f.ctx, f.owner, 99, storefront.AddSplitRequest{Recipient: uuid.New().String(), Percentage: 100})
	require.ErrorIs(t, err, fault.ErrValidation)
}

// Removal moves the last entry into the removed slot; ordering is not stable.
func TestRemoveSplitSwapsWithLast(t *testing.T) {
	f := newFixture(t)
	pid := f.addPhysical(t, 100, 10)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	for i, r := range []uuid.UUID{a, b, c} {
		require.NoError(t, f.store.AddRevenueSplit(f.ctx, f.owner, pid, storefront.AddSplitRequest{
			Recipient: r.String(), Percentage: int64(1000 * (i + 1)),
		}))
	}

	require.NoError(t, f.store.RemoveRevenueSplit(f.ctx, f.owner, pid, 0))
	splits, err := f.store.ListRevenueSplits(pid)
	require.NoError(t, err)
	require.Len(t, splits, 2)
	require.Equal(t, c, splits[0].Recipient, "former last entry fills the removed slot")
	require.Equal(t, b, splits[1].Recipient)

	require.ErrorIs(t, f.store.RemoveRevenueSplit(f.ctx, f.owner, pid, 2), fault.ErrValidation)
	require.ErrorIs(t, f.store.RemoveRevenueSplit(f.ctx, f.owner, pid, -1), fault.ErrValidation)
}

// With no splits configured the owner takes the whole net amount.
func TestDistributionWithoutSplits(t *testing.T) {
	f := newFixture(t)
	pid := f.addPhysical(t, 200, 10)
	oid, _ := f.store.CreateOrder(f.ctx, f.buyer, storefront.CreateOrderRequest{ProductID: pid, Quantity: 1})
	require.NoError(t, f.store.ProcessPayment(f.ctx, f.buyer, oid))

	require.Equal(t, int64(5), f.balance(t, f.collector))
	require.Equal(t, int64(195), f.balance(t, f.owner))
}

func TestWithdrawFundsSweepsBalance(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.WithdrawFunds(f.ctx, f.owner, f.token)
	require.ErrorIs(t, err, fault.ErrResource, "zero balance")

	_, err = f.store.WithdrawFunds(f.ctx, f.owner, uuid.Nil)
	require.ErrorIs(t, err, fault.ErrValidation)

	require.NoError(t, f.bank.Mint(f.ctx, f.token, f.store.ID(), 777))
	_, err = f.store.WithdrawFunds(f.ctx, f.buyer, f.token)
	require.ErrorIs(t, err, fault.ErrUnauthorized)

	got, err := f.store.WithdrawFunds(f.ctx, f.owner, f.token)
	require.NoError(t, err)
	require.Equal(t, int64(777), got)
	require.Equal(t, int64(777), f.balance(t, f.owner))
	require.Equal(t, int64(0), f.balance(t, f.store.ID()))
}
