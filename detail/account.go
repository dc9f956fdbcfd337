package detail

import (
	"context"

	"github.com/jonwraymond/fanout/cache"
)

const insuranceCardNamespace = "insurance_card"

// CachedAccountClient is a read-through cache in front of an AccountClient.
// Concurrent lookups of the same card share one downstream call, and
// failures are never cached.
type CachedAccountClient struct {
	next   AccountClient
	loader *cache.Loader[InsuranceCard]
	keyer  cache.Keyer
}

// NewCachedAccountClient wraps next with loader. A nil keyer uses
// cache.NewDefaultKeyer().
func NewCachedAccountClient(next AccountClient, loader *cache.Loader[InsuranceCard], keyer cache.Keyer) *CachedAccountClient {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedAccountClient{next: next, loader: loader, keyer: keyer}
}

// GetFamilyInsuranceCard returns the cached card or fetches it.
func (c *CachedAccountClient) GetFamilyInsuranceCard(ctx context.Context, patientID, familyID int64) (InsuranceCard, error) {
	key, err := c.keyer.Key(insuranceCardNamespace, patientID, familyID)
	if err != nil {
		return c.next.GetFamilyInsuranceCard(ctx, patientID, familyID)
	}
	return c.loader.Load(ctx, key, func(ctx context.Context) (InsuranceCard, error) {
		return c.next.GetFamilyInsuranceCard(ctx, patientID, familyID)
	})
}

// Invalidate drops the cached card.
func (c *CachedAccountClient) Invalidate(ctx context.Context, patientID, familyID int64) error {
	key, err := c.keyer.Key(insuranceCardNamespace, patientID, familyID)
	if err != nil {
		return err
	}
	return c.loader.Invalidate(ctx, key)
}

var _ AccountClient = (*CachedAccountClient)(nil)
