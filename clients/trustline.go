package clients

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sam-thetutor/streamr/types"
)

type trustline struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
	Limit   string `json:"limit,omitempty"`
}

type getTrustlinesResult struct {
	Trustlines []trustline `json:"trustlines"`
}

// HasTrustline reports whether account holds a trustline for asset. The
// native asset needs none.
func (c *SorobanRPC) HasTrustline(ctx context.Context, account, asset string) (bool, error) {
	if asset == "" || asset == "native" {
		return true, nil
	}
	var res getTrustlinesResult
	err := c.call(ctx, "getTrustlines", map[string]string{"account": account}, &res)
	if err != nil {
		return false, err
	}
	for _, tl := range res.Trustlines {
		if tl.Asset == asset {
			return true, nil
		}
	}
	return false, nil
}

type changeTrustResult struct {
	EnvelopeXDR string `json:"envelopeXdr"`
}

// ChangeTrustTransaction builds an unsigned change-trust envelope for
// account to accept asset. The caller signs and submits it like any other
// mutation.
func (c *SorobanRPC) ChangeTrustTransaction(ctx context.Context, account, asset string) (*types.Simulation, error) {
	var res changeTrustResult
	err := c.call(ctx, "buildChangeTrust", map[string]string{"account": account, "asset": asset}, &res)
	if err != nil {
		return nil, err
	}
	return &types.Simulation{
		CallID:      uuid.NewString(),
		Method:      "change_trust",
		EnvelopeXDR: res.EnvelopeXDR,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
