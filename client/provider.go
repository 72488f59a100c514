package client

import (
	"context"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

var _ material.Provider = (*Provider)(nil)

// Provider fetches chain material from another accountlib server.
type Provider struct {
	client Client
}

func NewProvider(uri string) *Provider {
	return &Provider{client: New(uri)}
}

func (p *Provider) Get(ctx context.Context, coin coins.Coin) (*material.Material, error) {
	if coin.Model != coins.Account {
		return nil, material.ErrNotAccountChain
	}
	return p.client.GetMaterial(ctx, coin.Name)
}
