package client

import (
	"context"
	"fmt"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/rpc"

	"github.com/MetalBlockchain/accountlib/api"
	"github.com/MetalBlockchain/accountlib/chain/constants"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
)

var _ Client = (*client)(nil)

type Client interface {
	// Pings the server.
	Ping(ctx context.Context) (bool, error)
	GetMaterial(ctx context.Context, coin string) (*material.Material, error)

	// Builds, and signs when a key is given, an account-chain transaction.
	BuildTransaction(ctx context.Context, args *api.BuildTransactionArgs) (*api.BuildTransactionReply, error)
	DecodeTransaction(ctx context.Context, coin, raw string) (*txs.Decoded, error)
	ValidateRawTransaction(ctx context.Context, coin, variant, raw string) error

	// Creates an unsigned multisig spend and stages it.
	PrebuildMultisig(ctx context.Context, args *api.PrebuildMultisigArgs) (*api.StagedTxReply, error)
	// Runs one signing round over a staged multisig spend.
	SignMultisig(ctx context.Context, coin string, params utxo.SignParams) (*api.StagedTxReply, error)
	VerifyMultisig(ctx context.Context, args *api.MultisigArgs) (*api.VerifyMultisigReply, error)
	ExplainMultisig(ctx context.Context, args *api.MultisigArgs) (*utxo.Explanation, error)
	GetStagedTx(ctx context.Context, txID ids.ID) (*api.StagedTxReply, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(
		fmt.Sprintf("%s%s", uri, constants.Endpoint),
	)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func method(name string) string {
	return constants.ServiceName + "." + name
}

func (cli *client) Ping(ctx context.Context) (bool, error) {
	resp := new(api.PingReply)
	err := cli.req.SendRequest(ctx,
		method("ping"),
		struct{}{},
		resp,
	)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (cli *client) GetMaterial(ctx context.Context, coin string) (*material.Material, error) {
	resp := new(api.GetMaterialReply)
	err := cli.req.SendRequest(ctx,
		method("getMaterial"),
		&api.CoinArgs{Coin: coin},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return &resp.Material, nil
}

func (cli *client) BuildTransaction(ctx context.Context, args *api.BuildTransactionArgs) (*api.BuildTransactionReply, error) {
	resp := new(api.BuildTransactionReply)
	err := cli.req.SendRequest(ctx,
		method("buildTransaction"),
		args,
		resp,
	)
	return resp, err
}

func (cli *client) DecodeTransaction(ctx context.Context, coin, raw string) (*txs.Decoded, error) {
	resp := new(api.DecodeTransactionReply)
	err := cli.req.SendRequest(ctx,
		method("decodeTransaction"),
		&api.RawTransactionArgs{
			CoinArgs: api.CoinArgs{Coin: coin},
			Raw:      raw,
		},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Transaction, nil
}

func (cli *client) ValidateRawTransaction(ctx context.Context, coin, variant, raw string) error {
	return cli.req.SendRequest(ctx,
		method("validateRawTransaction"),
		&api.ValidateRawTransactionArgs{
			RawTransactionArgs: api.RawTransactionArgs{
				CoinArgs: api.CoinArgs{Coin: coin},
				Raw:      raw,
			},
			Variant: variant,
		},
		new(api.ValidReply),
	)
}

func (cli *client) PrebuildMultisig(ctx context.Context, args *api.PrebuildMultisigArgs) (*api.StagedTxReply, error) {
	resp := new(api.StagedTxReply)
	err := cli.req.SendRequest(ctx,
		method("prebuildMultisig"),
		args,
		resp,
	)
	return resp, err
}

func (cli *client) SignMultisig(ctx context.Context, coin string, params utxo.SignParams) (*api.StagedTxReply, error) {
	resp := new(api.StagedTxReply)
	err := cli.req.SendRequest(ctx,
		method("signMultisig"),
		&api.SignMultisigArgs{
			CoinArgs:   api.CoinArgs{Coin: coin},
			SignParams: params,
		},
		resp,
	)
	return resp, err
}

func (cli *client) VerifyMultisig(ctx context.Context, args *api.MultisigArgs) (*api.VerifyMultisigReply, error) {
	resp := new(api.VerifyMultisigReply)
	err := cli.req.SendRequest(ctx,
		method("verifyMultisig"),
		args,
		resp,
	)
	return resp, err
}

func (cli *client) ExplainMultisig(ctx context.Context, args *api.MultisigArgs) (*utxo.Explanation, error) {
	resp := new(api.ExplainMultisigReply)
	err := cli.req.SendRequest(ctx,
		method("explainMultisig"),
		args,
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.Explanation, nil
}

func (cli *client) GetStagedTx(ctx context.Context, txID ids.ID) (*api.StagedTxReply, error) {
	resp := new(api.StagedTxReply)
	err := cli.req.SendRequest(ctx,
		method("getStagedTx"),
		&api.GetStagedTxArgs{TxID: txID},
		resp,
	)
	return resp, err
}
