package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/utils/logging"
	"go.uber.org/zap"

	"github.com/MetalBlockchain/accountlib/api"
	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/constants"
	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
	"github.com/MetalBlockchain/accountlib/state"
	"github.com/MetalBlockchain/accountlib/status"
)

var errVariantMismatch = errors.New("field does not apply to the variant")

type Service struct {
	server *Server
}

func (svc *Service) Ping(_ *http.Request, _ *struct{}, response *api.PingReply) error {
	svc.server.log.Info("API called", zap.String("service", constants.ServiceName), zap.String("method", "ping"))

	response.Success = true
	response.Version = constants.Version
	return nil
}

func (svc *Service) GetMaterial(r *http.Request, args *api.CoinArgs, reply *api.GetMaterialReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "getMaterial"),
		zap.String("coin", args.Coin),
	)

	coin, err := svc.server.coin(args.Coin, coins.Account)
	if err != nil {
		return err
	}
	m, err := svc.server.provider.Get(r.Context(), coin)
	if err != nil {
		return fmt.Errorf("couldn't get %s material: %w", coin, err)
	}
	reply.Material = *m
	return nil
}

func (svc *Service) BuildTransaction(r *http.Request, args *api.BuildTransactionArgs, reply *api.BuildTransactionReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "buildTransaction"),
		zap.String("coin", args.Coin),
		zap.String("variant", args.Variant),
	)

	b, err := svc.builder(r, args.Coin, args.Variant)
	if err != nil {
		return err
	}
	if args.Raw != "" {
		if err := b.From(args.Raw); err != nil {
			return err
		}
	}
	if err := applyArgs(b, args); err != nil {
		svc.server.log.Debug("failed to apply builder fields",
			zap.Error(err),
		)
		return err
	}

	tx, err := b.Build(r.Context())
	if err != nil {
		svc.server.log.Debug("failed to build tx",
			zap.Error(err),
		)
		return err
	}
	if err := svc.server.metrics.MarkBuilt(tx); err != nil {
		return err
	}

	reply.TxID = tx.ID()
	if reply.Tx, err = tx.ToBroadcastFormat(); err != nil {
		return err
	}
	reply.Transaction, err = tx.ToJSON()
	return err
}

func (svc *Service) DecodeTransaction(r *http.Request, args *api.RawTransactionArgs, reply *api.DecodeTransactionReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "decodeTransaction"),
		logging.UserString("raw", args.Raw),
	)

	coin, err := svc.server.coin(args.Coin, coins.Account)
	if err != nil {
		return err
	}
	f, err := txs.NewFactory(coin, svc.server.provider)
	if err != nil {
		return err
	}
	decoded, err := f.Decode(r.Context(), args.Raw)
	if err != nil {
		svc.server.log.Debug("failed to decode tx",
			zap.Error(err),
		)
		return err
	}
	reply.Transaction = decoded
	return svc.server.metrics.MarkDecoded(decoded.Args)
}

func (svc *Service) ValidateRawTransaction(r *http.Request, args *api.ValidateRawTransactionArgs, reply *api.ValidReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "validateRawTransaction"),
		zap.String("variant", args.Variant),
		logging.UserString("raw", args.Raw),
	)

	b, err := svc.builder(r, args.Coin, args.Variant)
	if err != nil {
		return err
	}
	if err := b.ValidateRawTransaction(args.Raw); err != nil {
		return err
	}
	reply.Valid = true
	return nil
}

func (svc *Service) PrebuildMultisig(_ *http.Request, args *api.PrebuildMultisigArgs, reply *api.StagedTxReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "prebuildMultisig"),
		zap.String("coin", args.Coin),
		zap.Int("numUnspents", len(args.Unspents)),
	)

	coin, err := svc.server.coin(args.Coin, coins.UTXO)
	if err != nil {
		return err
	}
	txHex, err := utxo.NewPrebuild(args.Unspents, args.Outputs, coin.Params)
	if err != nil {
		return err
	}
	return svc.stage(coin, txHex, args.Unspents, args.WalletPubs, reply)
}

func (svc *Service) SignMultisig(_ *http.Request, args *api.SignMultisigArgs, reply *api.StagedTxReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "signMultisig"),
		zap.String("coin", args.Coin),
		zap.Int("numUnspents", len(args.Unspents)),
	)

	coin, err := svc.server.coin(args.Coin, coins.UTXO)
	if err != nil {
		return err
	}
	txHex, err := utxo.Sign(args.SignParams, coin.Params)
	if err != nil {
		svc.server.log.Debug("failed to sign multisig tx",
			zap.Error(err),
		)
		return err
	}
	return svc.stage(coin, txHex, args.Unspents, args.WalletPubs, reply)
}

func (svc *Service) VerifyMultisig(_ *http.Request, args *api.MultisigArgs, reply *api.VerifyMultisigReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "verifyMultisig"),
		zap.String("coin", args.Coin),
	)

	coin, err := svc.server.coin(args.Coin, coins.UTXO)
	if err != nil {
		return err
	}
	inputs, err := utxo.VerifySignatures(args.TxHex, args.Unspents, args.WalletPubs, coin.Params)
	if err != nil {
		return err
	}
	collected := make([]int, len(inputs))
	required := make([]int, len(inputs))
	for i, in := range inputs {
		collected[i] = len(in.SignedBy)
		required[i] = in.Required
	}
	reply.Inputs = inputs
	reply.Status = status.Of(collected, required)
	return nil
}

func (svc *Service) ExplainMultisig(_ *http.Request, args *api.MultisigArgs, reply *api.ExplainMultisigReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "explainMultisig"),
		zap.String("coin", args.Coin),
	)

	coin, err := svc.server.coin(args.Coin, coins.UTXO)
	if err != nil {
		return err
	}
	reply.Explanation, err = utxo.Explain(args.TxHex, args.Unspents, args.WalletPubs, coin.Params)
	return err
}

func (svc *Service) GetStagedTx(_ *http.Request, args *api.GetStagedTxArgs, reply *api.StagedTxReply) error {
	svc.server.log.Info("API called",
		zap.String("service", constants.ServiceName),
		zap.String("method", "getStagedTx"),
		zap.Stringer("txID", args.TxID),
	)

	tx, err := svc.server.getStagedTx(args.TxID)
	if err == database.ErrNotFound {
		return fmt.Errorf("couldn't find staged tx %s", args.TxID)
	}
	if err != nil {
		return err
	}
	svc.reply(tx, reply)
	return nil
}

// builder returns an empty builder of [variant] with its material loaded.
func (svc *Service) builder(r *http.Request, coinName, variantName string) (txs.TransactionBuilder, error) {
	coin, err := svc.server.coin(coinName, coins.Account)
	if err != nil {
		return nil, err
	}
	variant, err := txs.ParseVariant(variantName)
	if err != nil {
		return nil, err
	}
	f, err := txs.NewFactory(coin, svc.server.provider)
	if err != nil {
		return nil, err
	}
	b, err := f.NewBuilder(variant)
	if err != nil {
		return nil, err
	}
	return b, b.LoadMaterial(r.Context())
}

func (svc *Service) stage(coin coins.Coin, txHex string, unspents []utxo.Unspent, pubs [3]string, reply *api.StagedTxReply) error {
	stage, err := utxo.Stage(txHex, unspents, pubs, coin.Params)
	if err != nil {
		return err
	}
	tx, err := state.NewStagedTx(coin.Name, txHex, unspents, pubs, stage, svc.server.clock.Time())
	if err != nil {
		return err
	}
	if err := svc.server.stage(tx); err != nil {
		return err
	}
	svc.server.log.Debug("staged multisig tx",
		zap.Stringer("txID", tx.ID()),
		zap.Stringer("status", tx.Status),
	)
	svc.reply(tx, reply)
	return nil
}

func (svc *Service) reply(tx *state.StagedTx, reply *api.StagedTxReply) {
	reply.TxID = tx.ID()
	reply.Coin = tx.Coin
	reply.TxHex = tx.TxHex
	reply.Status = tx.Status
	reply.Updated = tx.Updated
	_, reply.Pending = svc.server.pending.Get(tx.ID())
	if err := svc.server.pending.GetDropReason(tx.ID()); !reply.Pending && err != nil {
		reply.DropReason = err.Error()
	}
}

// applyArgs sets every field of [args] on [b]. Variant specific fields on a
// builder of another variant are rejected.
func applyArgs(b txs.TransactionBuilder, args *api.BuildTransactionArgs) error {
	if args.Sender != "" {
		if err := b.Sender(args.Sender); err != nil {
			return err
		}
	}
	if args.Nonce != nil {
		if err := b.SequenceID(*args.Nonce); err != nil {
			return err
		}
	}
	if args.Fee != nil {
		if err := b.Fee(*args.Fee); err != nil {
			return err
		}
	}
	if args.Validity != nil {
		if err := b.Validity(*args.Validity); err != nil {
			return err
		}
	}
	if args.ReferenceBlock != "" {
		b.ReferenceBlock(args.ReferenceBlock)
	}

	transfer := args.To != "" || args.Amount != ""
	batch := args.Calls != nil || args.All
	proxy := args.Owner != "" || args.ProxyType != "" || args.Delay != "" || args.Index != nil

	switch b := b.(type) {
	case *txs.TransferBuilder:
		if batch || proxy {
			return fmt.Errorf("%w: %s", errVariantMismatch, b.Variant())
		}
		if args.To != "" {
			if err := b.To(args.To); err != nil {
				return err
			}
		}
		if args.Amount != "" {
			if err := b.Amount(args.Amount); err != nil {
				return err
			}
		}
	case *txs.BatchBuilder:
		if transfer || proxy {
			return fmt.Errorf("%w: %s", errVariantMismatch, b.Variant())
		}
		if args.Calls != nil {
			if err := b.Calls(args.Calls); err != nil {
				return err
			}
		}
		if args.All {
			b.All(true)
		}
	case *txs.AddressInitializationBuilder:
		if transfer || batch {
			return fmt.Errorf("%w: %s", errVariantMismatch, b.Variant())
		}
		if args.Owner != "" {
			if err := b.Owner(args.Owner); err != nil {
				return err
			}
		}
		if args.ProxyType != "" {
			b.Type(args.ProxyType)
		}
		if args.Delay != "" {
			if err := b.Delay(args.Delay); err != nil {
				return err
			}
		}
		if args.Index != nil {
			if err := b.Index(*args.Index); err != nil {
				return err
			}
		}
	case *txs.UnnominateBuilder:
		if transfer || batch || proxy {
			return fmt.Errorf("%w: %s", errVariantMismatch, b.Variant())
		}
	}

	if args.Key != "" {
		return b.Sign(args.Key)
	}
	return nil
}
