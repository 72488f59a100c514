package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/json"
	"github.com/MetalBlockchain/metalgo/utils/logging"
	"github.com/MetalBlockchain/metalgo/utils/timer/mockable"
	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/config"
	"github.com/MetalBlockchain/accountlib/chain/constants"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/client"
	"github.com/MetalBlockchain/accountlib/mempool"
	"github.com/MetalBlockchain/accountlib/state"
	"github.com/MetalBlockchain/accountlib/status"

	ourmetrics "github.com/MetalBlockchain/accountlib/metrics"
)

const retryInterval = 100 * time.Millisecond

var (
	errNotAccountChain = errors.New("coin is not an account chain")
	errNotUTXOChain    = errors.New("coin is not a utxo chain")
	errStageRegression = errors.New("staged tx already has more signatures")
)

// Server owns the staged multisig transactions and the material provider
// shared by every request.
type Server struct {
	log     logging.Logger
	config  *config.Config
	metrics ourmetrics.Metrics

	// Used to get time. Useful for faking time during tests.
	clock mockable.Clock

	provider material.Provider

	// lock guards [state]
	lock    sync.Mutex
	db      database.Database
	state   state.State
	pending mempool.Mempool[*state.StagedTx]
}

func New(
	log logging.Logger,
	db database.Database,
	cfg *config.Config,
	registerer prometheus.Registerer,
) (*Server, error) {
	log.Verbo("initializing accountlib")
	log.Info("using config", zap.Reflect("config", cfg))

	// Initialize metrics as soon as possible
	metrics, err := ourmetrics.New(registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s, err := state.New(db, cfg.StagedTxCacheSize)
	if err != nil {
		return nil, err
	}

	poolMetrics, err := mempool.NewMetrics("pending", registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending pool metrics: %w", err)
	}

	return &Server{
		log:      log,
		config:   cfg,
		metrics:  metrics,
		provider: newProvider(cfg),
		db:       db,
		state:    s,
		pending:  mempool.New[*state.StagedTx](cfg.PendingPoolSize, log, poolMetrics),
	}, nil
}

// newProvider serves the configured materials, or the materials of an
// upstream server when one is set.
func newProvider(cfg *config.Config) material.Provider {
	var provider material.Provider = material.NewStaticProvider(cfg.AllMaterials())
	if cfg.MaterialURI != "" {
		provider = material.NewRetryingProvider(
			client.NewProvider(cfg.MaterialURI),
			cfg.ProviderRetries,
			retryInterval,
		)
	}
	return material.NewCachedProvider(provider, cfg.MaterialCacheSize)
}

func (s *Server) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(s.metrics.InterceptRequest)
	server.RegisterAfterFunc(s.metrics.AfterRequest)
	service := &Service{
		server: s,
	}

	err := server.RegisterService(service, constants.ServiceName)
	return map[string]http.Handler{
		constants.Endpoint: server,
	}, err
}

func (s *Server) Shutdown(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return errors.Join(
		s.state.Close(),
		s.db.Close(),
	)
}

func (s *Server) coin(name string, model coins.Model) (coins.Coin, error) {
	if name == "" {
		name = s.config.Coin
	}
	coin, err := coins.Get(name)
	if err != nil {
		return coins.Coin{}, err
	}
	if coin.Model != model {
		if model == coins.Account {
			return coins.Coin{}, fmt.Errorf("%w: %s", errNotAccountChain, coin)
		}
		return coins.Coin{}, fmt.Errorf("%w: %s", errNotUTXOChain, coin)
	}
	return coin, nil
}

// stage persists [tx] and keeps it in the pending pool until it is fully
// signed.
func (s *Server) stage(tx *state.StagedTx) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	diff := state.NewDiff(s.state)
	previous, err := diff.GetStagedTx(tx.ID())
	switch {
	case err == nil && previous.Status > tx.Status:
		return fmt.Errorf("%w: %s is %s", errStageRegression, tx.ID(), previous.Status)
	case err != nil && err != database.ErrNotFound:
		return err
	}
	diff.PutStagedTx(tx)
	diff.Apply(s.state)
	if err := s.state.Commit(); err != nil {
		s.log.Error("couldn't commit staged tx",
			zap.Stringer("txID", tx.ID()),
			zap.Error(err),
		)
		return err
	}

	s.metrics.MarkStage(tx.Status)
	if tx.Status == status.FullySigned {
		s.pending.Remove(tx.ID())
		return nil
	}
	return s.pending.Put(tx)
}

func (s *Server) getStagedTx(txID ids.ID) (*state.StagedTx, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.state.GetStagedTx(txID)
}
