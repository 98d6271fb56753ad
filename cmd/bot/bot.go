package bot

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/dex/curve"
	"github.com/michaelpento.lv/arbscan/dex/uniswap"
	"github.com/michaelpento.lv/arbscan/flashloan"
	"github.com/michaelpento.lv/arbscan/gas"
	"github.com/michaelpento.lv/arbscan/reporter"
	"github.com/michaelpento.lv/arbscan/scanner"
	"github.com/michaelpento.lv/arbscan/server"
	"github.com/michaelpento.lv/arbscan/store"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"github.com/michaelpento.lv/arbscan/utils/monitor"
)

const metricsNamespace = "arbscan"

// Bot wires the scanner to a live node
type Bot struct {
	cfg      *config.Config
	client   *ethclient.Client
	scanner  *scanner.Scanner
	sink     store.Sink
	server   *server.Server
	registry *prometheus.Registry
	logger   *zap.Logger
}

// New connects to the node, snapshots the gas price and builds the scanner.
// Transport failures are reported as gas.ErrTransportUnavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	client, err := ethclient.DialContext(ctx, cfg.Network.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to node: %v", gas.ErrTransportUnavailable, err)
	}

	b, err := newBot(ctx, cfg, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return b, nil
}

func newBot(ctx context.Context, cfg *config.Config, client *ethclient.Client, logger *zap.Logger) (*Bot, error) {
	if err := checkChainID(ctx, client, cfg.Network.ChainID); err != nil {
		return nil, err
	}

	limiter := dex.NewLimiter(cfg.RPCRateLimit.RequestsPerSecond, cfg.RPCRateLimit.BurstSize)

	router, err := uniswap.NewV2Router(client, common.HexToAddress(cfg.Contracts.V2Router), limiter)
	if err != nil {
		return nil, err
	}
	quoter, err := uniswap.NewV3Quoter(client, common.HexToAddress(cfg.Contracts.V3Quoter), limiter)
	if err != nil {
		return nil, err
	}
	pool, err := curve.NewStablePool(client, common.HexToAddress(cfg.Contracts.StablePool), cfg.StableIndices(), limiter)
	if err != nil {
		return nil, err
	}

	units := gas.Units{
		ConstantProduct: cfg.GasUnits.ConstantProduct,
		Concentrated:    cfg.GasUnits.Concentrated,
		StableSwap:      cfg.GasUnits.StableSwap,
	}
	estimator, err := gas.NewEstimator(ctx, client, cfg.DefaultGasPrice(), units, logger)
	if err != nil {
		return nil, err
	}

	fees, err := flashloan.NewFeeModel(cfg.FlashLoan.Provider, cfg.FlashLoan.FeeBps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigInvalid, err)
	}

	sizes, err := cfg.Sizes()
	if err != nil {
		return nil, err
	}

	registry := metrics.NewRegistry()
	scannerMetrics := metrics.NewScannerMetrics(registry, metricsNamespace)
	gasPrice, _ := new(big.Float).SetInt(estimator.GasPrice()).Float64()
	scannerMetrics.GasPrice.Set(gasPrice)

	tokens := cfg.TokenSet()
	routes := arbitrage.DefineRoutes(tokens, cfg.V3FeeTier)
	rep := reporter.NewReporter(os.Stdout, cfg.Report.TopN, tokens.Base.Symbol, tokens.Base.Decimals, logger)

	sink, err := store.Open(cfg.Output.Driver, cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result sink: %w", err)
	}

	scan, err := scanner.New(scanner.Params{
		Evaluator: arbitrage.NewDetector(dex.Quoters{
			Path:         router,
			Concentrated: quoter,
			Stable:       pool,
		}, logger),
		Gas:          estimator,
		Fees:         fees,
		Sink:         sink,
		Reporter:     rep,
		Metrics:      scannerMetrics,
		Routes:       routes,
		Sizes:        sizes,
		PollInterval: cfg.PollInterval(),
	}, logger)
	if err != nil {
		sink.Close()
		return nil, err
	}

	b := &Bot{
		cfg:      cfg,
		client:   client,
		scanner:  scan,
		sink:     sink,
		registry: registry,
		logger:   logger,
	}
	if cfg.Server.Enabled {
		b.server = server.New(cfg.Server.ListenAddr, rep, registry, logger)
	}

	logger.Info("Scanner ready",
		zap.Int("routes", len(routes)),
		zap.Int("sizes", len(sizes)),
		zap.String("v2Router", router.GetRouterAddress().Hex()),
		zap.String("stablePool", pool.Address().Hex()),
		zap.String("flashLoan", fees.String()),
		zap.String("gasPriceWei", estimator.GasPrice().String()),
		zap.String("output", cfg.Output.Path))

	return b, nil
}

func checkChainID(ctx context.Context, client *ethclient.Client, want uint64) error {
	if want == 0 {
		return nil
	}
	got, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get chain id: %v", gas.ErrTransportUnavailable, err)
	}
	if !got.IsUint64() || got.Uint64() != want {
		return fmt.Errorf("%w: endpoint is on chain %s, config expects %d", config.ErrConfigInvalid, got, want)
	}
	return nil
}

// Run polls until ctx is cancelled or a fatal error occurs
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting scanner...", zap.Duration("pollInterval", b.cfg.PollInterval()))

	node := monitor.NewNodeMonitor(ctx, b.client, b.cfg.PollInterval(), b.registry, metricsNamespace, b.logger)
	defer node.Cleanup()

	if b.server != nil {
		b.server.Health(node)
		b.server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.server.Shutdown(shutdownCtx); err != nil {
				b.logger.Warn("Status server shutdown", zap.Error(err))
			}
		}()
	}

	return b.scanner.Run(ctx)
}

// RunOnce performs a single cycle
func (b *Bot) RunOnce(ctx context.Context) error {
	_, err := b.scanner.RunCycle(ctx)
	return err
}

// Stop releases the sink and the node connection
func (b *Bot) Stop() error {
	b.logger.Info("Stopping scanner...")
	err := b.sink.Close()
	b.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close result sink: %w", err)
	}
	return nil
}
