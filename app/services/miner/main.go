// This program builds a chain from a genesis block and a set of random
// payloads, checking the whole chain after every block is mined.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ardanlabs/powchain/foundation/blockchain/chain"
	"github.com/ardanlabs/powchain/foundation/logger"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Chain struct {
			Difficulty    string `conf:"default:0x0000"`
			Genesis       string `conf:"default:0x0000000000"`
			HashStrategy  string `conf:"default:sha512" validate:"oneof=sha512 keccak512"`
			Blocks        int    `conf:"default:200" validate:"gte=0"`
			PayloadSize   int    `conf:"default:255" validate:"gte=0,lte=1048576"`
			Workers       int    `conf:"default:1" validate:"gte=1,lte=256"`
			MaxIterations uint64 `conf:"default:2147483647" validate:"gte=1"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "MINER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if err := validate.Check(cfg.Chain); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	difficulty, err := hexutil.Decode(cfg.Chain.Difficulty)
	if err != nil && !errors.Is(err, hexutil.ErrEmptyString) {
		return fmt.Errorf("decoding difficulty: %w", err)
	}
	if difficulty == nil {
		difficulty = []byte{}
	}

	genesisData, err := hexutil.Decode(cfg.Chain.Genesis)
	if err != nil {
		return fmt.Errorf("decoding genesis payload: %w", err)
	}

	strategy, err := block.StrategyByName(cfg.Chain.HashStrategy)
	if err != nil {
		return err
	}

	// =========================================================================
	// Shutdown Support

	// Mining is cancelled when an interrupt or terminate signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Every event of this run carries the same trace id.
	traceID := uuid.NewString()
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", traceID)
	}

	genesis, err := block.New(genesisData, block.WithHashStrategy(strategy))
	if err != nil {
		return err
	}

	start := time.Now()

	chn, err := chain.New(ctx, chain.Config{
		Difficulty:    difficulty,
		Genesis:       genesis,
		MaxIterations: cfg.Chain.MaxIterations,
		Workers:       cfg.Chain.Workers,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}

	log.Infow("genesis", "traceid", traceID, "block", genesis.String(), "duration", time.Since(start))

	for i := range cfg.Chain.Blocks {
		payload := make([]byte, cfg.Chain.PayloadSize)
		if _, err := rand.Read(payload); err != nil {
			return fmt.Errorf("generating payload: %w", err)
		}

		b, err := block.New(payload, block.WithHashStrategy(strategy))
		if err != nil {
			return err
		}

		t := time.Now()
		if err := chn.Append(ctx, b); err != nil {
			return err
		}

		log.Infow("mined", "traceid", traceID, "number", i+1, "block", b.String(), "duration", time.Since(t))

		if err := chn.Verify(); err != nil {
			log.Infow("verify", "traceid", traceID, "status", "chain is invalid", "count", chn.Count(), "ERROR", err)
			return err
		}
		log.Infow("verify", "traceid", traceID, "status", "chain is valid", "count", chn.Count())
	}

	log.Infow("completed", "traceid", traceID, "count", chn.Count(), "duration", time.Since(start))

	return nil
}
