package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ardanlabs/powchain/foundation/blockchain/chain"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build a chain of random blocks and verify it after every block",
	Run:   demoRun,
}

var (
	demoBlocks      int
	demoPayloadSize int
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntVarP(&demoBlocks, "blocks", "n", 10, "Number of blocks to append after genesis.")
	demoCmd.Flags().IntVar(&demoPayloadSize, "payload-size", 255, "Size of each random payload in bytes.")
}

func demoRun(cmd *cobra.Command, args []string) {
	s, err := loadSettings()
	if err != nil {
		log.Fatal(err)
	}

	if err := validate.Check(s); err != nil {
		log.Fatal(err)
	}

	strategy, err := block.StrategyByName(s.HashStrategy)
	if err != nil {
		log.Fatal(err)
	}

	difficulty, err := decodeHex("difficulty", s.Difficulty)
	if err != nil {
		log.Fatal(err)
	}

	genesis, err := block.New(make([]byte, 5), block.WithHashStrategy(strategy))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	chn, err := chain.New(ctx, chain.Config{
		Difficulty:    difficulty,
		Genesis:       genesis,
		Workers:       s.Workers,
		MaxIterations: s.MaxIterations,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(genesis)

	for range demoBlocks {
		payload := make([]byte, demoPayloadSize)
		if _, err := rand.Read(payload); err != nil {
			log.Fatal(err)
		}

		b, err := block.New(payload, block.WithHashStrategy(strategy))
		if err != nil {
			log.Fatal(err)
		}

		if err := chn.Append(ctx, b); err != nil {
			log.Fatal(err)
		}
		fmt.Println(b)

		if err := chn.Verify(); err != nil {
			color.Red("Chain is invalid: %s", err)
			os.Exit(1)
		}
		color.Green("BlockChain is valid: blocks[%d]", chn.Count())
	}
}
