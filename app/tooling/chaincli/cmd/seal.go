package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/spf13/cobra"
)

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Mine a single block for a payload",
	Run:   sealRun,
}

var (
	sealData    string
	sealPrev    string
	sealTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(sealCmd)
	sealCmd.Flags().StringVar(&sealData, "data", "0x0000000000", "Block payload as 0x hex.")
	sealCmd.Flags().StringVar(&sealPrev, "prev", "0x00", "Previous block hash as 0x hex.")
	sealCmd.Flags().DurationVar(&sealTimeout, "timeout", time.Minute, "Time allowed for mining.")
}

func sealRun(cmd *cobra.Command, args []string) {
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

	data, err := decodeHex("data", sealData)
	if err != nil {
		log.Fatal(err)
	}

	prevHash, err := decodeHex("prev", sealPrev)
	if err != nil {
		log.Fatal(err)
	}

	b, err := block.New(data, block.WithHashStrategy(strategy))
	if err != nil {
		log.Fatal(err)
	}
	b.PrevHash = prevHash

	ctx, cancel := context.WithTimeout(context.Background(), sealTimeout)
	defer cancel()

	t := time.Now()
	if _, err := b.Seal(ctx, difficulty, s.sealOptions()...); err != nil {
		log.Fatal(err)
	}

	fmt.Println(b)
	fmt.Printf("mined in %v\n", time.Since(t))
}
