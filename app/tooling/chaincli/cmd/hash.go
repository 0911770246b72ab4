package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Derive the hash for a set of block fields",
	Run:   hashRun,
}

type hashInput struct {
	Data      string `json:"data" validate:"required,startswith=0x"`
	PrevHash  string `json:"prev" validate:"required,startswith=0x"`
	TimeStamp string `json:"timestamp" validate:"required"`
}

var (
	hashData      string
	hashPrevHash  string
	hashNonce     uint32
	hashTimeStamp string
)

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().StringVar(&hashData, "data", "0x", "Block payload as 0x hex.")
	hashCmd.Flags().StringVar(&hashPrevHash, "prev", "0x00", "Previous block hash as 0x hex.")
	hashCmd.Flags().Uint32Var(&hashNonce, "nonce", 0, "Block nonce.")
	hashCmd.Flags().StringVar(&hashTimeStamp, "timestamp", time.Now().UTC().Format(time.RFC3339Nano), "Block timestamp in RFC3339 format.")
}

func hashRun(cmd *cobra.Command, args []string) {
	input := hashInput{
		Data:      hashData,
		PrevHash:  hashPrevHash,
		TimeStamp: hashTimeStamp,
	}
	if err := validate.Check(input); err != nil {
		log.Fatal(err)
	}

	s, err := loadSettings()
	if err != nil {
		log.Fatal(err)
	}

	strategy, err := block.StrategyByName(s.HashStrategy)
	if err != nil {
		log.Fatal(err)
	}

	data, err := decodeHex("data", input.Data)
	if err != nil {
		log.Fatal(err)
	}

	prevHash, err := decodeHex("prev", input.PrevHash)
	if err != nil {
		log.Fatal(err)
	}

	ts, err := time.Parse(time.RFC3339Nano, input.TimeStamp)
	if err != nil {
		log.Fatal(err)
	}

	hash := block.DeriveHash(strategy, data, prevHash, hashNonce, ts)
	fmt.Println(block.Hex(hash))
}
