// Package cmd contains the chaincli commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CHAINCLI"

// settings holds the flag values shared by every command. Flags can also be
// provided through CHAINCLI_ environment variables.
type settings struct {
	Difficulty    string `mapstructure:"difficulty" validate:"required,startswith=0x"`
	HashStrategy  string `mapstructure:"hash" validate:"oneof=sha512 keccak512"`
	Workers       int    `mapstructure:"workers" validate:"gte=1,lte=256"`
	MaxIterations uint64 `mapstructure:"max-iterations" validate:"gte=1"`
}

var rootCmd = &cobra.Command{
	Use:   "chaincli",
	Short: "Proof of work chain tooling",
}

func init() {
	rootCmd.PersistentFlags().StringP("difficulty", "d", "0x0000", "Leading hash bytes every block must match, as 0x hex.")
	rootCmd.PersistentFlags().String("hash", "sha512", "Hash strategy: sha512 or keccak512.")
	rootCmd.PersistentFlags().IntP("workers", "w", 1, "Number of goroutines searching for a nonce.")
	rootCmd.PersistentFlags().Uint64("max-iterations", block.DefaultMaxIterations, "Attempts before mining gives up.")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================

// loadSettings reads the shared flags through viper.
func loadSettings() (settings, error) {
	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return settings{}, err
	}

	return s, nil
}

// decodeHex decodes 0x prefixed hex, treating "0x" as an empty value.
func decodeHex(name string, value string) ([]byte, error) {
	v, err := hexutil.Decode(value)
	if err != nil {
		if errors.Is(err, hexutil.ErrEmptyString) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	if v == nil {
		return []byte{}, nil
	}

	return v, nil
}

// sealOptions converts the settings into mining options.
func (s settings) sealOptions() []block.SealOption {
	return []block.SealOption{
		block.WithWorkers(s.Workers),
		block.WithMaxIterations(s.MaxIterations),
	}
}
