// Package block provides the block entity along with the hashing, proof of
// work and validation rules that bind blocks into a chain.
package block

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// genesisPrevHash is the sentinel previous hash every new block starts with.
// Only the first block of a chain keeps it.
var genesisPrevHash = []byte{0x00}

// =============================================================================

// Block represents a unit of data sealed into the chain.
type Block struct {
	Data      []byte    // Payload captured at creation. Never mutated by this package.
	PrevHash  []byte    // Hash of the previous block in the chain, a single zero byte for genesis.
	Nonce     uint32    // Value identified to solve the hash solution.
	TimeStamp time.Time // Time the block was created.

	hash     []byte
	strategy HashStrategy
}

// New constructs an unsealed block for the specified payload. The payload is
// copied so later changes by the caller don't affect the block.
func New(data []byte, options ...func(b *Block)) (*Block, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: data is nil", ErrInvalidParameter)
	}

	b := Block{
		Data:      bytes.Clone(data),
		PrevHash:  bytes.Clone(genesisPrevHash),
		Nonce:     0,
		TimeStamp: time.Now().UTC(),
		strategy:  SHA512,
	}

	for _, option := range options {
		option(&b)
	}

	return &b, nil
}

// WithHashStrategy is used to change the default strategy of using sha512
// when deriving the block hash.
func WithHashStrategy(strategy HashStrategy) func(b *Block) {
	return func(b *Block) {
		if strategy != nil {
			b.strategy = strategy
		}
	}
}

// Hash returns a copy of the hash that sealed the block. It returns nil when
// the block has not been mined.
func (b *Block) Hash() []byte {
	return bytes.Clone(b.hash)
}

// Sealed reports whether mining has completed for this block.
func (b *Block) Sealed() bool {
	return b.hash != nil
}

// Unseal drops the hash that sealed the block so it can be mined again.
func (b *Block) Unseal() {
	b.hash = nil
}

// DigestSize returns the number of bytes produced by the block's hash
// strategy. A difficulty can't be longer than this.
func (b *Block) DigestSize() int {
	return b.hashStrategy()().Size()
}

// String renders the block with hashes in uppercase hex.
func (b *Block) String() string {
	hash := "<unsealed>"
	if b.hash != nil {
		hash = Hex(b.hash)
	}

	return fmt.Sprintf("%s :\n %s :\n %d %s", hash, Hex(b.PrevHash), b.Nonce, b.TimeStamp.Format(time.RFC3339Nano))
}

// Hex renders the bytes as uppercase hex without a 0x prefix, the form used
// when blocks are displayed.
func Hex(v []byte) string {
	return strings.ToUpper(hexutil.Encode(v)[2:])
}

// =============================================================================

// hashStrategy returns the strategy for the block. Blocks constructed as
// literals fall back to sha512.
func (b *Block) hashStrategy() HashStrategy {
	if b.strategy == nil {
		return SHA512
	}
	return b.strategy
}
