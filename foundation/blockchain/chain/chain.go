// Package chain maintains an append-only sequence of blocks where every block
// is linked to the one before it and sealed by proof of work.
package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/memory"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and storing blocks.
type EventHandler func(v string, args ...any)

// Storage interface represents the behavior required to be implemented by any
// package providing support for holding the blocks of the chain.
type Storage interface {
	Write(b *block.Block) error
	GetBlock(num uint64) (*block.Block, error)
	Count() int
	Blocks() iter.Seq[*block.Block]
}

// =============================================================================

// Config represents the configuration required to start a chain. The
// EvHandler is never called concurrently.
type Config struct {
	Difficulty    []byte
	Genesis       *block.Block
	Storage       Storage
	MaxIterations uint64
	Workers       int
	EvHandler     EventHandler
}

// Chain manages the ordered set of blocks. A chain has a single writer.
// Blocks handed to Append belong to the chain and must not be modified.
type Chain struct {
	difficulty  []byte
	storage     Storage
	sealOptions []block.SealOption
	evHandler   EventHandler
}

// New constructs a chain, mining the genesis block with the configured
// difficulty. The genesis block keeps the previous hash it was created with.
func New(ctx context.Context, cfg Config) (*Chain, error) {
	if cfg.Difficulty == nil {
		return nil, fmt.Errorf("%w: difficulty is nil", block.ErrInvalidParameter)
	}

	if cfg.Genesis == nil {
		return nil, fmt.Errorf("%w: genesis block is nil", block.ErrInvalidParameter)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}

	if strg.Count() != 0 {
		return nil, errors.New("storage already holds blocks")
	}

	sealOptions := []block.SealOption{
		block.WithEvHandler(ev),
		block.WithWorkers(cfg.Workers),
	}
	if cfg.MaxIterations > 0 {
		sealOptions = append(sealOptions, block.WithMaxIterations(cfg.MaxIterations))
	}

	c := Chain{
		difficulty:  bytes.Clone(cfg.Difficulty),
		storage:     strg,
		sealOptions: sealOptions,
		evHandler:   ev,
	}

	ev("chain: New: MINING: genesis: difficulty[%s]", hexutil.Encode(c.difficulty))

	if _, err := cfg.Genesis.Seal(ctx, c.difficulty, c.sealOptions...); err != nil {
		return nil, fmt.Errorf("mining genesis block: %w", err)
	}

	if err := c.storage.Write(cfg.Genesis); err != nil {
		return nil, fmt.Errorf("storing genesis block: %w", err)
	}

	return &c, nil
}

// Append links the block to the latest block in the chain, mines it, and
// adds it to the end of the chain. Only unsealed blocks are accepted. If
// mining or storing fails the block is not added and is left as it was.
func (c *Chain) Append(ctx context.Context, b *block.Block) error {
	if b == nil {
		return fmt.Errorf("%w: block is nil", block.ErrInvalidParameter)
	}

	if b.Sealed() {
		return fmt.Errorf("%w: block is already sealed", block.ErrInvalidParameter)
	}

	latest, err := c.LatestBlock()
	if err != nil {
		return err
	}

	num := c.storage.Count()
	c.evHandler("chain: Append: blk[%d]: link to prevBlk[%s]", num, hexutil.Encode(latest.Hash()))

	prevHash, nonce := b.PrevHash, b.Nonce
	b.PrevHash = latest.Hash()

	if _, err := b.Seal(ctx, c.difficulty, c.sealOptions...); err != nil {
		b.PrevHash = prevHash
		return fmt.Errorf("mining blk[%d]: %w", num, err)
	}

	if err := c.storage.Write(b); err != nil {
		b.Unseal()
		b.PrevHash, b.Nonce = prevHash, nonce
		return fmt.Errorf("storing blk[%d]: %w", num, err)
	}

	c.evHandler("chain: Append: blk[%d]: stored: hash[%s]", num, hexutil.Encode(b.Hash()))

	return nil
}

// Difficulty returns a copy of the difficulty every block is mined with.
func (c *Chain) Difficulty() []byte {
	return bytes.Clone(c.difficulty)
}

// Count returns the number of blocks in the chain, genesis included.
func (c *Chain) Count() int {
	return c.storage.Count()
}

// Block returns the block at the specified position. Genesis is at 0.
func (c *Chain) Block(index int) (*block.Block, error) {
	if index < 0 {
		return nil, fmt.Errorf("block index %d is out of range", index)
	}

	return c.storage.GetBlock(uint64(index))
}

// LatestBlock returns the block at the end of the chain.
func (c *Chain) LatestBlock() (*block.Block, error) {
	return c.Block(c.storage.Count() - 1)
}

// All returns a sequence of the blocks in insertion order. The sequence can
// be walked any number of times.
func (c *Chain) All() iter.Seq[*block.Block] {
	return c.storage.Blocks()
}

// IsValid reports whether every block follows the block before it.
func (c *Chain) IsValid() bool {
	return block.ValidateChain(c.All())
}

// Verify is IsValid with a description of the first broken pair.
func (c *Chain) Verify() error {
	return block.VerifyChain(c.All())
}
