package block

import (
	"bytes"
	"fmt"
	"iter"
)

// IsValid recomputes the hash from the block's current fields and compares
// it to the hash that sealed the block. An unsealed block is never valid.
func (b *Block) IsValid() bool {
	if b == nil || b.hash == nil {
		return false
	}

	return bytes.Equal(b.hash, b.DeriveHash())
}

// IsSuccessorOf checks the block directly follows prevBlock: prevBlock must be
// valid itself and its hash must be the block's previous hash.
func (b *Block) IsSuccessorOf(prevBlock *Block) (bool, error) {
	if b == nil {
		return false, fmt.Errorf("%w: block is nil", ErrInvalidParameter)
	}

	if prevBlock == nil {
		return false, fmt.Errorf("%w: previous block is nil", ErrInvalidParameter)
	}

	return prevBlock.IsValid() && bytes.Equal(b.PrevHash, prevBlock.hash), nil
}

// ValidateChain walks every adjacent pair of blocks and reports whether each
// successor is valid and follows its predecessor. Chains of zero or one
// block have no pairs and are valid. The blocks are not modified.
func ValidateChain(blocks iter.Seq[*Block]) bool {
	return VerifyChain(blocks) == nil
}

// VerifyChain performs the same walk as ValidateChain but describes the
// first broken pair. The returned error wraps ErrChainInvalid.
func VerifyChain(blocks iter.Seq[*Block]) error {
	var (
		prevBlock *Block
		index     int
	)

	for block := range blocks {
		if index > 0 {
			if err := verifyPair(index, prevBlock, block); err != nil {
				return err
			}
		}

		prevBlock = block
		index++
	}

	return nil
}

// verifyPair checks block at index against the block before it.
func verifyPair(index int, prevBlock *Block, block *Block) error {
	if prevBlock == nil || block == nil {
		return fmt.Errorf("%w: blk[%d]: missing block in pair", ErrChainInvalid, index)
	}

	if !block.IsValid() {
		return fmt.Errorf("%w: blk[%d]: hash doesn't match block contents", ErrChainInvalid, index)
	}

	if !prevBlock.IsValid() {
		return fmt.Errorf("%w: blk[%d]: hash doesn't match block contents", ErrChainInvalid, index-1)
	}

	if ok, _ := block.IsSuccessorOf(prevBlock); !ok {
		return fmt.Errorf("%w: blk[%d]: previous hash doesn't match, got %s, exp %s", ErrChainInvalid, index, Hex(block.PrevHash), Hex(prevBlock.hash))
	}

	return nil
}
