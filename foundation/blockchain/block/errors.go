package block

import "errors"

// ErrInvalidParameter is returned when a required argument is missing.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrDifficultyTooLong is returned when the difficulty has more bytes than
// the digest produced by the block's hash strategy.
var ErrDifficultyTooLong = errors.New("difficulty too long")

// ErrMiningExhausted is returned when the nonce search reaches its iteration
// ceiling without solving the puzzle.
var ErrMiningExhausted = errors.New("max iterations reached, mining failed")

// ErrChainInvalid is returned from VerifyChain when a pair of blocks breaks
// the chain.
var ErrChainInvalid = errors.New("chain is invalid")
