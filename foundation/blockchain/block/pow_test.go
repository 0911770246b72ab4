package block_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
)

func Test_Seal(t *testing.T) {
	type table struct {
		name       string
		strategy   block.HashStrategy
		difficulty []byte
		workers    int
	}

	tt := []table{
		{name: "empty", strategy: block.SHA512, difficulty: []byte{}, workers: 1},
		{name: "one-byte", strategy: block.SHA512, difficulty: []byte{0x00}, workers: 1},
		{name: "two-byte", strategy: block.SHA512, difficulty: []byte{0x00, 0x00}, workers: 4},
		{name: "non-zero", strategy: block.SHA512, difficulty: []byte{0xAB}, workers: 2},
		{name: "keccak", strategy: block.Keccak512, difficulty: []byte{0x00}, workers: 1},
	}

	t.Log("Given the need to mine blocks for a difficulty.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling difficulty %x.", testID, tst.difficulty)
			{
				f := func(t *testing.T) {
					b := newBlock(t, []byte("payload "+tst.name), block.WithHashStrategy(tst.strategy))

					hash, err := b.Seal(context.Background(), tst.difficulty, block.WithWorkers(tst.workers))
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to seal the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to seal the block.", success, testID)

					if !bytes.HasPrefix(hash, tst.difficulty) {
						t.Logf("\t%s\tTest %d:\tgot: %x", failed, testID, hash)
						t.Fatalf("\t%s\tTest %d:\tShould get a hash starting with the difficulty.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get a hash starting with the difficulty.", success, testID)

					if !bytes.Equal(hash, b.Hash()) || !b.Sealed() {
						t.Fatalf("\t%s\tTest %d:\tShould have the hash applied to the block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have the hash applied to the block.", success, testID)

					if b.Nonce == 0 {
						t.Fatalf("\t%s\tTest %d:\tShould have moved the nonce forward.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have moved the nonce forward.", success, testID)

					if !b.IsValid() {
						t.Fatalf("\t%s\tTest %d:\tShould be a valid block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be a valid block.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_SealEmptyDifficulty(t *testing.T) {
	b := newBlock(t, []byte{0, 0, 0, 0, 0})

	hash, err := b.Seal(context.Background(), []byte{})
	if err != nil {
		t.Fatalf("Should be able to seal with an empty difficulty: %s", err)
	}

	if b.Nonce != 1 {
		t.Logf("got: %d", b.Nonce)
		t.Logf("exp: %d", 1)
		t.Fatalf("Should solve on the first attempt.")
	}

	if len(hash) != b.DigestSize() {
		t.Fatalf("Should produce a real digest, got %d bytes.", len(hash))
	}

	if !b.IsValid() {
		t.Fatalf("Should be a valid block.")
	}
}

func Test_SealContinuesFromNonce(t *testing.T) {
	b := newBlock(t, []byte{1, 2, 3})
	b.Nonce = 1000

	if _, err := b.Seal(context.Background(), []byte{}); err != nil {
		t.Fatalf("Should be able to seal the block: %s", err)
	}

	if b.Nonce != 1001 {
		t.Logf("got: %d", b.Nonce)
		t.Logf("exp: %d", 1001)
		t.Fatalf("Should continue from the existing nonce.")
	}
}

func Test_SealParameters(t *testing.T) {
	type table struct {
		name       string
		block      *block.Block
		difficulty []byte
		options    []block.SealOption
		err        error
	}

	tt := []table{
		{name: "nil-block", block: nil, difficulty: []byte{}, err: block.ErrInvalidParameter},
		{name: "nil-difficulty", block: newBlock(t, []byte{1}), difficulty: nil, err: block.ErrInvalidParameter},
		{name: "above-digest", block: newBlock(t, []byte{1}), difficulty: make([]byte, 65), err: block.ErrDifficultyTooLong},
		{name: "above-digest-keccak", block: newBlock(t, []byte{1}, block.WithHashStrategy(block.Keccak512)), difficulty: make([]byte, 65), err: block.ErrDifficultyTooLong},
		{name: "at-digest", block: newBlock(t, []byte{1}), difficulty: make([]byte, 64), options: []block.SealOption{block.WithMaxIterations(10)}, err: block.ErrMiningExhausted},
		{name: "above-half-digest", block: newBlock(t, []byte{1}), difficulty: make([]byte, 33), options: []block.SealOption{block.WithMaxIterations(10)}, err: block.ErrMiningExhausted},
		{name: "exhausted-workers", block: newBlock(t, []byte{1}), difficulty: bytes.Repeat([]byte{0xFF}, 8), options: []block.SealOption{block.WithMaxIterations(1000), block.WithWorkers(3)}, err: block.ErrMiningExhausted},
		{name: "zero-iterations", block: newBlock(t, []byte{1}), difficulty: []byte{}, options: []block.SealOption{block.WithMaxIterations(0)}, err: block.ErrMiningExhausted},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			hash, err := tst.block.Seal(context.Background(), tst.difficulty, tst.options...)
			if !errors.Is(err, tst.err) {
				t.Logf("Test %s:\tgot: %v", tst.name, err)
				t.Logf("Test %s:\texp: %v", tst.name, tst.err)
				t.Fatalf("Test %s:\tShould get back the right error.", tst.name)
			}

			if hash != nil {
				t.Fatalf("Test %s:\tShould not get back a hash.", tst.name)
			}

			if tst.block != nil && (tst.block.Sealed() || tst.block.Nonce != 0) {
				t.Fatalf("Test %s:\tShould leave the block unchanged.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_SealNonceSpace(t *testing.T) {
	b := newBlock(t, []byte{1})
	b.Nonce = math.MaxUint32

	_, err := b.Seal(context.Background(), []byte{})
	if !errors.Is(err, block.ErrMiningExhausted) {
		t.Fatalf("Should not be able to move past the last nonce, got %v.", err)
	}

	b.Nonce = math.MaxUint32 - 1
	if _, err := b.Seal(context.Background(), []byte{}); err != nil {
		t.Fatalf("Should be able to use the last nonce: %s", err)
	}

	if b.Nonce != math.MaxUint32 {
		t.Fatalf("Should have used the last nonce, got %d.", b.Nonce)
	}
}

func Test_SealWorkers(t *testing.T) {
	difficulty := []byte{0x00, 0x00}

	single := newBlock(t, []byte("same block"))
	multi := newBlock(t, []byte("same block"))

	if _, err := single.Seal(context.Background(), difficulty); err != nil {
		t.Fatalf("Should be able to seal with one worker: %s", err)
	}

	for _, workers := range []int{2, 3, 8} {
		multi.Nonce = 0

		if _, err := multi.Seal(context.Background(), difficulty, block.WithWorkers(workers)); err != nil {
			t.Fatalf("Should be able to seal with %d workers: %s", workers, err)
		}

		if multi.Nonce != single.Nonce || !bytes.Equal(multi.Hash(), single.Hash()) {
			t.Logf("got: %d", multi.Nonce)
			t.Logf("exp: %d", single.Nonce)
			t.Fatalf("Should find the same nonce with %d workers.", workers)
		}
	}
}

func Test_SealCancel(t *testing.T) {
	b := newBlock(t, []byte{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Seal(ctx, bytes.Repeat([]byte{0xFF}, 8), block.WithWorkers(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Should get back the cancel error, got %v.", err)
	}

	if b.Sealed() || b.Nonce != 0 {
		t.Fatalf("Should leave the block unchanged.")
	}
}

func Test_SealEvents(t *testing.T) {
	b := newBlock(t, []byte{1})

	var events []string
	ev := func(v string, args ...any) {
		events = append(events, v)
	}

	if _, err := b.Seal(context.Background(), []byte{0x00}, block.WithEvHandler(ev)); err != nil {
		t.Fatalf("Should be able to seal the block: %s", err)
	}

	if len(events) == 0 {
		t.Fatalf("Should have received mining events.")
	}
}

func Test_SealEventsWorkers(t *testing.T) {
	if testing.Short() {
		t.Skip("hashing eight million attempts")
	}

	b := newBlock(t, []byte{1})

	// The handler is not safe for concurrent use on its own.
	var progress int
	ev := func(v string, args ...any) {
		if strings.Contains(v, "worker[") {
			progress++
		}
	}

	_, err := b.Seal(context.Background(), bytes.Repeat([]byte{0xFF}, 8),
		block.WithWorkers(4),
		block.WithMaxIterations(8_000_000),
		block.WithEvHandler(ev),
	)
	if !errors.Is(err, block.ErrMiningExhausted) {
		t.Fatalf("Should not be able to mine the block, got %v.", err)
	}

	// Four workers take two million attempts each and report every million.
	if progress != 8 {
		t.Logf("got: %d", progress)
		t.Logf("exp: %d", 8)
		t.Fatalf("Should receive every progress event from every worker.")
	}
}
