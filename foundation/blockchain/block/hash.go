package block

import (
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// HashStrategy constructs the digest used to derive block hashes.
type HashStrategy func() hash.Hash

// Set of supported hash strategies. Both produce a 64 byte digest.
var (
	SHA512    HashStrategy = sha512.New
	Keccak512 HashStrategy = sha3.NewLegacyKeccak512
)

// StrategyByName returns the hash strategy registered under the name.
func StrategyByName(name string) (HashStrategy, error) {
	switch strings.ToLower(name) {
	case "sha512":
		return SHA512, nil
	case "keccak512":
		return Keccak512, nil
	}

	return nil, fmt.Errorf("%w: unknown hash strategy %q", ErrInvalidParameter, name)
}

// DeriveHash returns the hash for the specified block fields. The same
// fields always produce the same hash.
func DeriveHash(strategy HashStrategy, data []byte, prevHash []byte, nonce uint32, timeStamp time.Time) []byte {
	p := newPreimage(data, prevHash, nonce, timeStamp)

	h := strategy()
	h.Write(p.buf)
	return h.Sum(nil)
}

// DeriveHash returns the hash for the block's current fields.
func (b *Block) DeriveHash() []byte {
	return DeriveHash(b.hashStrategy(), b.Data, b.PrevHash, b.Nonce, b.TimeStamp)
}

// =============================================================================

// preimage is the byte layout that gets hashed: the payload, the previous
// hash, the nonce as 4 little endian bytes, then the timestamp string with
// its length as an unsigned varint. The nonce can be rewritten in place.
type preimage struct {
	buf     []byte
	nonceAt int
}

func newPreimage(data []byte, prevHash []byte, nonce uint32, timeStamp time.Time) preimage {
	ts := timeStamp.UTC().Format(time.RFC3339Nano)

	buf := make([]byte, 0, len(data)+len(prevHash)+4+binary.MaxVarintLen64+len(ts))
	buf = append(buf, data...)
	buf = append(buf, prevHash...)

	nonceAt := len(buf)
	buf = binary.LittleEndian.AppendUint32(buf, nonce)

	buf = binary.AppendUvarint(buf, uint64(len(ts)))
	buf = append(buf, ts...)

	return preimage{
		buf:     buf,
		nonceAt: nonceAt,
	}
}

// clone returns a preimage that doesn't share memory with p.
func (p preimage) clone() preimage {
	return preimage{
		buf:     append([]byte(nil), p.buf...),
		nonceAt: p.nonceAt,
	}
}

// setNonce overwrites the nonce bytes.
func (p preimage) setNonce(nonce uint32) {
	binary.LittleEndian.PutUint32(p.buf[p.nonceAt:], nonce)
}
