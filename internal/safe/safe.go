// Package safe implements the per-database memory-protection keystream
// that keeps protected string values encrypted in RAM between accesses.
package safe

import (
	"crypto/rand"

	streamcipher "github.com/kdbxkit/kdbx/internal/crypto/cipher"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// StringRef identifies the string field a Safe record belongs to,
// without depending on the object model package (which depends on this
// one): an owning entry's UUID plus the field key. History items get
// their own StringRef with HistoryIndex set.
type StringRef struct {
	EntryUUID    kdbxtypes.UUID
	HistoryIndex int // -1 for the current entry, >=0 for a history item
	Field        string
}

type record struct {
	ref    StringRef
	offset uint64
	length int
}

// Safe tracks ciphertext offsets for protected strings and owns the
// ChaCha20 keystream cipher they were encrypted with. The zero value is
// not usable; construct with New.
type Safe struct {
	stream  streamcipher.StreamCipher
	records []record
	offset  uint64
}

// keySize is the safe's own random key length, distinct from the
// database's inner-stream key.
const keySize = 64

// New creates a Safe with a fresh random 64-byte key.
func New() (*Safe, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, kdbxtypes.ErrInvariant.WithCause(err)
	}
	return newWithKey(key)
}

func newWithKey(key []byte) (*Safe, error) {
	// The safe's keystream always uses ChaCha20; §4.6 specifies a
	// ChaCha20 keystream distinct from the inner-stream cipher selection.
	s, err := streamcipher.NewChaCha20InnerStream(key)
	if err != nil {
		return nil, kdbxtypes.ErrInvariant.WithCause(err)
	}
	return &Safe{stream: s}, nil
}

// Protect XORs plaintext with the keystream at the safe's current
// offset, appends a record describing where it landed, and returns the
// ciphertext to store in the string container. The caller is responsible
// for zeroing plaintext after this returns.
func (s *Safe) Protect(ref StringRef, plaintext []byte) ([]byte, error) {
	ct, err := s.stream.Encrypt(plaintext)
	if err != nil {
		return nil, kdbxtypes.ErrInvariant.WithCause(err)
	}
	s.records = append(s.records, record{ref: ref, offset: s.offset, length: len(plaintext)})
	s.offset += uint64(len(plaintext))
	return ct, nil
}

// Peek decrypts one stored value out of order using an independent
// dup'd cipher advanced to the record's offset, leaving the safe's own
// sequential cursor untouched.
func (s *Safe) Peek(ref StringRef, ciphertext []byte) ([]byte, error) {
	rec, ok := s.find(ref)
	if !ok {
		return nil, kdbxtypes.ErrInvariant
	}
	dup, err := s.stream.Dup(rec.offset)
	if err != nil {
		return nil, kdbxtypes.ErrInvariant.WithCause(err)
	}
	return dup.Decrypt(ciphertext)
}

// Unlock walks every record in the order it was added, fetching each
// value's current ciphertext via get, decrypting it at the record's
// offset, and handing the plaintext to set. Unlocking is atomic: set is
// only invoked once every record has decrypted successfully, so a
// decryption failure partway through leaves the safe (and the caller's
// objects) untouched.
func (s *Safe) Unlock(get func(ref StringRef) []byte, set func(ref StringRef, plain []byte)) error {
	type decoded struct {
		ref   StringRef
		plain []byte
	}
	out := make([]decoded, 0, len(s.records))

	for _, rec := range s.records {
		dup, err := s.stream.Dup(rec.offset)
		if err != nil {
			return kdbxtypes.ErrInvariant.WithCause(err)
		}
		ct := get(rec.ref)
		plain, err := dup.Decrypt(ct)
		if err != nil {
			return kdbxtypes.ErrInvariant.WithCause(err)
		}
		out = append(out, decoded{ref: rec.ref, plain: plain})
	}

	for _, d := range out {
		set(d.ref, d.plain)
	}
	s.records = nil
	return nil
}

func (s *Safe) find(ref StringRef) (record, bool) {
	for _, r := range s.records {
		if r.ref == ref {
			return r, true
		}
	}
	return record{}, false
}
