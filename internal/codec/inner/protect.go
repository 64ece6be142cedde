package inner

import (
	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// newInnerStream resolves streamID to its keystream constructor. ArcFour
// (id 1) was never more than a legacy placeholder even in the format this
// package mirrors and has no Go implementation here; None (id 0) means the
// XML body carries protected values in plaintext, represented by a nil
// cipher.
func newInnerStream(streamID uint32, key []byte) (cipher.StreamCipher, error) {
	switch streamID {
	case kdbxtypes.InnerStreamNone:
		return nil, nil
	case kdbxtypes.InnerStreamSalsa20:
		return cipher.NewSalsa20InnerStream(key)
	case kdbxtypes.InnerStreamChaCha20:
		return cipher.NewChaCha20InnerStream(key)
	default:
		return nil, kdbxtypes.ErrFormatHeader
	}
}
