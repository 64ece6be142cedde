package cipher

// StreamCipher extends BulkCipher with the keystream operations the Safe
// needs to decrypt protected values out of order: Keystream returns the
// next n bytes of keystream without consuming input, and Dup produces an
// independent cipher whose keystream starts at an arbitrary byte offset.
type StreamCipher interface {
	BulkCipher
	Keystream(n int) ([]byte, error)
	Dup(offset uint64) (StreamCipher, error)
}

// xorStream is the shared BulkCipher plumbing for both inner-stream
// ciphers: Encrypt and Decrypt are the same XOR operation, and Finish
// never pads since stream ciphers have no block alignment.
type xorStream struct {
	next func(n int) ([]byte, error)
}

func (s *xorStream) xor(data []byte) ([]byte, error) {
	ks, err := s.next(len(data))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ ks[i]
	}
	return out, nil
}

func (s *xorStream) Encrypt(plaintext []byte) ([]byte, error)  { return s.xor(plaintext) }
func (s *xorStream) Decrypt(ciphertext []byte) ([]byte, error) { return s.xor(ciphertext) }
func (s *xorStream) Finish() ([]byte, error)                   { return nil, nil }
func (s *xorStream) BlockSize() int                            { return 1 }
