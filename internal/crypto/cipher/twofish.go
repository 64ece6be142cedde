package cipher

import "golang.org/x/crypto/twofish"

// NewTwofishCBC builds the Twofish-256/CBC outer bulk cipher. key must be
// 32 bytes, iv 16 bytes (Twofish's block size).
func NewTwofishCBC(key, iv []byte, decrypt bool) (BulkCipher, error) {
	block, err := twofish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return newCBCCipher(block, iv, decrypt), nil
}
