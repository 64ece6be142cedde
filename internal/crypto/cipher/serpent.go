package cipher

import "github.com/aead/serpent"

// NewSerpentCBC builds the Serpent-256/CBC outer bulk cipher. key must be
// 32 bytes, iv 16 bytes (Serpent's block size).
func NewSerpentCBC(key, iv []byte, decrypt bool) (BulkCipher, error) {
	block, err := serpent.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return newCBCCipher(block, iv, decrypt), nil
}
