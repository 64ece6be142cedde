package cipher

import "crypto/aes"

// NewAES256CBC builds the standard outer bulk cipher: AES-256 in CBC mode
// with PKCS#7 padding. key must be 32 bytes, iv 16 bytes.
func NewAES256CBC(key, iv []byte, decrypt bool) (BulkCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return newCBCCipher(block, iv, decrypt), nil
}

// NewAES128CBC builds the legacy AES-128/CBC outer cipher. key must be 16
// bytes, iv 16 bytes. The default registry flags it as legacy
// (Registry.IsLegacyCipher); neither this constructor nor the registry
// refuses it for encryption.
func NewAES128CBC(key, iv []byte, decrypt bool) (BulkCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return newCBCCipher(block, iv, decrypt), nil
}
