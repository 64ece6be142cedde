// Package cipher implements the uniform incremental cipher interface used
// for the outer bulk cipher and the inner stream ciphers that protect
// string values: encrypt/decrypt accept a chunk at a time, buffering any
// partial block, and finish flushes (and for block modes, pads or strips
// padding from) whatever remains.
package cipher

import "errors"

// ErrShortBlock is returned by Finish when a block-mode cipher can't
// produce a whole final block on decrypt (the ciphertext wasn't a
// multiple of the block size).
var ErrShortBlock = errors.New("cipher: ciphertext is not a multiple of the block size")

// ErrBadPadding is returned by Finish when PKCS#7 unpadding finds an
// invalid pad, almost always meaning the decryption key was wrong.
var ErrBadPadding = errors.New("cipher: invalid pkcs7 padding")

// BulkCipher is satisfied by every outer/inner cipher this package
// constructs, whether internally block-mode (AES/Twofish/Serpent CBC) or
// stream-mode (ChaCha20, Salsa20). Callers drive it the same way
// regardless of which.
type BulkCipher interface {
	// Encrypt consumes plaintext and returns whatever ciphertext is ready
	// to emit now; a block-mode cipher holds back a partial final block
	// until Finish.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt is the mirror of Encrypt.
	Decrypt(ciphertext []byte) ([]byte, error)
	// Finish flushes any buffered bytes, applying or verifying padding
	// for block modes. It must be called exactly once, after the last
	// Encrypt/Decrypt call.
	Finish() ([]byte, error)
	// BlockSize returns the cipher's block size, or 1 for a stream
	// cipher.
	BlockSize() int
}

// pkcs7Pad appends PKCS#7 padding to buf so its length becomes a multiple
// of blockSize.
func pkcs7Pad(buf []byte, blockSize int) []byte {
	padLen := blockSize - len(buf)%blockSize
	pad := make([]byte, padLen)
	for i := range pad {
		pad[i] = byte(padLen)
	}
	return append(buf, pad...)
}

// pkcs7Unpad validates and strips PKCS#7 padding from the final decrypted
// block.
func pkcs7Unpad(buf []byte, blockSize int) ([]byte, error) {
	if len(buf) == 0 || len(buf)%blockSize != 0 {
		return nil, ErrShortBlock
	}
	padLen := int(buf[len(buf)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(buf) {
		return nil, ErrBadPadding
	}
	for _, b := range buf[len(buf)-padLen:] {
		if int(b) != padLen {
			return nil, ErrBadPadding
		}
	}
	return buf[:len(buf)-padLen], nil
}
