package cipher

import (
	stdcipher "crypto/cipher"
)

// cbcCipher adapts a crypto/cipher.Block in CBC mode to BulkCipher,
// buffering input so Encrypt/Decrypt only ever hand the underlying mode
// whole blocks, and applying/verifying PKCS#7 padding in Finish. Used for
// AES, Twofish, and Serpent, all of which this library only ever runs in
// CBC mode.
type cbcCipher struct {
	block     stdcipher.Block
	blockSize int
	decrypt   bool
	iv        []byte
	buf       []byte
}

func newCBCCipher(block stdcipher.Block, iv []byte, decrypt bool) *cbcCipher {
	return &cbcCipher{
		block:     block,
		blockSize: block.BlockSize(),
		decrypt:   decrypt,
		iv:        append([]byte(nil), iv...),
	}
}

func (c *cbcCipher) BlockSize() int { return c.blockSize }

func (c *cbcCipher) Encrypt(plaintext []byte) ([]byte, error) {
	c.buf = append(c.buf, plaintext...)
	n := (len(c.buf) / c.blockSize) * c.blockSize
	if n == 0 {
		return nil, nil
	}
	chunk := c.buf[:n]
	c.buf = append([]byte(nil), c.buf[n:]...)

	out := make([]byte, n)
	mode := stdcipher.NewCBCEncrypter(c.block, c.iv)
	mode.CryptBlocks(out, chunk)
	c.iv = append([]byte(nil), out[len(out)-c.blockSize:]...)
	return out, nil
}

func (c *cbcCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	c.buf = append(c.buf, ciphertext...)
	// Hold back one full block so Finish always has at least one block
	// to validate/unpad, even when the caller streams exact multiples.
	n := ((len(c.buf) / c.blockSize) - 1) * c.blockSize
	if n <= 0 {
		return nil, nil
	}
	chunk := c.buf[:n]
	c.buf = append([]byte(nil), c.buf[n:]...)

	out := make([]byte, n)
	mode := stdcipher.NewCBCDecrypter(c.block, c.iv)
	mode.CryptBlocks(out, chunk)
	c.iv = append([]byte(nil), chunk[len(chunk)-c.blockSize:]...)
	return out, nil
}

func (c *cbcCipher) Finish() ([]byte, error) {
	if c.decrypt {
		if len(c.buf) == 0 {
			return nil, nil
		}
		if len(c.buf)%c.blockSize != 0 {
			return nil, ErrShortBlock
		}
		out := make([]byte, len(c.buf))
		mode := stdcipher.NewCBCDecrypter(c.block, c.iv)
		mode.CryptBlocks(out, c.buf)
		c.buf = nil
		return pkcs7Unpad(out, c.blockSize)
	}

	padded := pkcs7Pad(c.buf, c.blockSize)
	c.buf = nil
	out := make([]byte, len(padded))
	mode := stdcipher.NewCBCEncrypter(c.block, c.iv)
	mode.CryptBlocks(out, padded)
	return out, nil
}
