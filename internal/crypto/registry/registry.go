// Package registry is the UUID-keyed dispatch table for outer bulk
// ciphers and key derivation functions: given a cipher or KDF UUID read
// from the file header, it resolves a constructor. Ciphers and KDFs are
// registered by UUID rather than switched on inline so a caller can add a
// custom algorithm (or remove one) without touching the codec packages.
package registry

import (
	"os"
	"strings"
	"sync"

	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
	"github.com/kdbxkit/kdbx/internal/crypto/kdf"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// CipherConstructor builds a bulk cipher from the raw encryption key and
// header IV, in either encrypt or decrypt direction.
type CipherConstructor func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error)

// KDFConstructor builds a KDF from its variant-map parameters.
type KDFConstructor func(params *format.VariantMap) (kdf.KDF, error)

type cipherEntry struct {
	construct CipherConstructor
	keyLen    int
	ivLen     int
	legacy    bool
}

type kdfEntry struct {
	construct KDFConstructor
}

// Registry holds the active cipher and KDF constructor tables plus the
// warnings accumulated while populating them (double-registration,
// blacklist hits).
type Registry struct {
	mu      sync.RWMutex
	ciphers map[kdbxtypes.UUID]cipherEntry
	kdfs    map[kdbxtypes.UUID]kdfEntry
	warn    kdbxtypes.WarnReport
}

// BlacklistEnvVar names the environment variable whose comma-separated
// list of bare-hex UUIDs (no delimiters) suppresses registration of
// matching ciphers or KDFs. Matches spec's "env-configurable blacklist".
const BlacklistEnvVar = "KDBX_CRYPTO_BLACKLIST"

// NoForkEnvVar, when set to any non-empty value, forces AESKDF.NoParallel
// regardless of round count on every AES-KDF the registry constructs. The
// v3 codec builds its AES-KDF directly from OpenOptions.NoParallelKDF and
// does not read this variable.
const NoForkEnvVar = "KDBX_KDF_NO_FORK"

func blacklisted(id kdbxtypes.UUID) bool {
	list := os.Getenv(BlacklistEnvVar)
	if list == "" {
		return false
	}
	target := id.String()
	for _, entry := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(entry), target) {
			return true
		}
	}
	return false
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		ciphers: make(map[kdbxtypes.UUID]cipherEntry),
		kdfs:    make(map[kdbxtypes.UUID]kdfEntry),
	}
}

// RegisterCipher adds or replaces the constructor for id. If id is on the
// blacklist, registration is refused (fails closed) and a warning is
// recorded instead. Re-registering an id that is already present also
// warns, then overwrites.
func (r *Registry) RegisterCipher(id kdbxtypes.UUID, keyLen, ivLen int, legacy bool, construct CipherConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if blacklisted(id) {
		r.warn.Add(kdbxtypes.WarnUnknownHeader, "cipher "+id.String()+" is blacklisted; not registered", nil)
		return
	}
	if _, exists := r.ciphers[id]; exists {
		r.warn.Add(kdbxtypes.WarnUnknownHeader, "cipher "+id.String()+" registered twice; overwriting", nil)
	}
	r.ciphers[id] = cipherEntry{construct: construct, keyLen: keyLen, ivLen: ivLen, legacy: legacy}
}

// RegisterKDF adds or replaces the constructor for id, with the same
// blacklist/overwrite semantics as RegisterCipher.
func (r *Registry) RegisterKDF(id kdbxtypes.UUID, construct KDFConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if blacklisted(id) {
		r.warn.Add(kdbxtypes.WarnUnknownHeader, "kdf "+id.String()+" is blacklisted; not registered", nil)
		return
	}
	if _, exists := r.kdfs[id]; exists {
		r.warn.Add(kdbxtypes.WarnUnknownHeader, "kdf "+id.String()+" registered twice; overwriting", nil)
	}
	r.kdfs[id] = kdfEntry{construct: construct}
}

// NewCipher resolves id and constructs a bulk cipher.
func (r *Registry) NewCipher(id kdbxtypes.UUID, key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
	r.mu.RLock()
	entry, ok := r.ciphers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, kdbxtypes.ErrCryptoCipherUnsupported
	}
	if len(key) != entry.keyLen {
		return nil, kdbxtypes.ErrCryptoCipherUnsupported
	}
	if entry.ivLen > 0 && len(iv) < entry.ivLen {
		return nil, kdbxtypes.ErrCryptoCipherUnsupported
	}
	return entry.construct(key, iv, decrypt)
}

// IsLegacyCipher reports whether id is registered as read-only/legacy, so
// callers can warn when such a cipher is used to write.
func (r *Registry) IsLegacyCipher(id kdbxtypes.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ciphers[id].legacy
}

// NewKDF resolves id and constructs a KDF from its variant-map parameters.
func (r *Registry) NewKDF(id kdbxtypes.UUID, params *format.VariantMap) (kdf.KDF, error) {
	r.mu.RLock()
	entry, ok := r.kdfs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, kdbxtypes.ErrCryptoKDFUnsupported
	}
	return entry.construct(params)
}

// Warnings returns the warnings recorded while registering entries
// (blacklist hits, double registrations).
func (r *Registry) Warnings() []kdbxtypes.Warning {
	return r.warn.Items()
}
