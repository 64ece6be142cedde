// Package kdbx is the top-level facade: it wires internal/codec/outer's
// encrypt/frame/compress layer together with internal/codec/inner's
// XML/protected-string layer and pkg/model's object tree, so a caller
// never has to touch either codec package directly.
package kdbx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdbxkit/kdbx/internal/codec/inner"
	"github.com/kdbxkit/kdbx/internal/codec/outer"
	"github.com/kdbxkit/kdbx/internal/crypto/registry"
	"github.com/kdbxkit/kdbx/internal/mmfile"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
	"github.com/kdbxkit/kdbx/pkg/model"
)

// OpenBytes runs the full read pipeline over an in-memory KDBX file: outer
// magic/header parse, key derivation, decrypt, block-unframe, decompress,
// then the inner header (v4) and XML parse into a *model.Database. The
// returned database is locked (model.Database.Lock already ran); call
// Unlock to read protected strings.
func OpenBytes(ctx context.Context, data []byte, opts kdbxtypes.OpenOptions) (*model.Database, *kdbxtypes.WarnReport, error) {
	var warnings kdbxtypes.WarnReport

	version, isLegacy, _, err := outer.ParseMagic(data)
	if err != nil {
		return nil, &warnings, err
	}
	if isLegacy {
		warnings.Add(kdbxtypes.WarnVersionUpgraded, "legacy KDBX v1 signature mapped to KDBX 3.1 semantics", nil)
	}

	reg := registry.NewDefault()
	var result *outer.LoadResult
	if version.Major >= 4 {
		result, err = outer.LoadV4(ctx, data, opts, reg)
	} else {
		result, err = outer.LoadV3(ctx, data, opts, reg)
	}
	if err != nil {
		return nil, &warnings, err
	}

	db, err := inner.Load(result.Header, result.Body)
	if err != nil {
		return nil, &warnings, err
	}

	if opts.StrictWarnings && !warnings.Empty() {
		return nil, &warnings, fmt.Errorf("kdbx: %d warning(s) escalated to errors", len(warnings.Items()))
	}
	return db, &warnings, nil
}

// Open reads the file at path and parses it with OpenBytes. The file is
// memory-mapped read-only where the platform supports it (internal/mmfile)
// rather than read fully into a heap buffer first.
func Open(ctx context.Context, path string, opts kdbxtypes.OpenOptions) (*model.Database, *kdbxtypes.WarnReport, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, nil, kdbxtypes.ErrIO.WithCause(err)
	}
	defer cleanup()
	return OpenBytes(ctx, data, opts)
}

// SaveBytes runs the full write pipeline: inner XML/header serialize, then
// outer compress/encrypt/frame, returning the resulting file bytes. The
// outer compression flag is taken from db.Compressed, the same field Open
// populates, so round-tripping a database without touching it preserves
// its on-disk compression setting.
func SaveBytes(ctx context.Context, db *model.Database, opts kdbxtypes.SaveOptions, key kdbxtypes.OpenOptions) ([]byte, error) {
	version := db.Version
	if opts.HasLockVersion {
		if opts.LockVersion.Less(db.MinimumVersion()) {
			return nil, kdbxtypes.ErrInvariant.WithCause(fmt.Errorf(
				"lock version %d.%d predates the minimum version %d.%d this database's content requires",
				opts.LockVersion.Major, opts.LockVersion.Minor,
				db.MinimumVersion().Major, db.MinimumVersion().Minor))
		}
		version = opts.LockVersion
	}

	result, err := inner.Save(db)
	if err != nil {
		return nil, err
	}

	h := &outer.Header{
		Version:          version,
		CipherID:         db.CipherID,
		Compressed:       db.Compressed,
		KDFParameters:    db.KDFParameters,
		PublicCustomData: db.PublicCustomData,
	}

	reg := registry.NewDefault()
	if version.Major >= 4 {
		return outer.SaveV4(ctx, h, result.Body, key, reg)
	}
	h.InnerStreamID = result.StreamID
	h.InnerStreamKey = result.StreamKey
	return outer.SaveV3(ctx, h, result.Body, key, reg)
}

// Save writes db to path. It serializes to a sibling temporary file and
// renames atomically on success, so a failed or interrupted save never
// partially overwrites the target.
func Save(ctx context.Context, path string, db *model.Database, opts kdbxtypes.SaveOptions, key kdbxtypes.OpenOptions) error {
	data, err := SaveBytes(ctx, db, opts, key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".kdbx-*.tmp")
	if err != nil {
		return kdbxtypes.ErrIO.WithCause(err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return kdbxtypes.ErrIO.WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return kdbxtypes.ErrIO.WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return kdbxtypes.ErrIO.WithCause(err)
	}
	return nil
}
