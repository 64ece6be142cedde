package kdbx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
	"github.com/kdbxkit/kdbx/pkg/model"
)

func testKey(password string) kdbxtypes.OpenOptions {
	return kdbxtypes.OpenOptions{
		Key:           kdbxtypes.KeyMaterial{Password: password, HasPassword: true},
		NoParallelKDF: true,
	}
}

func cheapArgon2Params() *format.VariantMap {
	m := format.NewVariantMap()
	m.SetBytes("$UUID", kdbxtypes.KDFArgon2id.Bytes())
	m.SetBytes("S", make([]byte, 16))
	m.SetUint32("P", 1)
	m.SetUint64("M", 8*1024)
	m.SetUint64("I", 1)
	m.SetUint32("V", 0x13)
	return m
}

func buildDatabase(version kdbxtypes.FileVersion) *model.Database {
	db := model.New()
	db.Version = version
	db.Meta.DatabaseName = "example vault"
	if version.Major >= 4 {
		db.KDFParameters = cheapArgon2Params()
	}

	e := model.NewEntry(db)
	e.SetString(model.FieldTitle, "example.com", false)
	e.SetString(model.FieldUserName, "alice", false)
	e.SetString(model.FieldPassword, "hunter2", true)
	db.Root.AddEntry(e)
	return db
}

func TestOpenBytesSaveBytesRoundTripV4(t *testing.T) {
	db := buildDatabase(kdbxtypes.Version4_1)

	data, err := SaveBytes(context.Background(), db, kdbxtypes.SaveOptions{}, testKey("correct horse"))
	require.NoError(t, err)

	loaded, warnings, err := OpenBytes(context.Background(), data, testKey("correct horse"))
	require.NoError(t, err)
	require.True(t, warnings.Empty())
	require.Equal(t, "example vault", loaded.Meta.DatabaseName)

	require.NoError(t, loaded.Unlock())
	require.Len(t, loaded.Root.Entries, 1)
	entry := loaded.Root.Entries[0]
	require.Equal(t, "example.com", entry.Title())
	require.Equal(t, "alice", entry.UserName())
	require.Equal(t, "hunter2", entry.Password())
}

func TestOpenBytesSaveBytesRoundTripV3(t *testing.T) {
	db := buildDatabase(kdbxtypes.Version3_1)

	data, err := SaveBytes(context.Background(), db, kdbxtypes.SaveOptions{}, testKey("hunter2"))
	require.NoError(t, err)

	loaded, _, err := OpenBytes(context.Background(), data, testKey("hunter2"))
	require.NoError(t, err)
	require.NoError(t, loaded.Unlock())
	require.Equal(t, "example.com", loaded.Root.Entries[0].Title())
}

func TestOpenBytesWrongPasswordFails(t *testing.T) {
	db := buildDatabase(kdbxtypes.Version4_1)
	data, err := SaveBytes(context.Background(), db, kdbxtypes.SaveOptions{}, testKey("right password"))
	require.NoError(t, err)

	_, _, err = OpenBytes(context.Background(), data, testKey("wrong password"))
	require.Error(t, err)
}

func TestOpenSaveFileRoundTrip(t *testing.T) {
	db := buildDatabase(kdbxtypes.Version4_1)
	path := filepath.Join(t.TempDir(), "vault.kdbx")

	require.NoError(t, Save(context.Background(), path, db, kdbxtypes.SaveOptions{}, testKey("correct horse")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	loaded, _, err := Open(context.Background(), path, testKey("correct horse"))
	require.NoError(t, err)
	require.NoError(t, loaded.Unlock())
	require.Equal(t, "example.com", loaded.Root.Entries[0].Title())
}

func TestSaveRejectsLockVersionBelowMinimum(t *testing.T) {
	// Argon2id KDF parameters push MinimumVersion to 4.0, so locking the
	// save at 3.1 must be rejected rather than silently downgraded.
	db := buildDatabase(kdbxtypes.Version4_1)
	opts := kdbxtypes.SaveOptions{LockVersion: kdbxtypes.Version3_1, HasLockVersion: true}

	_, err := SaveBytes(context.Background(), db, opts, testKey("pw"))
	require.Error(t, err)
	require.ErrorIs(t, err, kdbxtypes.ErrInvariant)
}
