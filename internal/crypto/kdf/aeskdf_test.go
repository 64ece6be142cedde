package kdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAESKDFBelowParallelThresholdMatchesSequential(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)
	composite := bytes.Repeat([]byte{0x07}, 32)

	seq := &AESKDF{Seed: seed, Rounds: 1, NoParallel: true}
	par := &AESKDF{Seed: seed, Rounds: 1, NoParallel: false}

	got1, err := seq.Transform(context.Background(), composite)
	require.NoError(t, err)
	got2, err := par.Transform(context.Background(), composite)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got1, got2))
}

func TestAESKDFManyRoundsParallelVsSequential(t *testing.T) {
	seed := bytes.Repeat([]byte{0x11}, 32)
	composite := bytes.Repeat([]byte{0x22}, 32)

	seq := &AESKDF{Seed: seed, Rounds: 100000, NoParallel: true}
	par := &AESKDF{Seed: seed, Rounds: 100000, NoParallel: false}

	got1, err := seq.Transform(context.Background(), composite)
	require.NoError(t, err)
	got2, err := par.Transform(context.Background(), composite)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got1, got2))
	require.Len(t, got1, 32)
}

func TestAESKDFRejectsWrongCompositeKeyLength(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, 32)
	k := &AESKDF{Seed: seed, Rounds: 10}
	_, err := k.Transform(context.Background(), []byte("too short"))
	require.Error(t, err)
}

func TestAESKDFCancellation(t *testing.T) {
	seed := bytes.Repeat([]byte{0x09}, 32)
	composite := bytes.Repeat([]byte{0x0A}, 32)
	k := &AESKDF{Seed: seed, Rounds: 1 << 30, NoParallel: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := k.Transform(ctx, composite)
	require.Error(t, err)
}
