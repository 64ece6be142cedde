package key

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompositePasswordOnly(t *testing.T) {
	want := sha256.Sum256([]byte("this"))
	wantFinal := sha256.Sum256(want[:])

	out, err := Composite(context.Background(), []Component{Password{Text: "this"}}, nil)
	require.NoError(t, err)
	require.Equal(t, wantFinal[:], out) // composite hashes the password's sha256 again
	require.Len(t, out, 32)
}

func TestCompositeDeterministic(t *testing.T) {
	components := []Component{Password{Text: "hunter2"}, Raw{Bytes: make([]byte, 32)}}
	out1, err := Composite(context.Background(), components, nil)
	require.NoError(t, err)
	out2, err := Composite(context.Background(), components, nil)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestCompositeRequiresAtLeastOneComponent(t *testing.T) {
	_, err := Composite(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestCompositeWithChallengeResponse(t *testing.T) {
	challenge := []byte("master seed bytes")
	cr := ChallengeResponse{
		Respond: func(ctx context.Context, ch []byte) ([]byte, error) {
			require.Equal(t, challenge, ch)
			return []byte("hardware response"), nil
		},
	}
	out, err := Composite(context.Background(), []Component{Password{Text: "pw"}, cr}, challenge)
	require.NoError(t, err)
	require.Len(t, out, 32)
}
