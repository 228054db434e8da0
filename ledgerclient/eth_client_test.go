package ledgerclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDialRejectsMalformedSignerKey(t *testing.T) {
	_, err := Dial(context.Background(), "http://127.0.0.1:1", 1, "not-a-key", time.Second)
	require.Error(t, err)
}

func TestDialWithRetryAttemptsAtLeastOnce(t *testing.T) {
	// A zero retry budget must still produce a definitive outcome, never
	// a nil client with a nil error.
	client, err := DialWithRetry(context.Background(), "http://127.0.0.1:1", 1, "not-a-key",
		time.Second, 0, time.Millisecond)
	require.Error(t, err)
	require.Nil(t, client)
}
