package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwait_ReturnsResultWhenFasterThanContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := await(ctx, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAwait_CancellationWinsOverSlowFn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := make(chan struct{})
	v, err := await(ctx, func() (int, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	})
	require.Error(t, err)
	assert.Equal(t, 0, v)
	<-started // the goroutine still runs to completion in the background.
}

func TestAwaitErr_PropagatesFunctionError(t *testing.T) {
	ctx := context.Background()
	sentinel := assert.AnError
	err := awaitErr(ctx, func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
