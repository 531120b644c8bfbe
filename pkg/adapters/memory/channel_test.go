package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_RoundTrip(t *testing.T) {
	a, b := NewPipe(1)
	ctx := context.Background()

	frame, err := domain.NewFrame(domain.FrameRequest, "ch", domain.CommandRequest{ID: "1", Command: "get_document_info"})
	require.NoError(t, err)
	require.NoError(t, a.Send(ctx, frame))

	got, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FrameRequest, got.Type)
	assert.Equal(t, "ch", got.Channel)
}

func TestPipe_CloseUnblocksBothEnds(t *testing.T) {
	a, b := NewPipe(0)

	errc := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		errc <- err
	}()

	require.NoError(t, a.Close())
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("receive did not unblock")
	}
	assert.ErrorIs(t, b.Send(context.Background(), domain.Frame{}), ErrClosed)
	assert.NoError(t, b.Close())
}

func TestPipe_ContextCancel(t *testing.T) {
	a, _ := NewPipe(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, a.Send(ctx, domain.Frame{}), context.DeadlineExceeded)
}
