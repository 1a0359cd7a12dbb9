package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/render-be/internal/domain"
)

func testMessage(jobID string) domain.DispatchMessage {
	return domain.DispatchMessage{
		JobID:   jobID,
		JobType: domain.JobTypeStudio,
		InputRef: domain.ArtifactRef{
			Bucket: "render-artifacts",
			Key:    "inputs/" + jobID + ".glb",
		},
		Bucket:      "render-artifacts",
		SubmittedAt: time.Now().UTC(),
	}
}

func TestMemoryQueue_EnqueueReceiveAcknowledge(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testMessage("job-1")))

	d, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "job-1", d.Message.JobID)
	assert.NotEmpty(t, d.Token)

	require.NoError(t, q.Acknowledge(ctx, d.Token))
	assert.Zero(t, q.Len())
}

func TestMemoryQueue_ReceiveTimesOutEmpty(t *testing.T) {
	q := NewMemoryQueue(time.Minute)

	d, err := q.Receive(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestMemoryQueue_InvisibleWhileInFlight(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testMessage("job-1")))

	first, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.Receive(ctx, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, second, "in-flight message must not be delivered twice inside the window")
}

func TestMemoryQueue_RedeliveredAfterVisibilityWindow(t *testing.T) {
	q := NewMemoryQueue(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testMessage("job-1")))

	first, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	// No acknowledge; the message must come back.
	second, err := q.Receive(ctx, 200*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "job-1", second.Message.JobID)
	assert.NotEqual(t, first.Token, second.Token, "redelivery carries a fresh token")
}

func TestMemoryQueue_ExpiredTokenIsIgnored(t *testing.T) {
	q := NewMemoryQueue(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testMessage("job-1")))

	first, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.Receive(ctx, 200*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)

	// The stale token from the first delivery no longer removes anything.
	require.NoError(t, q.Acknowledge(ctx, first.Token))
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.Acknowledge(ctx, second.Token))
	assert.Zero(t, q.Len())
}

func TestMemoryQueue_FIFOForVisibleMessages(t *testing.T) {
	q := NewMemoryQueue(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testMessage("job-1")))
	require.NoError(t, q.Enqueue(ctx, testMessage("job-2")))

	first, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "job-1", first.Message.JobID)

	second, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "job-2", second.Message.JobID)
}
