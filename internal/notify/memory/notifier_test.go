package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

func TestNotifierRecordsPublishes(t *testing.T) {
	t.Parallel()

	n := New()
	first := contact.JobSummary{JobID: uuid.New(), Status: contact.JobCompleted}
	second := contact.JobSummary{JobID: uuid.New(), Status: contact.JobCanceled}
	require.NoError(t, n.Publish(context.Background(), first))
	require.NoError(t, n.Publish(context.Background(), second))

	published := n.Published()
	require.Len(t, published, 2)
	assert.Equal(t, first.JobID, published[0].JobID)
	assert.Equal(t, contact.JobCanceled, published[1].Status)
}

func TestPublishedReturnsCopy(t *testing.T) {
	t.Parallel()

	n := New()
	require.NoError(t, n.Publish(context.Background(), contact.JobSummary{JobID: uuid.New()}))
	out := n.Published()
	out[0].Status = "mutated"

	again := n.Published()
	assert.NotEqual(t, "mutated", again[0].Status)
}
