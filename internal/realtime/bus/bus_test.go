package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/leancanvas-backend/internal/realtime"
)

func TestMemoryBusFansOut(t *testing.T) {
	b := NewMemoryBus()
	var got []realtime.Event
	require.NoError(t, b.StartForwarder(context.Background(), func(evt realtime.Event) { got = append(got, evt) }))
	require.NoError(t, b.StartForwarder(context.Background(), func(evt realtime.Event) { got = append(got, evt) }))

	evt := realtime.Event{Type: realtime.EventVersionCreated, ProjectID: 7, Version: 2, At: time.Now()}
	require.NoError(t, b.Publish(context.Background(), evt))
	require.Len(t, got, 2)
	require.Equal(t, int64(7), got[0].ProjectID)

	require.NoError(t, b.Close())
	require.NoError(t, b.Publish(context.Background(), evt))
	require.Len(t, got, 2)
}

func TestNoopBus(t *testing.T) {
	b := NewNoopBus()
	require.NoError(t, b.Publish(context.Background(), realtime.Event{}))
	require.NoError(t, b.StartForwarder(context.Background(), nil))
	require.NoError(t, b.Close())
}
