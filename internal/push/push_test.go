package push

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/gdg-garage/groupy-loopy-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	calls    map[string]int
	payloads [][]byte
}

func (f *fakeSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[sub.Endpoint]++
	f.payloads = append(f.payloads, payload)
	if err := f.errs[sub.Endpoint]; err != nil {
		return 0, err
	}
	if status, ok := f.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

func TestDispatcher_RemovesGoneSubscriptions(t *testing.T) {
	db := testutil.NewDB(t)
	st := store.New(db)
	ctx := context.Background()

	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 1, Endpoint: "https://push/ok", P256dh: "k", Auth: "a"}))
	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 1, Endpoint: "https://push/gone", P256dh: "k", Auth: "a"}))
	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 2, Endpoint: "https://push/broken", P256dh: "k", Auth: "a"}))

	sender := &fakeSender{
		statuses: map[string]int{"https://push/gone": http.StatusGone},
		errs:     map[string]error{"https://push/broken": errors.New("connection reset")},
	}
	d := NewDispatcher(st, sender)

	res, err := d.Broadcast(ctx, Message{Title: "Trip tomorrow", Body: "See you at 8"})
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 1, Removed: 1}, res)
	assert.Equal(t, 1, sender.calls["https://push/gone"], "gone subscription must not be retried")

	remaining, err := st.PushSubscriptions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
	for _, s := range remaining {
		assert.NotEqual(t, "https://push/gone", s.Endpoint)
	}

	// The removed subscription receives nothing on the next round.
	_, err = d.Broadcast(ctx, Message{Title: "again"})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls["https://push/gone"])
}

func TestDispatcher_SendToUsers(t *testing.T) {
	db := testutil.NewDB(t)
	st := store.New(db)
	ctx := context.Background()

	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 1, Endpoint: "https://push/1"}))
	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 2, Endpoint: "https://push/2"}))

	sender := &fakeSender{}
	d := NewDispatcher(st, sender)

	res, err := d.SendToUsers(ctx, []uint{2}, Message{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 0, sender.calls["https://push/1"])
	assert.Contains(t, string(sender.payloads[0]), `"title":"hi"`)
	assert.Contains(t, string(sender.payloads[0]), `"tag"`)

	res, err = d.SendToUsers(ctx, []uint{}, Message{Title: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestUpsertPushSubscription_MovesEndpoint(t *testing.T) {
	db := testutil.NewDB(t)
	st := store.New(db)
	ctx := context.Background()

	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 1, Endpoint: "https://push/x", Auth: "old"}))
	require.NoError(t, st.UpsertPushSubscription(ctx, &models.PushSubscription{UserID: 2, Endpoint: "https://push/x", Auth: "new"}))

	subs, err := st.PushSubscriptions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, uint(2), subs[0].UserID)
	assert.Equal(t, "new", subs[0].Auth)
}
