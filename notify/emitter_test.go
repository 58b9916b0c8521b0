package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/linguamate/server/cache"
	"github.com/linguamate/server/model"
	"github.com/linguamate/server/social"
	"github.com/linguamate/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

// failingPubSub rejects every publish, simulating a broker outage.
type failingPubSub struct{}

func (failingPubSub) Publish(context.Context, string, string) error {
	return errors.New("pubsub down")
}

func (failingPubSub) Subscribe(context.Context, ...string) (<-chan *cache.Message, func(), error) {
	return nil, nil, errors.New("pubsub down")
}

func TestEmit_AppendsRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	e := NewEmitter(db, ps, nop())

	e.Emit(context.Background(), model.NotificationFriend, 42, "alice sent you a friend request", 7)

	items, err := e.List(context.Background(), 42, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.NotificationFriend, items[0].Type)
	assert.Equal(t, int64(7), items[0].RelatedID)
	assert.False(t, items[0].Read)
}

func TestEmit_PublishesToSubscriber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	e := NewEmitter(db, ps, nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, unsub, err := ps.Subscribe(ctx, ChannelFor(42))
	require.NoError(t, err)
	defer unsub()

	e.Emit(context.Background(), model.NotificationFriend, 42, "hello", 7)

	select {
	case msg := <-msgs:
		var n model.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &n))
		assert.Equal(t, "hello", n.Content)
		assert.Equal(t, int64(42), n.MemberID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published notification")
	}
}

func TestList_UnreadOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	e := NewEmitter(db, ps, nop())

	e.Emit(context.Background(), model.NotificationFriend, 42, "first", 1)
	e.Emit(context.Background(), model.NotificationSystem, 42, "second", 0)

	items, err := e.List(context.Background(), 42, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, e.MarkRead(context.Background(), 42, items[0].ID))

	unread, err := e.List(context.Background(), 42, true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.NotEqual(t, items[0].ID, unread[0].ID)

	n, err := e.UnreadCount(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMarkRead_WrongOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	e := NewEmitter(db, ps, nop())

	e.Emit(context.Background(), model.NotificationFriend, 42, "mine", 1)
	items, err := e.List(context.Background(), 42, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = e.MarkRead(context.Background(), 43, items[0].ID)
	assert.ErrorIs(t, err, social.ErrNotFound)
}

func TestList_IsolatedPerMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	e := NewEmitter(db, ps, nop())

	e.Emit(context.Background(), model.NotificationFriend, 42, "for 42", 1)
	e.Emit(context.Background(), model.NotificationFriend, 43, "for 43", 1)

	items, err := e.List(context.Background(), 42, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "for 42", items[0].Content)
}

func TestEmit_PublishFailureIsLoggedNotFatal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	core, logs := observer.New(zap.WarnLevel)
	e := NewEmitter(db, failingPubSub{}, zap.New(core))

	e.Emit(context.Background(), model.NotificationSystem, 7, "maintenance tonight", 0)

	// The row persists even though live delivery failed.
	items, err := e.List(context.Background(), 7, false, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, 1, logs.FilterMessage("notification publish failed").Len(),
		"every swallowed failure leaves a warning behind")
}
