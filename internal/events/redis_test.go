package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cg505/ocflib/internal/account"
)

func newRedisPublisher(t *testing.T) (*RedisPublisher, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisPublisher(client), client
}

func TestRedisPublisher(t *testing.T) {
	pub, client := newRedisPublisher(t)
	ctx := context.Background()

	req := account.NewAccountRequest{Username: "carol", Email: "carol@berkeley.edu"}
	require.NoError(t, pub.Publish(ctx, AccountSubmitted{
		Request: req,
		Reasons: []string{"username contains the letters 'ocf'"},
	}))
	require.NoError(t, pub.Publish(ctx, AccountRejected{
		Request: req,
		Reason:  "staff declined the request",
	}))

	msgs, err := client.XRange(ctx, StreamKey, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "account_submitted", msgs[0].Values["type"])
	assert.NotEmpty(t, msgs[0].Values["created_at"])

	var submitted AccountSubmitted
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["payload"].(string)), &submitted))
	assert.Equal(t, "carol", submitted.Request.Username)
	assert.Equal(t, []string{"username contains the letters 'ocf'"}, submitted.Reasons)

	assert.Equal(t, "account_rejected", msgs[1].Values["type"])
	var rejected AccountRejected
	require.NoError(t, json.Unmarshal([]byte(msgs[1].Values["payload"].(string)), &rejected))
	assert.Equal(t, "staff declined the request", rejected.Reason)
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "account_submitted", AccountSubmitted{}.EventName())
	assert.Equal(t, "account_created", AccountCreated{}.EventName())
	assert.Equal(t, "account_approved", AccountApproved{}.EventName())
	assert.Equal(t, "account_rejected", AccountRejected{}.EventName())
}

func TestMemoryPublisherRecordsInOrder(t *testing.T) {
	pub := NewMemoryPublisher()
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, AccountApproved{}))
	require.NoError(t, pub.Publish(ctx, AccountCreated{}))

	evts := pub.Events()
	require.Len(t, evts, 2)
	assert.IsType(t, AccountApproved{}, evts[0])
	assert.IsType(t, AccountCreated{}, evts[1])
}
