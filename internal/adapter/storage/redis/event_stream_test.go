package redis

import (
	"context"
	"testing"

	"card-exchange/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStream_Publish(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	stream := NewEventStream(client, "ccx:events", zerolog.Nop())
	ctx := context.Background()

	ev := domain.NewTransfer("0xalice", "0xbob", 7)
	require.NoError(t, stream.Publish(ctx, ev))

	entries, err := client.XRange(ctx, "ccx:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Transfer", entries[0].Values["event"])
	assert.Equal(t, "0xalice", entries[0].Values["from"])
	assert.Equal(t, "0xbob", entries[0].Values["to"])
	assert.Equal(t, "7", entries[0].Values["token_id"])
}

func TestEventStream_PublishBatchInOrder(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	stream := NewEventStream(client, "ccx:events", zerolog.Nop())
	ctx := context.Background()

	err := stream.Publish(ctx,
		domain.NewAuctionSucceeded(3, 950, "0xwinner"),
		domain.NewTransfer(domain.EscrowAddress, "0xwinner", 3),
	)
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "ccx:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AuctionSucceeded", entries[0].Values["event"])
	assert.Equal(t, "Transfer", entries[1].Values["event"])
}

func TestEventStream_PublishNoEvents(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	stream := NewEventStream(client, "ccx:events", zerolog.Nop())

	require.NoError(t, stream.Publish(context.Background()))

	n, err := client.XLen(context.Background(), "ccx:events").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventStream_PublishClientDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	stream := NewEventStream(client, "ccx:events", zerolog.Nop())
	s.Close()

	err := stream.Publish(context.Background(), domain.NewPaused("deck"))
	assert.Error(t, err)
}
