package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
)

func apply(t *testing.T, v *AuctionView, typ protocol.MessageType, payload any) {
	t.Helper()
	require.NoError(t, v.Apply(codec.MustNewMessage(typ, payload)))
}

func startedView(t *testing.T) *AuctionView {
	t.Helper()
	v := NewAuctionView()
	apply(t, v, protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: "123456",
		Edition:  "base",
		Player:   protocol.PlayerInfo{ID: "a", Name: "Ann"},
	})
	apply(t, v, protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: protocol.PlayerInfo{ID: "b", Name: "Bob", Seat: 1},
	})
	apply(t, v, protocol.MsgAuctionStart, protocol.AuctionStartPayload{State: protocol.AuctionStateDTO{
		Phase:   "in_progress",
		Edition: "base",
		Combinations: []protocol.CombinationInfo{
			{Faction: "Polania", Mat: "Industrial", CurrentBid: -1},
			{Faction: "Nordic", Mat: "Mechanical", CurrentBid: -1},
		},
		Log: []string{"Auction start!"},
	}})
	return v
}

func TestAuctionView_RoomMembership(t *testing.T) {
	t.Parallel()
	v := startedView(t)

	assert.Equal(t, "123456", v.RoomCode)
	require.Len(t, v.Players, 2)

	apply(t, v, protocol.MsgPlayerReady, protocol.PlayerReadyPayload{PlayerID: "b", Ready: true})
	assert.True(t, v.Players[1].Ready)

	apply(t, v, protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{PlayerID: "a"})
	require.Len(t, v.Players, 1)
	assert.Equal(t, "b", v.Players[0].ID)
}

func TestAuctionView_BidFlow(t *testing.T) {
	t.Parallel()
	v := startedView(t)

	apply(t, v, protocol.MsgBidTurn, protocol.BidTurnPayload{PlayerID: "b", PlayerName: "Bob"})
	assert.True(t, v.IsMyTurn("b"))
	assert.False(t, v.IsMyTurn("a"))

	minBid, ok := v.MinimumBid(" nordic ")
	require.True(t, ok)
	assert.Equal(t, 0, minBid)

	apply(t, v, protocol.MsgBidResult, protocol.BidResultPayload{
		PlayerID: "b", PlayerName: "Bob", Faction: "Nordic", Mat: "Mechanical", Amount: 4,
	})
	c, ok := v.Combination("Nordic")
	require.True(t, ok)
	assert.Equal(t, 4, c.CurrentBid)
	assert.Equal(t, "b", c.HolderID)
	assert.Equal(t, "Bob bid 4 on Nordic Mechanical", v.Log[len(v.Log)-1])

	minBid, _ = v.MinimumBid("Nordic")
	assert.Equal(t, 5, minBid)

	_, ok = v.MinimumBid("Albion")
	assert.False(t, ok)
}

func TestAuctionView_AuctionOver(t *testing.T) {
	t.Parallel()
	v := startedView(t)

	apply(t, v, protocol.MsgAuctionOver, protocol.AuctionOverPayload{
		Combinations: []protocol.CombinationInfo{
			{Faction: "Polania", Mat: "Industrial", CurrentBid: 0, HolderID: "a", HolderName: "Ann"},
			{Faction: "Nordic", Mat: "Mechanical", CurrentBid: 2, HolderID: "b", HolderName: "Bob"},
		},
		Summary: "Polania Industrial: Ann ($0), Nordic Mechanical: Bob ($2)",
	})

	assert.Equal(t, "complete", v.Phase)
	assert.Empty(t, v.CurrentTurn)

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf))
	assert.Contains(t, buf.String(), "Polania")
	assert.Contains(t, buf.String(), "Bob")
	assert.Contains(t, buf.String(), "Nordic Mechanical: Bob ($2)")
}

func TestAuctionView_ReconnectRestoresState(t *testing.T) {
	t.Parallel()
	v := NewAuctionView()

	apply(t, v, protocol.MsgReconnected, protocol.ReconnectedPayload{
		PlayerID: "a",
		RoomCode: "654321",
		AuctionState: &protocol.AuctionStateDTO{
			Phase:        "in_progress",
			Combinations: []protocol.CombinationInfo{{Faction: "Crimea", Mat: "Agricultural", CurrentBid: 1, HolderID: "b"}},
			CurrentTurn:  "a",
		},
	})

	assert.Equal(t, "654321", v.RoomCode)
	assert.Equal(t, "in_progress", v.Phase)
	assert.True(t, v.IsMyTurn("a"))
	require.Len(t, v.Combinations, 1)
}

func TestAuctionView_IgnoresUnrelated(t *testing.T) {
	t.Parallel()
	v := startedView(t)
	before := *v

	apply(t, v, protocol.MsgPong, protocol.PongPayload{ClientTimestamp: 1})
	assert.Equal(t, before.RoomCode, v.RoomCode)
	assert.Len(t, v.Combinations, 2)
}
