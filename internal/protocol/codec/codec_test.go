package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/scythe-bidder/internal/protocol"
)

func TestEncodeDecode_Binary(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgBidResult, protocol.BidResultPayload{
		PlayerID:   "p1",
		PlayerName: "Ann",
		Faction:    "Rusviet",
		Mat:        "Engineering",
		Amount:     7,
	})

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgBidResult, decoded.Type)

	payload, err := ParsePayload[protocol.BidResultPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "Rusviet", payload.Faction)
	assert.Equal(t, "Engineering", payload.Mat)
	assert.Equal(t, 7, payload.Amount)
	assert.Empty(t, payload.DisplacedID)
}

func TestEncodeDecode_NoPayload(t *testing.T) {
	t.Parallel()

	data, err := Encode(MustNewMessage(protocol.MsgGetState, nil))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgGetState, decoded.Type)
	assert.Empty(t, decoded.Payload)
}

func TestDecode_FractionalBidSurvives(t *testing.T) {
	t.Parallel()

	data, err := Encode(MustNewMessage(protocol.MsgBid, protocol.BidPayload{Faction: "Crimea", Amount: 1.5}))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	payload, err := ParsePayload[protocol.BidPayload](decoded)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, payload.Amount, 0)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	noType, err := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"payload": structpb.NewNumberValue(1),
	}})
	require.NoError(t, err)
	_, err = Decode(noType)
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestEncode_InvalidPayload(t *testing.T) {
	t.Parallel()

	_, err := Encode(&protocol.Message{Type: protocol.MsgPing, Payload: json.RawMessage("{broken")})
	assert.Error(t, err)
}

func TestEncodeDecode_JSON(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: "123456"})
	data, err := EncodeJSON(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join_room","payload":{"room_code":"123456"}}`, string(data))

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	payload, err := ParsePayload[protocol.JoinRoomPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "123456", payload.RoomCode)

	_, err = DecodeJSON([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)
	_, err = DecodeJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeNotYourTurn)
	assert.Equal(t, protocol.MsgError, msg.Type)
	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeNotYourTurn], payload.Message)

	msg = NewErrorMessageWithText(protocol.ErrCodeBidTooLow, "bid at least 3")
	payload, err = ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "bid at least 3", payload.Message)
}

func TestMustNewMessage_PanicsOnUnencodable(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNewMessage(protocol.MsgPing, make(chan int))
	})
}
