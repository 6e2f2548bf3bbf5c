package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/scythe-bidder/internal/protocol"
)

// 线路帧是一个 google.protobuf.Struct：
//
//	{"type": "<消息类型>", "payload": <任意 JSON 值>}
//
// 二进制帧使用 proto 编码，文本帧直接使用 JSON。
const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// ErrMissingType 帧中缺少消息类型
var ErrMissingType = errors.New("codec: frame has no message type")

// NewMessage 创建一个新消息，payload 以 JSON 保存
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := GetMessage()
	msg.Type = msgType

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 protobuf 二进制帧
func Encode(m *protocol.Message) ([]byte, error) {
	frame := GetFrame()
	defer PutFrame(frame)

	frame.Fields = map[string]*structpb.Value{
		fieldType: structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		payload := &structpb.Value{}
		if err := protojson.Unmarshal(m.Payload, payload); err != nil {
			return nil, fmt.Errorf("codec: payload is not valid JSON: %w", err)
		}
		frame.Fields[fieldPayload] = payload
	}

	return proto.Marshal(frame)
}

// Decode 从 protobuf 二进制帧解码消息
func Decode(data []byte) (*protocol.Message, error) {
	frame := GetFrame()
	defer PutFrame(frame)

	if err := proto.Unmarshal(data, frame); err != nil {
		return nil, err
	}

	typ, ok := frame.Fields[fieldType]
	if !ok || typ.GetStringValue() == "" {
		return nil, ErrMissingType
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(typ.GetStringValue())
	if payload, ok := frame.Fields[fieldPayload]; ok {
		raw, err := protojson.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}

// EncodeJSON 将消息编码为 JSON 文本帧
func EncodeJSON(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行，且 buf 归还后会被复用，必须复制
	out := make([]byte, buf.Len()-1)
	copy(out, buf.Bytes())
	return out, nil
}

// DecodeJSON 从 JSON 文本帧解码消息
func DecodeJSON(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, ErrMissingType
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
	return msg
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}
