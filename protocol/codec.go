package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope 统一消息信封：type 指明事件名，data 为原始载荷字节
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode 将载荷包入信封并序列化
func Encode(typ string, payload any) ([]byte, error) {
	if typ == "" {
		return nil, fmt.Errorf("encode: empty event type")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Data: pb})
}

// DecodeEnvelope 解出信封；载荷留待按事件类型二次解码
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("decode: missing event type")
	}
	return e, nil
}

// DecodePayload 将信封内载荷解码为具体事件结构
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("decode: empty payload for %q", env.Type)
	}
	err := json.Unmarshal(env.Data, &out)
	return out, err
}
