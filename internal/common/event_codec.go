package common

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
)

func EncodeEvent(event *Event) ([]byte, error) {
	var buf bytes.Buffer

	// 使用小端字节序写入 Type（4字节）
	typeBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(typeBytes, uint32(event.Type))
	buf.Write(typeBytes)

	enc := gob.NewEncoder(&buf)

	switch event.Type {
	case TradeEventType:
		trade := event.InnerEvent.(*TradeEvent)
		if err := enc.Encode(trade); err != nil {
			return nil, err
		}
	case LiquidityEventType:
		liq := event.InnerEvent.(*LiquidityEvent)
		if err := enc.Encode(liq); err != nil {
			return nil, err
		}
	case FillEventType:
		fill := event.InnerEvent.(*FillEvent)
		if err := enc.Encode(fill); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown event type: %d", event.Type)
	}
	return buf.Bytes(), nil
}

func DecodeEvent(data []byte) (*Event, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("data too short")
	}

	eventType := EventType(binary.LittleEndian.Uint32(data[:4]))

	dec := gob.NewDecoder(bytes.NewReader(data[4:]))

	switch eventType {
	case TradeEventType:
		var innerTrade *TradeEvent
		if err := dec.Decode(&innerTrade); err != nil {
			return nil, fmt.Errorf("failed to decode trade event: %w", err)
		}
		return &Event{Type: eventType, InnerEvent: innerTrade}, nil
	case LiquidityEventType:
		var innerLiq *LiquidityEvent
		if err := dec.Decode(&innerLiq); err != nil {
			return nil, fmt.Errorf("failed to decode liquidity event: %w", err)
		}
		return &Event{Type: eventType, InnerEvent: innerLiq}, nil
	case FillEventType:
		var innerFill *FillEvent
		if err := dec.Decode(&innerFill); err != nil {
			return nil, fmt.Errorf("failed to decode fill event: %w", err)
		}
		return &Event{Type: eventType, InnerEvent: innerFill}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %d", eventType)
	}
}

func init() {
	gob.Register(TradeEvent{})
	gob.Register(LiquidityEvent{})
	gob.Register(FillEvent{})
}
