package game

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
)

// FrameSource lists the perception frames currently tracked (for example the
// skeleton joints of a detected person).
type FrameSource interface {
	FrameNames(ctx context.Context) ([]string, error)
}

// BusFrameSource reads FrameList messages published by the perception node.
// A call returns the first list seen within timeout, or no frames when the
// node published nothing, so stale detections never linger.
type BusFrameSource struct {
	receiver bus.Receiver
	channel  string
	timeout  time.Duration
}

func NewBusFrameSource(receiver bus.Receiver, channel string, timeout time.Duration) *BusFrameSource {
	return &BusFrameSource{receiver: receiver, channel: channel, timeout: timeout}
}

func (s *BusFrameSource) FrameNames(ctx context.Context) ([]string, error) {
	deadline := time.Now().Add(s.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		msg, ok, err := s.receiver.Receive(ctx, s.channel, remaining)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if msg.Type != TypeFrameList {
			continue
		}

		var list FrameList
		if err := msg.Decode(&list); err != nil {
			return nil, err
		}
		return list.Frames, nil
	}
}
