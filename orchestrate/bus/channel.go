package bus

import (
	"context"
	"sync/atomic"
)

// MessageChannel is a closable buffered channel used as a single
// subscription by the in-process transport.
type MessageChannel[T any] struct {
	channel    chan T
	bufferSize int
	closed     atomic.Int32
}

func NewMessageChannel[T any](bufferSize int) *MessageChannel[T] {
	return &MessageChannel[T]{
		channel:    make(chan T, bufferSize),
		bufferSize: bufferSize,
	}
}

// TrySend delivers without blocking. It reports false when the buffer is
// full or the channel is closed.
func (mc *MessageChannel[T]) TrySend(message T) bool {
	if mc.IsClosed() {
		return false
	}
	select {
	case mc.channel <- message:
		return true
	default:
		return false
	}
}

func (mc *MessageChannel[T]) Receive(ctx context.Context) (T, error) {
	select {
	case message := <-mc.channel:
		return message, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (mc *MessageChannel[T]) TryReceive() (T, bool) {
	select {
	case message := <-mc.channel:
		return message, true
	default:
		var zero T
		return zero, false
	}
}

// Close marks the channel closed. The underlying channel is left open so a
// concurrent TrySend can never panic; it is collected with the subscription.
func (mc *MessageChannel[T]) Close() {
	mc.closed.CompareAndSwap(0, 1)
}

func (mc *MessageChannel[T]) IsClosed() bool {
	return mc.closed.Load() == 1
}

func (mc *MessageChannel[T]) BufferSize() int {
	return mc.bufferSize
}

func (mc *MessageChannel[T]) QueueLength() int {
	return len(mc.channel)
}
