package game_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// scripted is a Receiver that hands out queued messages per channel and
// reports no message once a queue is empty.
type scripted struct {
	mu    sync.Mutex
	queue map[string][]bus.Message
}

func newScripted() *scripted {
	return &scripted{queue: make(map[string][]bus.Message)}
}

func (s *scripted) push(t *testing.T, channel, msgType string, payload any) {
	t.Helper()
	msg, err := bus.NewMessage(msgType, payload)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[channel] = append(s.queue[channel], msg)
}

func (s *scripted) Receive(ctx context.Context, channel string, timeout time.Duration) (bus.Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return bus.Message{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queue[channel]
	if len(q) == 0 {
		return bus.Message{}, false, nil
	}
	s.queue[channel] = q[1:]
	return q[0], true, nil
}

type recordingActuator struct {
	mu    sync.Mutex
	said  []string
	audio []string
	poses []game.Pose
}

func (a *recordingActuator) Say(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.said = append(a.said, text)
	return nil
}

func (a *recordingActuator) PlayAudio(ctx context.Context, file string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audio = append(a.audio, "play:"+file)
	return nil
}

func (a *recordingActuator) StopAudio(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audio = append(a.audio, "stop")
	return nil
}

func (a *recordingActuator) SetPose(ctx context.Context, pose game.Pose, timeout int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.poses = append(a.poses, pose)
	return nil
}

func (a *recordingActuator) count(text string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, s := range a.said {
		if s == text {
			n++
		}
	}
	return n
}

func (a *recordingActuator) poseCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.poses)
}

func (a *recordingActuator) snapshot() (said, audio []string, poses []game.Pose) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.said), slices.Clone(a.audio), slices.Clone(a.poses)
}

type staticFrames struct {
	mu    sync.Mutex
	names []string
}

func (f *staticFrames) set(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = names
}

func (f *staticFrames) FrameNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.names), nil
}

// fakeClock only moves when told to, or by step on every reading when step
// is non-zero.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ms(n int) config.Duration {
	return config.Duration(time.Duration(n) * time.Millisecond)
}
