package game

import (
	"context"
	"strings"
	"time"

	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

// Outcomes of the game states.
const (
	OutcomeStart            = "start"
	OutcomeStop             = "stop"
	OutcomeContinue         = state.OutcomeContinue
	OutcomeGameOver         = "game_over"
	OutcomeFinished         = "finished"
	OutcomeNoSkeleton       = "no_skeleton"
	OutcomeSkeletonFound    = "skeleton_found"
	OutcomeSkeletonNotFound = "skeleton_not_found"
	OutcomeWaiting          = state.OutcomeWaiting
	OutcomePreempted        = state.OutcomePreempted
)

// receiveTyped waits up to timeout for a message tagged msgType, skipping
// anything else published on the channel meanwhile.
func receiveTyped(ctx context.Context, r bus.Receiver, channel, msgType string, timeout time.Duration) (bus.Message, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return bus.Message{}, false, nil
		}

		msg, ok, err := r.Receive(ctx, channel, remaining)
		if err != nil || !ok {
			return msg, ok, err
		}
		if msg.Type == msgType {
			return msg, true, nil
		}
	}
}

// WaitUserInput polls the user command channel once.
type WaitUserInput struct {
	receiver bus.Receiver
	channel  string
	timeout  time.Duration
}

func NewWaitUserInput(receiver bus.Receiver, channel string, timeout time.Duration) *WaitUserInput {
	return &WaitUserInput{receiver: receiver, channel: channel, timeout: timeout}
}

func (s *WaitUserInput) Outcomes() []string {
	return []string{OutcomeStart, OutcomeStop, OutcomeWaiting, OutcomePreempted}
}

// Execute maps "start" and "stop" commands to the outcomes of the same
// name. Other commands and malformed payloads count as no input.
func (s *WaitUserInput) Execute(ctx context.Context, data *state.Data) (string, error) {
	if ctx.Err() != nil {
		return OutcomePreempted, nil
	}

	msg, ok, err := receiveTyped(ctx, s.receiver, s.channel, TypeUserCommand, s.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomePreempted, nil
		}
		return "", err
	}
	if !ok {
		return OutcomeWaiting, nil
	}

	var cmd UserCommand
	if err := msg.Decode(&cmd); err != nil {
		return OutcomeWaiting, nil
	}

	switch cmd.Command {
	case CommandStart:
		return OutcomeStart, nil
	case CommandStop:
		return OutcomeStop, nil
	default:
		return OutcomeWaiting, nil
	}
}

// GameIteration walks the game sections. Its position survives between
// activations and is reset when the last section has been imitated.
//
// The first activation, and any activation whose previous imitation failed
// or is unknown, re-emits the current section. A successful imitation moves
// to the next section; past the last one the game is over.
type GameIteration struct {
	sections   []Section
	current    int
	iterations int
}

func NewGameIteration(sections []Section) *GameIteration {
	return &GameIteration{sections: sections}
}

func (s *GameIteration) Outcomes() []string {
	return []string{OutcomeContinue, OutcomeGameOver, OutcomePreempted}
}

func (s *GameIteration) InputKeys() []string {
	return []string{PreviousSucceeded.Name()}
}

func (s *GameIteration) OutputKeys() []string {
	return []string{SynchroTime.Name(), NextPose.Name()}
}

func (s *GameIteration) Execute(ctx context.Context, data *state.Data) (string, error) {
	if ctx.Err() != nil {
		return OutcomePreempted, nil
	}
	if len(s.sections) == 0 {
		return OutcomeGameOver, nil
	}

	if succeeded, ok := PreviousSucceeded.Get(data); s.iterations > 0 && ok && succeeded {
		s.current++
		if s.current >= len(s.sections) {
			s.Reset()
			return OutcomeGameOver, nil
		}
	}

	s.iterations++
	section := s.sections[s.current]
	SynchroTime.Set(data, section.StartTime)
	NextPose.Set(data, section.Pose)
	return OutcomeContinue, nil
}

// Reset rewinds to the first section.
func (s *GameIteration) Reset() {
	s.current = 0
	s.iterations = 0
}

// CheckPoseState polls the imitation result channel once.
type CheckPoseState struct {
	receiver bus.Receiver
	channel  string
	timeout  time.Duration
}

func NewCheckPoseState(receiver bus.Receiver, channel string, timeout time.Duration) *CheckPoseState {
	return &CheckPoseState{receiver: receiver, channel: channel, timeout: timeout}
}

func (s *CheckPoseState) Outcomes() []string {
	return []string{OutcomeFinished, OutcomeNoSkeleton, OutcomeWaiting, OutcomePreempted}
}

func (s *CheckPoseState) InputKeys() []string {
	return nil
}

func (s *CheckPoseState) OutputKeys() []string {
	return []string{DetectionSucceeded.Name()}
}

// Execute classifies the result: "no_skeleton" when the user was not seen,
// otherwise "finished" with detection_succeeded set to whether the pose
// matched.
func (s *CheckPoseState) Execute(ctx context.Context, data *state.Data) (string, error) {
	if ctx.Err() != nil {
		return OutcomePreempted, nil
	}

	msg, ok, err := receiveTyped(ctx, s.receiver, s.channel, TypeImitationResult, s.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomePreempted, nil
		}
		return "", err
	}
	if !ok {
		return OutcomeWaiting, nil
	}

	var result ImitationResult
	if err := msg.Decode(&result); err != nil {
		return OutcomeWaiting, nil
	}

	if result.Result == ResultNoSkeleton {
		return OutcomeNoSkeleton, nil
	}

	DetectionSucceeded.Set(data, result.Result == ResultSuccess)
	return OutcomeFinished, nil
}

// WaitSkeletonState looks for a tracked user among the perception frames.
// The deadline is armed on the first activation and kept across "waiting"
// activations; finding a user or giving up disarms it.
type WaitSkeletonState struct {
	frames   FrameSource
	prefix   string
	deadline time.Duration
	now      func() time.Time

	started time.Time
	armed   bool
}

func NewWaitSkeletonState(frames FrameSource, prefix string, deadline time.Duration) *WaitSkeletonState {
	return &WaitSkeletonState{
		frames:   frames,
		prefix:   prefix,
		deadline: deadline,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *WaitSkeletonState) WithClock(now func() time.Time) *WaitSkeletonState {
	s.now = now
	return s
}

func (s *WaitSkeletonState) Outcomes() []string {
	return []string{OutcomeSkeletonFound, OutcomeSkeletonNotFound, OutcomeWaiting, OutcomePreempted}
}

func (s *WaitSkeletonState) Execute(ctx context.Context, data *state.Data) (string, error) {
	if ctx.Err() != nil {
		s.armed = false
		return OutcomePreempted, nil
	}

	if !s.armed {
		s.started = s.now()
		s.armed = true
	}

	names, err := s.frames.FrameNames(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.armed = false
			return OutcomePreempted, nil
		}
		return "", err
	}

	for _, name := range names {
		if strings.HasPrefix(name, s.prefix) {
			s.armed = false
			return OutcomeSkeletonFound, nil
		}
	}

	if s.now().Sub(s.started) < s.deadline {
		return OutcomeWaiting, nil
	}

	s.armed = false
	return OutcomeSkeletonNotFound, nil
}
