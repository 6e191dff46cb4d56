package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

func quickPacing() game.Pacing {
	return game.Pacing{LeadIn: ms(1), Hold: ms(1), IntroHold: ms(1)}
}

func TestAnnouncer_GiveFeedback(t *testing.T) {
	tests := []struct {
		positive bool
		want     string
	}{
		{true, game.TextGoodJob},
		{false, game.TextTryAgain},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			act := &recordingActuator{}
			s := game.NewAnnouncer(act, quickPacing()).GiveFeedback()

			store := state.NewStore(nil)
			store.Set("game_state_result", tt.positive)
			data := state.NewData(store, s, state.Remap{"positive_feedback": "game_state_result"})

			outcome, err := s.Execute(context.Background(), data)
			require.NoError(t, err)
			assert.Equal(t, game.OutcomeFinished, outcome)

			said, _, _ := act.snapshot()
			assert.Equal(t, []string{tt.want}, said)
		})
	}
}

func TestAnnouncer_SendPose(t *testing.T) {
	act := &recordingActuator{}
	s := game.NewAnnouncer(act, quickPacing()).SendPose(15)

	store := state.NewStore(nil)
	store.Set("game_state_pose", game.PoseHandsOnHead)

	outcome, err := s.Execute(context.Background(), state.NewData(store, s, state.Remap{"pose": "game_state_pose"}))
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeFinished, outcome)

	said, _, poses := act.snapshot()
	assert.Equal(t, []string{game.TextImitate}, said)
	assert.Equal(t, []game.Pose{game.PoseHandsOnHead}, poses)
}

func TestAnnouncer_SendPoseRequiresPose(t *testing.T) {
	act := &recordingActuator{}
	s := game.NewAnnouncer(act, quickPacing()).SendPose(15)

	_, err := s.Execute(context.Background(), state.NewData(state.NewStore(nil), s, nil))

	var cv *state.ContractViolation
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "pose", cv.Key)
	assert.Equal(t, 0, act.poseCount())
}

func TestAnnouncer_InitGameAndEndSession(t *testing.T) {
	act := &recordingActuator{}
	a := game.NewAnnouncer(act, quickPacing())

	for _, s := range []state.State{a.InitGame("song.wav"), a.EndSession()} {
		outcome, err := s.Execute(context.Background(), state.NewData(state.NewStore(nil), s, nil))
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeFinished, outcome)
	}

	said, audio, _ := act.snapshot()
	assert.Equal(t, []string{game.TextStart, game.TextSessionEnd}, said)
	assert.Equal(t, []string{"play:song.wav", "stop"}, audio)
}

func TestAnnouncer_PauseIsCancellable(t *testing.T) {
	act := &recordingActuator{}
	s := game.NewAnnouncer(act, game.Pacing{LeadIn: ms(1), Hold: ms(10_000)}).Say(game.TextCancelled)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := s.Execute(ctx, state.NewData(state.NewStore(nil), s, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, act.count(game.TextCancelled))
}
