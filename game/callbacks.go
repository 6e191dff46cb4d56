package game

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

// What the robot says.
const (
	TextStart            = "Let's start the game!"
	TextImitate          = "Do the same as me!"
	TextGoodJob          = "Good job!"
	TextTryAgain         = "Try again!"
	TextSessionEnd       = "Phew, this is all for now! Wanna play again?"
	TextCancelled        = "The game was cancelled! See you later!"
	TextCannotSee        = "I cannot see you!"
	TextSkeletonFound    = "Hi again! Let's start again"
	TextSkeletonNotFound = "I couldn't find you! We can try again later."
)

// Announcer builds the robot's speaking states. Each announcement waits the
// lead-in, acts, then holds so the next action does not talk over it.
type Announcer struct {
	actuator Actuator
	pacing   Pacing
}

func NewAnnouncer(actuator Actuator, pacing Pacing) *Announcer {
	return &Announcer{actuator: actuator, pacing: pacing}
}

// Say returns a state that speaks text and holds for the configured Hold.
func (a *Announcer) Say(text string) *state.CallbackState {
	return state.NewCallbackState(func(ctx context.Context, _ *state.Data) (string, error) {
		return OutcomeFinished, a.say(ctx, text, a.pacing.Hold.AsDuration())
	}, OutcomeFinished)
}

// InitGame starts the song and announces the game.
func (a *Announcer) InitGame(song string) *state.CallbackState {
	return state.NewCallbackState(func(ctx context.Context, _ *state.Data) (string, error) {
		if err := state.Pause(ctx, a.pacing.LeadIn.AsDuration()); err != nil {
			return "", err
		}
		if err := a.actuator.PlayAudio(ctx, song); err != nil {
			return "", err
		}
		if err := a.actuator.Say(ctx, TextStart); err != nil {
			return "", err
		}
		return OutcomeFinished, state.Pause(ctx, a.pacing.IntroHold.AsDuration())
	}, OutcomeFinished)
}

// SendPose asks the user to imitate and shows the pose read from "pose".
func (a *Announcer) SendPose(timeout int) *state.CallbackState {
	return state.NewCallbackState(func(ctx context.Context, data *state.Data) (string, error) {
		pose, _ := PoseInput.Get(data)

		if err := a.say(ctx, TextImitate, 0); err != nil {
			return "", err
		}
		return OutcomeFinished, a.actuator.SetPose(ctx, pose, timeout)
	}, OutcomeFinished).WithInputs(PoseInput.Name())
}

// GiveFeedback praises or encourages depending on "positive_feedback".
func (a *Announcer) GiveFeedback() *state.CallbackState {
	return state.NewCallbackState(func(ctx context.Context, data *state.Data) (string, error) {
		text := TextTryAgain
		if positive, _ := PositiveFeedback.Get(data); positive {
			text = TextGoodJob
		}
		return OutcomeFinished, a.say(ctx, text, a.pacing.Hold.AsDuration())
	}, OutcomeFinished).WithInputs(PositiveFeedback.Name())
}

// EndSession says goodbye and stops the song.
func (a *Announcer) EndSession() *state.CallbackState {
	return state.NewCallbackState(func(ctx context.Context, _ *state.Data) (string, error) {
		if err := state.Pause(ctx, a.pacing.LeadIn.AsDuration()); err != nil {
			return "", err
		}
		if err := a.actuator.Say(ctx, TextSessionEnd); err != nil {
			return "", err
		}
		if err := a.actuator.StopAudio(ctx); err != nil {
			return "", err
		}
		return OutcomeFinished, state.Pause(ctx, a.pacing.Hold.AsDuration())
	}, OutcomeFinished)
}

func (a *Announcer) say(ctx context.Context, text string, hold time.Duration) error {
	if err := state.Pause(ctx, a.pacing.LeadIn.AsDuration()); err != nil {
		return err
	}
	if err := a.actuator.Say(ctx, text); err != nil {
		return err
	}
	return state.Pause(ctx, hold)
}
