package game

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
)

// Actuator performs the robot's outward actions.
type Actuator interface {
	Say(ctx context.Context, text string) error
	PlayAudio(ctx context.Context, file string) error
	StopAudio(ctx context.Context) error
	SetPose(ctx context.Context, pose Pose, timeout int) error
}

// BusActuator publishes actions as command messages on the bus.
type BusActuator struct {
	publisher bus.Publisher
	channels  Channels
}

func NewBusActuator(publisher bus.Publisher, channels Channels) *BusActuator {
	return &BusActuator{publisher: publisher, channels: channels}
}

func (a *BusActuator) Say(ctx context.Context, text string) error {
	return a.publish(ctx, a.channels.Say, TypeSay, Say{Text: text})
}

func (a *BusActuator) PlayAudio(ctx context.Context, file string) error {
	return a.publish(ctx, a.channels.AudioPlayer, TypeAudioPlayerCommand, AudioPlayerCommand{Command: AudioPlay, File: file})
}

func (a *BusActuator) StopAudio(ctx context.Context) error {
	return a.publish(ctx, a.channels.AudioPlayer, TypeAudioPlayerCommand, AudioPlayerCommand{Command: AudioStop})
}

func (a *BusActuator) SetPose(ctx context.Context, pose Pose, timeout int) error {
	return a.publish(ctx, a.channels.SetPose, TypePoseCommand, PoseCommand{Pose: pose, Timeout: timeout})
}

func (a *BusActuator) publish(ctx context.Context, channel, msgType string, payload any) error {
	msg, err := bus.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	if err := a.publisher.Publish(ctx, channel, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", msgType, err)
	}
	return nil
}
