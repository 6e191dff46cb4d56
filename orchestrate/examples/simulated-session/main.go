package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
	"github.com/tailored-agentic-units/imitation/runner"
)

// consoleActuator prints what the robot would do and remembers what it said.
type consoleActuator struct {
	mu   sync.Mutex
	said map[string]int
}

func (a *consoleActuator) Say(ctx context.Context, text string) error {
	a.mu.Lock()
	a.said[text]++
	a.mu.Unlock()
	fmt.Printf("  robot says: %q\n", text)
	return nil
}

func (a *consoleActuator) PlayAudio(ctx context.Context, file string) error {
	fmt.Printf("  robot plays: %s\n", file)
	return nil
}

func (a *consoleActuator) StopAudio(ctx context.Context) error {
	fmt.Println("  robot stops the music")
	return nil
}

func (a *consoleActuator) SetPose(ctx context.Context, pose game.Pose, timeout int) error {
	fmt.Printf("  robot shows: %s (%ds)\n", pose, timeout)
	return nil
}

func (a *consoleActuator) hasSaid(text string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.said[text] > 0
}

func main() {
	fmt.Println("=== Imitation Game - Simulated Session ===")
	fmt.Println()

	// ============================================================================
	// 1. Configure Observer
	// ============================================================================
	fmt.Println("1. Configuring observability...")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	recorder := observability.NewRecorder()
	observer := observability.NewMultiObserver(observability.NewSlogObserver(logger), recorder)

	fmt.Println("  ✓ slog observer (warnings) and event recorder")
	fmt.Println()

	// ============================================================================
	// 2. Assemble the game on an in-memory bus
	// ============================================================================
	fmt.Println("2. Assembling the game...")

	cfg := runner.DefaultConfig()
	cfg.Monitor.PollTimeout = config.Duration(20 * time.Millisecond)
	cfg.Game.Pacing = game.Pacing{
		LeadIn:    config.Duration(50 * time.Millisecond),
		Hold:      config.Duration(100 * time.Millisecond),
		IntroHold: config.Duration(100 * time.Millisecond),
	}

	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	robot := &consoleActuator{said: make(map[string]int)}
	r, err := runner.New(&cfg, runner.WithBus(b), runner.WithActuator(robot), runner.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	fmt.Println("  ✓ ROOT = GAME || USER_EXIT_GAME")
	fmt.Println()

	// ============================================================================
	// 3. Simulate the song, the pose checker and the user
	// ============================================================================
	fmt.Println("3. Playing...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	channels := cfg.Game.Channels
	go simulate(ctx, b, channels, robot)

	result, err := r.Run(ctx)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	fmt.Println()

	// ============================================================================
	// 4. Report
	// ============================================================================
	fmt.Println("4. Result")
	fmt.Printf("  outcome:     %s\n", result.Outcome)
	fmt.Printf("  run id:      %s\n", result.RunID)
	fmt.Printf("  duration:    %s\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("  transitions: %d\n", len(recorder.OfType("transition")))
}

// simulate stands in for the robot's audio player and pose checker and for
// the user. The song runs ten times faster than real time.
func simulate(ctx context.Context, b *bus.MemoryBus, channels game.Channels, robot *consoleActuator) {
	send := func(channel, msgType string, payload any) {
		if b.Subscribers(channel) == 0 {
			return
		}
		msg, err := bus.NewMessage(msgType, payload)
		if err != nil {
			return
		}
		b.Publish(ctx, channel, msg)
	}

	started := time.Now()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		switch {
		case !robot.hasSaid(game.TextStart):
			send(channels.UserCommand, game.TypeUserCommand, game.UserCommand{Command: game.CommandStart})
		case robot.hasSaid(game.TextSessionEnd):
			send(channels.UserCommand, game.TypeUserCommand, game.UserCommand{Command: game.CommandStop})
		default:
			song := time.Since(started).Seconds() * 10
			send(channels.AudioProgress, game.TypeAudioProgress, game.AudioProgress{Time: song})
			send(channels.ImitationResult, game.TypeImitationResult, game.ImitationResult{Result: game.ResultSuccess})
		}
	}
}
