package runner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
	"github.com/tailored-agentic-units/imitation/runner"
)

// --- Test helpers ---

type recordingActuator struct {
	mu   sync.Mutex
	said []string
}

func (a *recordingActuator) Say(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.said = append(a.said, text)
	return nil
}

func (a *recordingActuator) PlayAudio(ctx context.Context, file string) error { return nil }
func (a *recordingActuator) StopAudio(ctx context.Context) error              { return nil }

func (a *recordingActuator) SetPose(ctx context.Context, pose game.Pose, timeout int) error {
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

func quickConfig() *runner.Config {
	cfg := runner.DefaultConfig()
	tracing := false
	cfg.Merge(&runner.Config{
		Machine: config.MachineConfig{TracingNil: &tracing},
		Monitor: config.MonitorConfig{PollTimeout: config.Duration(20 * time.Millisecond)},
		Game: game.Config{
			Pacing: game.Pacing{
				LeadIn:    config.Duration(time.Millisecond),
				Hold:      config.Duration(time.Millisecond),
				IntroHold: config.Duration(time.Millisecond),
			},
		},
	})
	return &cfg
}

type runResult struct {
	result *runner.Result
	err    error
}

func runAsync(ctx context.Context, r *runner.Runner) chan runResult {
	done := make(chan runResult, 1)
	go func() {
		result, err := r.Run(ctx)
		done <- runResult{result, err}
	}()
	return done
}

// publishUntil republishes a user command until the run finishes.
func publishUntil(t *testing.T, b *bus.MemoryBus, command string, done chan runResult) runResult {
	t.Helper()

	msg, err := bus.NewMessage(game.TypeUserCommand, game.UserCommand{Command: command})
	if err != nil {
		t.Fatal(err)
	}

	channel := game.DefaultChannels().UserCommand
	deadline := time.After(10 * time.Second)
	for {
		select {
		case r := <-done:
			return r
		case <-deadline:
			t.Fatal("run did not finish")
		case <-time.After(2 * time.Millisecond):
			if b.Subscribers(channel) > 0 {
				b.Publish(context.Background(), channel, msg)
			}
		}
	}
}

// --- Tests ---

func TestFinalLabel(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{game.GameSuccess, runner.OutcomeCompletedSuccess},
		{game.GameError, runner.OutcomeCompletedError},
		{game.GameCanceled, runner.OutcomeCanceled},
		{"", runner.OutcomeCompletedError},
	}

	for _, tt := range tests {
		if got := runner.FinalLabel(tt.root); got != tt.want {
			t.Errorf("FinalLabel(%q) = %q, want %q", tt.root, got, tt.want)
		}
	}
}

func TestNew_UnknownTransport(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.Bus.Transport = "carrier-pigeon"

	if _, err := runner.New(&cfg); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestNew_InvalidContent(t *testing.T) {
	cfg := quickConfig()
	cfg.Game.ContentFile = "/nonexistent/song.yaml"

	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	if _, err := runner.New(cfg, runner.WithBus(b)); err == nil {
		t.Fatal("expected error for missing content file")
	}
}

func TestRunner_StopCompletesSuccessfully(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	recorder := observability.NewRecorder()
	r, err := runner.New(quickConfig(), runner.WithBus(b), runner.WithObserver(recorder), runner.WithActuator(&recordingActuator{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	got := publishUntil(t, b, game.CommandStop, runAsync(context.Background(), r))
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}

	if got.result.Outcome != runner.OutcomeCompletedSuccess {
		t.Errorf("got Outcome %q, want %q", got.result.Outcome, runner.OutcomeCompletedSuccess)
	}
	if got.result.RootOutcome != game.GameSuccess {
		t.Errorf("got RootOutcome %q, want %q", got.result.RootOutcome, game.GameSuccess)
	}
	if got.result.RunID == "" {
		t.Error("RunID should be set")
	}

	if n := len(recorder.OfType(runner.EventRunStart)); n != 1 {
		t.Errorf("got %d runner.start events, want 1", n)
	}
	complete := recorder.OfType(runner.EventRunComplete)
	if len(complete) != 1 {
		t.Fatalf("got %d runner.complete events, want 1", len(complete))
	}
	if complete[0].Data["outcome"] != runner.OutcomeCompletedSuccess {
		t.Errorf("got event outcome %v", complete[0].Data["outcome"])
	}
}

func TestRunner_ExitCancels(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	act := &recordingActuator{}
	r, err := runner.New(quickConfig(), runner.WithBus(b), runner.WithActuator(act),
		runner.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := publishUntil(t, b, game.CommandExit, runAsync(context.Background(), r))
	if got.err != nil {
		t.Fatalf("Run failed: %v", got.err)
	}
	if got.result.Outcome != runner.OutcomeCanceled {
		t.Errorf("got Outcome %q, want %q", got.result.Outcome, runner.OutcomeCanceled)
	}
	if act.count(game.TextCancelled) != 1 {
		t.Errorf("cancellation should be announced once, got %d", act.count(game.TextCancelled))
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	act := &recordingActuator{}
	r, err := runner.New(quickConfig(), runner.WithBus(b), runner.WithActuator(act),
		runner.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Outcome != runner.OutcomeCanceled {
		t.Errorf("got Outcome %q, want %q", result.Outcome, runner.OutcomeCanceled)
	}
	if act.count(game.TextCancelled) != 1 {
		t.Errorf("cancellation should be announced once, got %d", act.count(game.TextCancelled))
	}
}

func TestRunner_CloseKeepsSuppliedBus(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	r, err := runner.New(quickConfig(), runner.WithBus(b), runner.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	msg, _ := bus.NewMessage(game.TypeSay, game.Say{Text: "still open"})
	if err := b.Publish(context.Background(), "any", msg); err != nil {
		t.Errorf("supplied bus should stay open, Publish error = %v", err)
	}
}

func TestRunner_Describe(t *testing.T) {
	r, err := runner.New(quickConfig(), runner.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	if r.Describe() == "" {
		t.Error("Describe should render the HFSM")
	}
	if err := r.Root().Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestRunner_RedisTransport(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	cfg := quickConfig()
	cfg.Bus.Transport = config.TransportRedis
	cfg.Bus.Redis.Addr = mr.Addr()

	r, err := runner.New(cfg, runner.WithObserver(observability.NoOpObserver{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()
	user := bus.NewRedisBusFromClient(client, cfg.Bus.Redis.Prefix, nil)

	msg, err := bus.NewMessage(game.TypeUserCommand, game.UserCommand{Command: game.CommandStop})
	if err != nil {
		t.Fatal(err)
	}

	done := runAsync(context.Background(), r)
	deadline := time.After(10 * time.Second)
	for {
		select {
		case got := <-done:
			if got.err != nil {
				t.Fatalf("Run failed: %v", got.err)
			}
			if got.result.Outcome != runner.OutcomeCompletedSuccess {
				t.Errorf("got Outcome %q, want %q", got.result.Outcome, runner.OutcomeCompletedSuccess)
			}
			return
		case <-deadline:
			t.Fatal("run did not finish")
		case <-time.After(5 * time.Millisecond):
			user.Publish(context.Background(), game.DefaultChannels().UserCommand, msg)
		}
	}
}
