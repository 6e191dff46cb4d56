package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

const progressChannel = "pepper_imitation/audio_player_progress"

var synchroTime = state.NewKey[float64]("synchro_time")

type audioProgress struct {
	Time float64 `json:"time"`
}

func pollConfig(d time.Duration) config.MonitorConfig {
	return config.MonitorConfig{PollTimeout: config.Duration(d)}
}

// publishWhenSubscribed publishes msg once a Receive is pending on channel.
func publishWhenSubscribed(t *testing.T, b *bus.MemoryBus, channel string, msgs ...bus.Message) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(time.Second)
		for b.Subscribers(channel) == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		for _, msg := range msgs {
			b.Publish(context.Background(), channel, msg)
		}
	}()
}

func progress(t *testing.T, seconds float64) bus.Message {
	t.Helper()
	msg, err := bus.NewMessage("AudioProgress", audioProgress{Time: seconds})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func syncMusic(b bus.Receiver, timeout time.Duration) *state.MonitorState {
	return state.NewMonitorState(b, progressChannel, "AudioProgress", func(d *state.Data, msg bus.Message) bool {
		var p audioProgress
		if err := msg.Decode(&p); err != nil {
			return false
		}
		target, _ := synchroTime.Get(d)
		return p.Time < target
	}, pollConfig(timeout)).WithInputs("synchro_time")
}

func TestMonitorState_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		progress []float64
		want     string
	}{
		{name: "before synchro time", progress: []float64{30}, want: state.OutcomeContinue},
		{name: "reached synchro time", progress: []float64{60.5}, want: state.OutcomeStop},
		{name: "no message", want: state.OutcomeWaiting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
			defer b.Close()

			store := state.NewStore(nil)
			store.Set("synchro_time", 60.0)

			monitor := syncMusic(b, 50*time.Millisecond)

			var msgs []bus.Message
			for _, p := range tt.progress {
				msgs = append(msgs, progress(t, p))
			}
			if len(msgs) > 0 {
				publishWhenSubscribed(t, b, progressChannel, msgs...)
			}

			got, err := monitor.Execute(context.Background(), state.NewData(store, monitor, nil))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("outcome = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonitorState_IgnoresOtherTypes(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	store := state.NewStore(nil)
	store.Set("synchro_time", 60.0)
	monitor := syncMusic(b, 50*time.Millisecond)

	other, err := bus.NewMessage("Say", map[string]string{"text": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	publishWhenSubscribed(t, b, progressChannel, other)

	got, err := monitor.Execute(context.Background(), state.NewData(store, monitor, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != state.OutcomeWaiting {
		t.Errorf("outcome = %s, want waiting", got)
	}
}

func TestMonitorState_Preempted(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	store := state.NewStore(nil)
	monitor := syncMusic(b, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	got, err := monitor.Execute(ctx, state.NewData(store, monitor, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != state.OutcomePreempted {
		t.Errorf("outcome = %s, want preempted", got)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("monitor should return promptly on cancellation")
	}
}

func TestMonitorState_ClosedBusIsAnError(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	b.Close()

	monitor := syncMusic(b, 10*time.Millisecond)
	if _, err := monitor.Execute(context.Background(), state.NewData(state.NewStore(nil), monitor, nil)); err == nil {
		t.Error("expected error from closed bus")
	}
}

// SYNC_MUSIC loops on itself until the song reaches the synchro time.
func TestMonitorState_InMachine(t *testing.T) {
	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	defer b.Close()

	store := state.NewStore(nil)
	store.Set("game_state_synchro_time", 60.0)

	m := newMachine(t, "SYNC", "synced", state.OutcomePreempted)
	mustAdd(t, m, "SYNC_MUSIC", syncMusic(b, 200*time.Millisecond), state.Transitions{
		state.OutcomeContinue: "SYNC_MUSIC",
		state.OutcomeWaiting:  "SYNC_MUSIC",
		state.OutcomeStop:     "synced",
	}, state.Remap{"synchro_time": "game_state_synchro_time"})

	msgs := []bus.Message{progress(t, 10), progress(t, 20), progress(t, 61)}
	go func() {
		for i, msg := range msgs {
			for b.Metrics().Received < int64(i+1) {
				if b.Subscribers(progressChannel) > 0 {
					b.Publish(context.Background(), progressChannel, msg)
				}
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcome, err := m.Run(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != "synced" {
		t.Errorf("outcome = %s, want synced", outcome)
	}
}
