package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

// Names of the assembled machines and states.
const (
	RootName         = "ROOT"
	GameName         = "GAME"
	SkeletonName     = "GET_SKELETON"
	ExitName         = "USER_EXIT_GAME"
	StateGameStopped = "GAME_STOPPED"
)

// Outcomes of the assembled machines.
const (
	MainSuccess   = "main_success"
	MainFailed    = "main_failed"
	MainPreempted = "main_preempted"

	SkeletonTimeout = "timeout"

	ExitRequested = "exit"

	GameSuccess  = "game_success"
	GameError    = "game_error"
	GameCanceled = "game_canceled"
)

// Deps carries everything Build needs. Receiver and Actuator are required;
// the rest falls back to defaults.
type Deps struct {
	Config   Config
	Sections []Section

	Receiver bus.Receiver
	Actuator Actuator
	Frames   FrameSource
	Observer observability.Observer

	// Machine is the template for every machine; Name is set per machine.
	Machine     config.MachineConfig
	Concurrence config.ConcurrenceConfig
	Monitor     config.MonitorConfig

	Clock func() time.Time
}

// Build assembles the game HFSM:
//
//	ROOT (concurrence)
//	├── GAME (machine)
//	│   ├── WAIT_USER_INPUT, INIT_GAME, GAME_ITERATION, SYNC_MUSIC
//	│   ├── SEND_POSE, CHECK_POSE, GIVE_FEEDBACK, END_SESSION
//	│   ├── GET_SKELETON (machine)
//	│   └── GAME_STOPPED (preemption)
//	└── USER_EXIT_GAME (machine)
//	    └── USER_EXIT_GAME monitor on the user command channel
func Build(deps Deps) (*state.Concurrence, error) {
	if deps.Receiver == nil {
		return nil, errors.New("receiver is required")
	}
	if deps.Actuator == nil {
		return nil, errors.New("actuator is required")
	}

	cfg := DefaultConfig()
	cfg.Merge(&deps.Config)

	sections := deps.Sections
	if len(sections) == 0 {
		loaded, err := cfg.Content()
		if err != nil {
			return nil, fmt.Errorf("failed to load game content: %w", err)
		}
		sections = loaded
	} else if err := ValidateContent(sections); err != nil {
		return nil, err
	}

	monitor := config.DefaultMonitorConfig()
	monitor.Merge(&deps.Monitor)

	frames := deps.Frames
	if frames == nil {
		frames = NewBusFrameSource(deps.Receiver, cfg.Channels.Frames, cfg.FramePoll.AsDuration())
	}

	b := &builder{
		cfg:       cfg,
		sections:  sections,
		deps:      deps,
		monitor:   monitor,
		frames:    frames,
		announcer: NewAnnouncer(deps.Actuator, cfg.Pacing),
	}

	game, err := b.game()
	if err != nil {
		return nil, err
	}
	exit, err := b.exit()
	if err != nil {
		return nil, err
	}

	rootCfg := config.DefaultConcurrenceConfig(RootName)
	rootCfg.DefaultOutcome = GameError
	rootCfg.Merge(&deps.Concurrence)

	root := state.NewConcurrenceWithObserver(rootCfg, deps.Observer, GameSuccess, GameError, GameCanceled)
	if err := root.Add(GameName, game); err != nil {
		return nil, err
	}
	if err := root.Add(ExitName, exit); err != nil {
		return nil, err
	}
	root.SetTerminationPolicy(Terminate)
	root.SetOutcomePolicy(Reduce)

	if err := root.Validate(); err != nil {
		return nil, err
	}
	return root, nil
}

// Terminate stops the game as soon as either child finishes: the exit
// monitor ends the game, and a finished game releases the monitor.
func Terminate(map[string]string) bool {
	return true
}

// Reduce maps the children's outcomes to the root outcome. An exit request,
// or an exit monitor that never finished, cancels the game; otherwise only
// a successful main machine is a success.
func Reduce(outcomes map[string]string) string {
	switch outcomes[ExitName] {
	case ExitRequested, state.OutcomeInvalid:
		return GameCanceled
	}
	if outcomes[GameName] == MainSuccess {
		return GameSuccess
	}
	return GameError
}

type builder struct {
	cfg       Config
	sections  []Section
	deps      Deps
	monitor   config.MonitorConfig
	frames    FrameSource
	announcer *Announcer
}

func (b *builder) machine(name string, outcomes ...string) *state.Machine {
	cfg := config.DefaultMachineConfig(name)
	cfg.Merge(&b.deps.Machine)
	cfg.Name = name
	return state.NewMachineWithObserver(cfg, b.deps.Observer, outcomes...)
}

type entry struct {
	name        string
	state       state.State
	transitions state.Transitions
	remap       state.Remap
}

func add(m *state.Machine, entries ...entry) error {
	for _, e := range entries {
		if err := m.AddState(e.name, e.state, e.transitions, e.remap); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) game() (*state.Machine, error) {
	m := b.machine(GameName, MainSuccess, MainFailed, MainPreempted)
	channels := b.cfg.Channels
	poll := b.monitor.PollTimeout.AsDuration()

	skeleton, err := b.skeleton()
	if err != nil {
		return nil, err
	}

	syncMusic := state.NewMonitorState(b.deps.Receiver, channels.AudioProgress, TypeAudioProgress, beforeSynchroTime, b.monitor).
		WithInputs(SynchroTime.Name()).
		WithObserver(b.deps.Observer)

	err = add(m,
		entry{"WAIT_USER_INPUT", NewWaitUserInput(b.deps.Receiver, channels.UserCommand, poll), state.Transitions{
			OutcomeStart:     "INIT_GAME",
			OutcomeStop:      MainSuccess,
			OutcomeWaiting:   "WAIT_USER_INPUT",
			OutcomePreempted: StateGameStopped,
		}, nil},
		entry{"INIT_GAME", b.announcer.InitGame(b.cfg.Song), state.Transitions{
			OutcomeFinished: "GAME_ITERATION",
		}, nil},
		entry{"GAME_ITERATION", NewGameIteration(b.sections), state.Transitions{
			OutcomeContinue:  "SYNC_MUSIC",
			OutcomeGameOver:  "END_SESSION",
			OutcomePreempted: StateGameStopped,
		}, state.Remap{
			PreviousSucceeded.Name(): StoreResult,
			SynchroTime.Name():       StoreSynchroTime,
			NextPose.Name():          StorePose,
		}},
		entry{"SYNC_MUSIC", syncMusic, state.Transitions{
			state.OutcomeContinue: "SYNC_MUSIC",
			state.OutcomeWaiting:  "SYNC_MUSIC",
			state.OutcomeStop:     "SEND_POSE",
			OutcomePreempted:      StateGameStopped,
		}, state.Remap{
			SynchroTime.Name(): StoreSynchroTime,
		}},
		entry{"SEND_POSE", b.announcer.SendPose(b.cfg.PoseTimeout), state.Transitions{
			OutcomeFinished: "CHECK_POSE",
		}, state.Remap{
			PoseInput.Name(): StorePose,
		}},
		entry{"CHECK_POSE", NewCheckPoseState(b.deps.Receiver, channels.ImitationResult, poll), state.Transitions{
			OutcomeWaiting:    "CHECK_POSE",
			OutcomeFinished:   "GIVE_FEEDBACK",
			OutcomeNoSkeleton: SkeletonName,
			OutcomePreempted:  StateGameStopped,
		}, state.Remap{
			DetectionSucceeded.Name(): StoreResult,
		}},
		entry{"GIVE_FEEDBACK", b.announcer.GiveFeedback(), state.Transitions{
			OutcomeFinished: "GAME_ITERATION",
		}, state.Remap{
			PositiveFeedback.Name(): StoreResult,
		}},
		entry{"END_SESSION", b.announcer.EndSession(), state.Transitions{
			OutcomeFinished: "WAIT_USER_INPUT",
		}, nil},
		entry{SkeletonName, skeleton, state.Transitions{
			OutcomeSkeletonFound: "INIT_GAME",
			SkeletonTimeout:            MainFailed,
			OutcomePreempted:     StateGameStopped,
		}, nil},
		entry{StateGameStopped, b.announcer.Say(TextCancelled), state.Transitions{
			OutcomeFinished: MainPreempted,
		}, nil},
	)
	if err != nil {
		return nil, err
	}

	if err := m.SetPreemptionState(StateGameStopped); err != nil {
		return nil, err
	}
	return m, nil
}

func (b *builder) skeleton() (*state.Machine, error) {
	m := b.machine(SkeletonName, OutcomeSkeletonFound, SkeletonTimeout, OutcomePreempted)

	wait := NewWaitSkeletonState(b.frames, b.cfg.FramePrefix, b.cfg.SkeletonDeadline.AsDuration())
	if b.deps.Clock != nil {
		wait.WithClock(b.deps.Clock)
	}

	err := add(m,
		entry{"WAIT_SKELETON_INIT", b.announcer.Say(TextCannotSee), state.Transitions{
			OutcomeFinished: "WAIT_SKELETON",
		}, nil},
		entry{"WAIT_SKELETON", wait, state.Transitions{
			OutcomeSkeletonFound:    "SKELETON_FOUND",
			OutcomeSkeletonNotFound: "SKELETON_NOT_FOUND",
			OutcomeWaiting:          "WAIT_SKELETON",
			OutcomePreempted:        OutcomePreempted,
		}, nil},
		entry{"SKELETON_FOUND", b.announcer.Say(TextSkeletonFound), state.Transitions{
			OutcomeFinished: OutcomeSkeletonFound,
		}, nil},
		entry{"SKELETON_NOT_FOUND", b.announcer.Say(TextSkeletonNotFound), state.Transitions{
			OutcomeFinished: SkeletonTimeout,
		}, nil},
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (b *builder) exit() (*state.Machine, error) {
	m := b.machine(ExitName, ExitRequested, OutcomePreempted)

	monitor := state.NewMonitorState(b.deps.Receiver, b.cfg.Channels.UserCommand, TypeUserCommand, notExit, b.monitor).
		WithObserver(b.deps.Observer)

	err := add(m, entry{ExitName, monitor, state.Transitions{
		state.OutcomeContinue: ExitName,
		state.OutcomeWaiting:  ExitName,
		state.OutcomeStop:     ExitRequested,
		OutcomePreempted:      OutcomePreempted,
	}, nil})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// beforeSynchroTime keeps the music monitor polling until playback reaches
// the section's start time.
func beforeSynchroTime(data *state.Data, msg bus.Message) bool {
	var progress AudioProgress
	if err := msg.Decode(&progress); err != nil {
		return true
	}
	target, _ := SynchroTime.Get(data)
	return progress.Time < target
}

// notExit keeps the exit monitor polling until an exit command arrives.
func notExit(_ *state.Data, msg bus.Message) bool {
	var cmd UserCommand
	if err := msg.Decode(&cmd); err != nil {
		return true
	}
	return cmd.Command != CommandExit
}
