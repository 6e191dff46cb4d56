package game

import "github.com/tailored-agentic-units/imitation/orchestrate/state"

// Local key names used by the game states.
var (
	PreviousSucceeded  = state.NewKey[bool]("previous_imitation_succeeded")
	SynchroTime        = state.NewKey[float64]("synchro_time")
	NextPose           = state.NewKey[Pose]("next_pose")
	DetectionSucceeded = state.NewKey[bool]("detection_succeeded")
	PoseInput          = state.NewKey[Pose]("pose")
	PositiveFeedback   = state.NewKey[bool]("positive_feedback")
)

// Store keys the main machine remaps the local names onto.
const (
	StoreResult      = "game_state_result"
	StoreSynchroTime = "game_state_synchro_time"
	StorePose        = "game_state_pose"
)
