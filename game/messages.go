package game

// Message type tags carried in bus.Message.Type.
const (
	TypeUserCommand        = "UserCommand"
	TypeImitationResult    = "ImitationResult"
	TypeAudioProgress      = "AudioProgress"
	TypeAudioPlayerCommand = "AudioPlayerCommand"
	TypeSay                = "Say"
	TypePoseCommand        = "PoseCommand"
	TypeFrameList          = "FrameList"
)

// User commands.
const (
	CommandStart = "start"
	CommandStop  = "stop"
	CommandExit  = "exit"
)

// Imitation results reported by the pose checker.
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultNoSkeleton = "no_skeleton"
)

// Audio player commands.
const (
	AudioPlay = "play"
	AudioStop = "stop"
)

type UserCommand struct {
	Command string `json:"command"`
}

type ImitationResult struct {
	Result string `json:"result"`
}

// AudioProgress reports the playback position in seconds.
type AudioProgress struct {
	Time float64 `json:"time"`
}

type AudioPlayerCommand struct {
	Command string `json:"command"`
	File    string `json:"file,omitempty"`
}

type Say struct {
	Text string `json:"text"`
}

// PoseCommand asks the robot to hold a pose; Timeout is in seconds.
type PoseCommand struct {
	Pose    Pose `json:"pose"`
	Timeout int  `json:"timeout"`
}

// FrameList is the set of perception frame names currently tracked.
type FrameList struct {
	Frames []string `json:"frames"`
}
