package game

// Channels names the bus channels the game talks on.
type Channels struct {
	UserCommand     string `json:"user_command" yaml:"user_command"`
	ImitationResult string `json:"imitation_result" yaml:"imitation_result"`
	AudioProgress   string `json:"audio_progress" yaml:"audio_progress"`
	AudioPlayer     string `json:"audio_player" yaml:"audio_player"`
	Say             string `json:"say" yaml:"say"`
	SetPose         string `json:"set_pose" yaml:"set_pose"`
	Frames          string `json:"frames" yaml:"frames"`
}

func DefaultChannels() Channels {
	return Channels{
		UserCommand:     "pepper_imitation/cmd_user",
		ImitationResult: "pepper_imitation/imitation_result",
		AudioProgress:   "pepper_imitation/audio_player_progress",
		AudioPlayer:     "pepper_imitation/cmd_audio_player",
		Say:             "pepper_imitation/cmd_say",
		SetPose:         "pepper_imitation/cmd_set_pose",
		Frames:          "pepper_imitation/frames",
	}
}

func (c *Channels) Merge(source *Channels) {
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	merge(&c.UserCommand, source.UserCommand)
	merge(&c.ImitationResult, source.ImitationResult)
	merge(&c.AudioProgress, source.AudioProgress)
	merge(&c.AudioPlayer, source.AudioPlayer)
	merge(&c.Say, source.Say)
	merge(&c.SetPose, source.SetPose)
	merge(&c.Frames, source.Frames)
}
