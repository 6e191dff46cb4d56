package game

import (
	"time"

	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// Config holds the game's content, channels and pacing.
//
// Example YAML:
//
//	content_file: songs/moulin.yaml
//	song: tourne_tourne_petit_moulin.wav
//	pacing:
//	  lead_in: 1s
//	  hold: 4s
type Config struct {
	Channels Channels `json:"channels" yaml:"channels"`

	// ContentFile points to a YAML or JSON list of sections. Empty uses Sections.
	ContentFile string `json:"content_file,omitempty" yaml:"content_file,omitempty"`

	// Sections is inline content; DefaultContent when both are empty.
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Song is the audio file played when a game starts
	Song string `json:"song" yaml:"song"`

	// PoseTimeout is sent with each pose command, in seconds
	PoseTimeout int `json:"pose_timeout" yaml:"pose_timeout"`

	// SkeletonDeadline bounds the search for a user after a lost skeleton
	SkeletonDeadline config.Duration `json:"skeleton_deadline" yaml:"skeleton_deadline"`

	// FramePrefix identifies the perception frames of a tracked user
	FramePrefix string `json:"frame_prefix" yaml:"frame_prefix"`

	// FramePoll is how long each skeleton check waits for a frame list
	FramePoll config.Duration `json:"frame_poll" yaml:"frame_poll"`

	Pacing Pacing `json:"pacing" yaml:"pacing"`
}

// Pacing spaces the robot's announcements so speech and motion do not
// overlap. Every wait is interrupted by cancellation.
type Pacing struct {
	// LeadIn precedes every announcement
	LeadIn config.Duration `json:"lead_in" yaml:"lead_in"`

	// Hold follows feedback and session announcements
	Hold config.Duration `json:"hold" yaml:"hold"`

	// IntroHold follows the game start announcement
	IntroHold config.Duration `json:"intro_hold" yaml:"intro_hold"`
}

func DefaultConfig() Config {
	return Config{
		Channels:         DefaultChannels(),
		Song:             "tourne_tourne_petit_moulin.wav",
		PoseTimeout:      15,
		SkeletonDeadline: config.Duration(10 * time.Second),
		FramePrefix:      "torso_",
		FramePoll:        config.Duration(100 * time.Millisecond),
		Pacing: Pacing{
			LeadIn:    config.Duration(time.Second),
			Hold:      config.Duration(4 * time.Second),
			IntroHold: config.Duration(5 * time.Second),
		},
	}
}

func (c *Config) Merge(source *Config) {
	c.Channels.Merge(&source.Channels)

	if source.ContentFile != "" {
		c.ContentFile = source.ContentFile
	}
	if len(source.Sections) > 0 {
		c.Sections = source.Sections
	}
	if source.Song != "" {
		c.Song = source.Song
	}
	if source.PoseTimeout > 0 {
		c.PoseTimeout = source.PoseTimeout
	}
	if source.SkeletonDeadline > 0 {
		c.SkeletonDeadline = source.SkeletonDeadline
	}
	if source.FramePrefix != "" {
		c.FramePrefix = source.FramePrefix
	}
	if source.FramePoll > 0 {
		c.FramePoll = source.FramePoll
	}
	if source.Pacing.LeadIn > 0 {
		c.Pacing.LeadIn = source.Pacing.LeadIn
	}
	if source.Pacing.Hold > 0 {
		c.Pacing.Hold = source.Pacing.Hold
	}
	if source.Pacing.IntroHold > 0 {
		c.Pacing.IntroHold = source.Pacing.IntroHold
	}
}

// Content resolves the configured sections: ContentFile, then Sections,
// then DefaultContent.
func (c *Config) Content() ([]Section, error) {
	if c.ContentFile != "" {
		return LoadContent(c.ContentFile)
	}
	if len(c.Sections) > 0 {
		if err := ValidateContent(c.Sections); err != nil {
			return nil, err
		}
		return c.Sections, nil
	}
	return DefaultContent(), nil
}
