package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pose identifies a target pose the robot demonstrates.
type Pose string

const (
	PoseHandsUp      Pose = "HANDS_UP"
	PoseHandsOnHead  Pose = "HANDS_ON_HEAD"
	PoseHandsOnFront Pose = "HANDS_ON_FRONT"
)

// Section is one step of the game: when the song reaches StartTime seconds,
// the robot shows Pose.
type Section struct {
	StartTime float64 `json:"start_time" yaml:"start_time"`
	Pose      Pose    `json:"pose" yaml:"pose"`
}

// DefaultContent returns the three sections of the reference game.
func DefaultContent() []Section {
	return []Section{
		{StartTime: 1, Pose: PoseHandsUp},
		{StartTime: 60, Pose: PoseHandsOnHead},
		{StartTime: 120, Pose: PoseHandsOnFront},
	}
}

// ValidateContent requires at least one section, non-empty poses and
// strictly increasing start times.
func ValidateContent(sections []Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("game content has no sections")
	}

	for i, s := range sections {
		if s.Pose == "" {
			return fmt.Errorf("section %d: pose cannot be empty", i)
		}
		if s.StartTime < 0 {
			return fmt.Errorf("section %d: start time cannot be negative", i)
		}
		if i > 0 && s.StartTime <= sections[i-1].StartTime {
			return fmt.Errorf("section %d: start time %.2f is not after %.2f", i, s.StartTime, sections[i-1].StartTime)
		}
	}
	return nil
}

type contentFile struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// LoadContent reads sections from a YAML (.yaml, .yml) or JSON (.json) file
// of the form:
//
//	sections:
//	  - start_time: 1
//	    pose: HANDS_UP
func LoadContent(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	var file contentFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported content file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	if err := ValidateContent(file.Sections); err != nil {
		return nil, fmt.Errorf("invalid content file %s: %w", path, err)
	}
	return file.Sections, nil
}
