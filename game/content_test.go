package game_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/imitation/game"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadContent(t *testing.T) {
	want := []game.Section{
		{StartTime: 2.5, Pose: game.PoseHandsOnFront},
		{StartTime: 30, Pose: game.PoseHandsUp},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "song.yaml",
			content: `
sections:
  - start_time: 2.5
    pose: HANDS_ON_FRONT
  - start_time: 30
    pose: HANDS_UP
`,
		},
		{
			name:    "json",
			file:    "song.json",
			content: `{"sections":[{"start_time":2.5,"pose":"HANDS_ON_FRONT"},{"start_time":30,"pose":"HANDS_UP"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := game.LoadContent(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unsupported extension", file: "song.toml", content: "sections = []"},
		{name: "empty", file: "song.yaml", content: "sections: []\n"},
		{name: "not increasing", file: "song.json", content: `{"sections":[{"start_time":5,"pose":"HANDS_UP"},{"start_time":5,"pose":"HANDS_ON_HEAD"}]}`},
		{name: "missing pose", file: "song.yaml", content: "sections:\n  - start_time: 1\n"},
		{name: "malformed", file: "song.json", content: `{"sections":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := game.LoadContent(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := game.LoadContent(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultContent(t *testing.T) {
	sections := game.DefaultContent()
	require.NoError(t, game.ValidateContent(sections))
	assert.Equal(t, []game.Pose{game.PoseHandsUp, game.PoseHandsOnHead, game.PoseHandsOnFront},
		[]game.Pose{sections[0].Pose, sections[1].Pose, sections[2].Pose})
}

func TestConfig_Content(t *testing.T) {
	cfg := game.DefaultConfig()
	sections, err := cfg.Content()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultContent(), sections)

	inline := []game.Section{{StartTime: 3, Pose: game.PoseHandsOnHead}}
	cfg.Merge(&game.Config{Sections: inline})
	sections, err = cfg.Content()
	require.NoError(t, err)
	assert.Equal(t, inline, sections)

	cfg.Merge(&game.Config{ContentFile: writeFile(t, "song.yml", "sections:\n  - start_time: 7\n    pose: HANDS_UP\n")})
	sections, err = cfg.Content()
	require.NoError(t, err)
	assert.Equal(t, []game.Section{{StartTime: 7, Pose: game.PoseHandsUp}}, sections)
}

func TestConfig_Merge(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Merge(&game.Config{
		Channels:    game.Channels{Say: "robot/say"},
		PoseTimeout: 20,
		Pacing:      game.Pacing{Hold: ms(500)},
	})

	assert.Equal(t, "robot/say", cfg.Channels.Say)
	assert.Equal(t, game.DefaultChannels().UserCommand, cfg.Channels.UserCommand)
	assert.Equal(t, 20, cfg.PoseTimeout)
	assert.Equal(t, ms(500), cfg.Pacing.Hold)
	assert.Equal(t, game.DefaultConfig().Pacing.LeadIn, cfg.Pacing.LeadIn)
	assert.Equal(t, "tourne_tourne_petit_moulin.wav", cfg.Song)
}
