package workspace

import "testing"

func TestSoundFor(t *testing.T) {
	tests := map[string]string{
		"slice":   "/sounds/knife-cutting.mp3",
		"dice":    "/sounds/knife-chopping.mp3",
		"chop":    "/sounds/knife-chopping.mp3",
		"mash":    "/sounds/mashing.mp3",
		"mix":     "/sounds/mixing.mp3",
		"squeeze": "/sounds/action.mp3",
		"":        "/sounds/action.mp3",
	}
	for action, want := range tests {
		if got := SoundFor(action); got != want {
			t.Errorf("SoundFor(%q) = %q, want %q", action, got, want)
		}
	}
}
