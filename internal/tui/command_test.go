package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"q", Command{Name: "q"}},
		{"  Chat  project team ", Command{Name: "chat", Args: "project team"}},
		{"presence away", Command{Name: "presence", Args: "away"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCommandAttachment(t *testing.T) {
	o, ok, err := ParseCommand("file plan.pdf 4096").Attachment()
	if err != nil || !ok || o.Kind != "file" || o.FileName != "plan.pdf" || o.FileSize != 4096 {
		t.Errorf("file = %+v, %v, %v", o, ok, err)
	}
	o, ok, err = ParseCommand("image https://x/y.png").Attachment()
	if err != nil || !ok || o.Kind != "image" || o.FileURL != "https://x/y.png" {
		t.Errorf("image = %+v, %v, %v", o, ok, err)
	}
	if o, ok, err = ParseCommand("voice").Attachment(); err != nil || !ok || o.Kind != "voice" {
		t.Errorf("voice = %+v, %v, %v", o, ok, err)
	}

	for _, bad := range []string{"image", "file", "file a.pdf lots"} {
		if _, ok, err := ParseCommand(bad).Attachment(); !ok || err == nil {
			t.Errorf("%q: ok = %v, err = %v; want usage error", bad, ok, err)
		}
	}
	if _, ok, _ := ParseCommand("chat bob").Attachment(); ok {
		t.Error(":chat should not send")
	}
}
