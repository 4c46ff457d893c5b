package prompts

import (
	"strings"
	"testing"
)

func TestGet_AllKindsPresent(t *testing.T) {
	for _, kind := range []string{"mission_brief", "quest_congrats", "quest_encouragement", "chapter_story"} {
		tpl, err := Get(kind)
		if err != nil {
			t.Fatalf("Get(%q): %v", kind, err)
		}
		if strings.TrimSpace(tpl.System) == "" || strings.TrimSpace(tpl.User) == "" {
			t.Fatalf("Get(%q): empty template", kind)
		}
	}
}

func TestGet_UnknownKind(t *testing.T) {
	if _, err := Get("campfire_song"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRender_FillsPlaceholders(t *testing.T) {
	tpl, err := Get("mission_brief")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, user := tpl.Render(map[string]string{
		"quest_title":       "Slay the Dust Bunnies",
		"quest_description": "Vacuum under the bed",
		"realm":             "bedroom",
		"difficulty":        "2",
		"session_title":     "The Spring Purge",
	})
	if !strings.Contains(user, "Slay the Dust Bunnies") {
		t.Fatalf("quest title not rendered: %s", user)
	}
	if strings.Contains(user, "{{quest_title}}") {
		t.Fatalf("placeholder left behind: %s", user)
	}
}

func TestRender_LeavesUnknownPlaceholders(t *testing.T) {
	tpl := Template{System: "s", User: "hello {{missing}}"}
	_, user := tpl.Render(map[string]string{"other": "x"})
	if user != "hello {{missing}}" {
		t.Fatalf("unexpected render: %q", user)
	}
}
