package cmd

import "testing"

func TestGuide(t *testing.T) {
	t.Run("main guide", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("guide")
		env.contains(out, "# dock")
	})

	t.Run("lists available on not found", func(t *testing.T) {
		env := newTestEnv(t)

		out, _ := env.runErr("guide", "nonexistent")
		env.contains(out, "Available:")
	})
}

func TestGuide_Topics(t *testing.T) {
	tests := []struct {
		topic   string
		contain string
	}{
		{"search", "# Command palette"},
		{"keys", "# Key bindings"},
		{"links", "dock://"},
		{"config", "# Configuration"},
		{"docks", "# Docks"},
		{"serve", "dock serve"},
	}

	for _, tc := range tests {
		t.Run(tc.topic, func(t *testing.T) {
			env := newTestEnv(t)

			out := env.run("guide", tc.topic)
			env.contains(out, tc.contain)
		})
	}
}

func TestGuide_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runErr("guide", "nonexistent")
	if err == nil {
		t.Error("Guide(nonexistent) = nil, want error")
	}
}
