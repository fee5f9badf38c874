package apps

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Preference keys, also used as menu tags
const (
	PrefDarkMode     = "settings.dark-mode"
	PrefReduceMotion = "settings.reduce-motion"
	PrefShowClock    = "settings.show-clock"
)

var prefLabels = map[string]string{
	PrefDarkMode:     "Dark Mode",
	PrefReduceMotion: "Reduce Motion",
	PrefShowClock:    "Show Clock in Menu Bar",
}

// Settings is a single-window preferences app that quits with its window
type Settings struct {
	env types.AppEnv

	mu    sync.Mutex
	prefs map[string]bool
}

// NewSettings is the settings factory
func NewSettings(_ context.Context, env types.AppEnv) (types.AppLifecycle, error) {
	return &Settings{
		env: env,
		prefs: map[string]bool{
			PrefDarkMode:     false,
			PrefReduceMotion: false,
			PrefShowClock:    true,
		},
	}, nil
}

func (s *Settings) OnInitialize(context.Context, types.WindowHandle) error {
	return nil
}

func (s *Settings) OnCleanup(context.Context) error {
	return nil
}

// QuitWhenLastWindowClosed ends the settings process with its window
func (s *Settings) QuitWhenLastWindowClosed() bool {
	return true
}

// Pref returns the value of a preference
func (s *Settings) Pref(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs[key]
}

func (s *Settings) Menus() []types.Menu {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.prefs))
	for k := range s.prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]types.MenuEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, types.Toggle(prefLabels[k], k, s.prefs[k]))
	}
	return []types.Menu{{Title: "Preferences", Entries: entries}}
}

func (s *Settings) HandleMenuAction(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.prefs[tag]
	if !ok {
		return fmt.Errorf("settings: unhandled menu action %q", tag)
	}
	s.prefs[tag] = !v
	return nil
}
