package store

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
)

const tuiStateFileName = "tui_state.json"

// TUIState stores small, user-facing UI state for restoring the last screen on relaunch.
//
// It is best effort: callers should tolerate missing/invalid data.
type TUIState struct {
	Version int `json:"version"`

	// Sections maps a server+project scope to the last active section key.
	Sections map[string]string `json:"sections,omitempty"`
}

// StateScope identifies one server+project pair.
func StateScope(serverURL, projectID string) string {
	return strings.TrimRight(strings.TrimSpace(serverURL), "/") + "#" + strings.TrimSpace(projectID)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.path(tuiStateFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, tuiStateFileName+".*.tmp", s.path(tuiStateFileName), b, 0o644)
}

// LastSection returns the remembered section key for scope.
func (st *TUIState) LastSection(scope string) string {
	if st == nil {
		return ""
	}
	return st.Sections[scope]
}

func (st *TUIState) SetLastSection(scope, key string) {
	if st.Sections == nil {
		st.Sections = map[string]string{}
	}
	if key == "" {
		delete(st.Sections, scope)
		return
	}
	st.Sections[scope] = key
}
