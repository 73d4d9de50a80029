package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SetLeagueID persists id as the default league in the config file at path,
// creating the file when it does not exist. Other settings in the file are
// preserved; comments are not.
func SetLeagueID(path, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("league id must not be empty")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("league id %q must be numeric", id)
		}
	}

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read config: %w", err)
	}

	league, _ := doc["league"].(map[string]any)
	if league == nil {
		league = map[string]any{}
	}
	league["id"] = id
	doc["league"] = league

	encoded, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
