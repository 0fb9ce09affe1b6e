// Package store persists users and games to the flat files described by
// the wire/persistence schema: one file per user under a users
// directory, one file per game under a games directory. It replaces the
// reference server's SQL-backed layer entirely.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is a flat-file backed repository for users and games, rooted at
// two directories created (if absent) on construction.
type Store struct {
	usersDir string
	gamesDir string
}

// New creates a Store and ensures usersDir/gamesDir exist.
func New(usersDir, gamesDir string) (*Store, error) {
	if err := os.MkdirAll(usersDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create users dir: %w", err)
	}
	if err := os.MkdirAll(gamesDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create games dir: %w", err)
	}
	return &Store{usersDir: usersDir, gamesDir: gamesDir}, nil
}

func (s *Store) userPath(username string) string {
	return filepath.Join(s.usersDir, username+".dat")
}

func (s *Store) gamePath(id int) string {
	return filepath.Join(s.gamesDir, fmt.Sprintf("game_%d.dat", id))
}
