package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/awale"
)

// SaveGame overwrites g's file with the pipe-delimited record:
//
//	id|p0|p1|score0|score1|turn|status|visibility|b0|...|b11|mover0|hole0|...
//
// Move history is appended as alternating mover/hole pairs so a restart
// can fully reconstitute play without depending on the client-facing
// INFO text form.
func (s *Store) SaveGame(g *awale.Game) error {
	fields := make([]string, 0, 8+awale.NumHoles+2*len(g.History))
	fields = append(fields,
		strconv.Itoa(g.ID),
		g.Players[awale.Player0],
		g.Players[awale.Player1],
		strconv.Itoa(g.Board.Scores[awale.Player0]),
		strconv.Itoa(g.Board.Scores[awale.Player1]),
		strconv.Itoa(int(g.Board.Turn)),
		strconv.Itoa(int(g.Status)),
		strconv.Itoa(int(g.Visibility)),
	)
	for _, h := range g.Board.Holes {
		fields = append(fields, strconv.Itoa(h))
	}
	for _, m := range g.History {
		fields = append(fields, strconv.Itoa(int(m.Player)), strconv.Itoa(m.Hole))
	}

	record := strings.Join(fields, "|")
	if err := os.WriteFile(s.gamePath(g.ID), []byte(record), 0o644); err != nil {
		return fmt.Errorf("store: save game %d: %w", g.ID, err)
	}
	return nil
}

// LoadGame parses one game file by id.
func (s *Store) LoadGame(id int) (*awale.Game, error) {
	raw, err := os.ReadFile(s.gamePath(id))
	if err != nil {
		return nil, fmt.Errorf("store: load game %d: %w", id, err)
	}
	return parseGameRecord(strings.TrimSpace(string(raw)))
}

// LoadAllGames scans the games directory and reconstitutes every stored
// game, plus the next unused game id (max loaded id + 1, or 1 if none
// are present), per the persistence layer's startup contract.
func (s *Store) LoadAllGames() (games []*awale.Game, nextID int, err error) {
	entries, err := os.ReadDir(s.gamesDir)
	if err != nil {
		return nil, 1, fmt.Errorf("store: list games: %w", err)
	}

	maxID := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "game_") || filepath.Ext(name) != ".dat" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.gamesDir, name))
		if err != nil {
			return nil, 1, fmt.Errorf("store: read %s: %w", name, err)
		}
		g, err := parseGameRecord(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, 1, fmt.Errorf("store: parse %s: %w", name, err)
		}
		games = append(games, g)
		if g.ID > maxID {
			maxID = g.ID
		}
	}
	return games, maxID + 1, nil
}

// parseGameRecord decodes one pipe-delimited record. Each move-history
// pair is scanned into its own dedicated locals (moverField, holeField)
// and appended to History; it never writes into the board or turn
// fields being built up alongside it, unlike the reference reloader
// this layer replaces.
func parseGameRecord(record string) (*awale.Game, error) {
	fields := strings.Split(record, "|")
	const fixedFields = 8
	if len(fields) < fixedFields+awale.NumHoles {
		return nil, fmt.Errorf("store: malformed game record: %d fields", len(fields))
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("store: game id: %w", err)
	}

	g := &awale.Game{
		ID:       id,
		Players:  [2]string{fields[1], fields[2]},
		Watchers: make(map[string]struct{}),
	}

	score0, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("store: score0: %w", err)
	}
	score1, err := strconv.Atoi(fields[4])
	if err != nil {
		return nil, fmt.Errorf("store: score1: %w", err)
	}
	g.Board.Scores = [2]int{score0, score1}

	turn, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("store: turn: %w", err)
	}
	g.Board.Turn = awale.Player(turn)

	status, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, fmt.Errorf("store: status: %w", err)
	}
	g.Status = awale.Status(status)

	visibility, err := strconv.Atoi(fields[7])
	if err != nil {
		return nil, fmt.Errorf("store: visibility: %w", err)
	}
	g.Visibility = awale.Visibility(visibility)

	for i := 0; i < awale.NumHoles; i++ {
		n, err := strconv.Atoi(fields[fixedFields+i])
		if err != nil {
			return nil, fmt.Errorf("store: hole %d: %w", i, err)
		}
		g.Board.Holes[i] = n
	}

	historyFields := fields[fixedFields+awale.NumHoles:]
	for i := 0; i+1 < len(historyFields); i += 2 {
		moverField, err := strconv.Atoi(historyFields[i])
		if err != nil {
			return nil, fmt.Errorf("store: move history mover: %w", err)
		}
		holeField, err := strconv.Atoi(historyFields[i+1])
		if err != nil {
			return nil, fmt.Errorf("store: move history hole: %w", err)
		}
		g.History = append(g.History, awale.Move{Player: awale.Player(moverField), Hole: holeField})
	}

	return g, nil
}

// DeleteGame is unused in normal operation — completed games are left on
// disk — but is kept for administrative cleanup tooling.
func (s *Store) DeleteGame(id int) error {
	if err := os.Remove(s.gamePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete game %d: %w", id, err)
	}
	return nil
}
