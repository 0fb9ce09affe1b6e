package awale

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders g as the human-readable multi-line form sent in
// INFO messages: id, both usernames, scores, the board array and the
// username whose turn is next.
func Serialize(g *Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game ID: %d\n", g.ID)
	fmt.Fprintf(&b, "Players: %s vs %s\n", g.Players[Player0], g.Players[Player1])
	fmt.Fprintf(&b, "Scores: %s: %d, %s: %d\n",
		g.Players[Player0], g.Board.Scores[Player0],
		g.Players[Player1], g.Board.Scores[Player1])

	holes := make([]string, NumHoles)
	for i, n := range g.Board.Holes {
		holes[i] = strconv.Itoa(n)
	}
	fmt.Fprintf(&b, "Board: %s\n", strings.Join(holes, ", "))
	fmt.Fprintf(&b, "Next turn: %s\n", g.Players[g.Board.Turn])
	return b.String()
}

// Deserialize reconstitutes a Game from the text Serialize produces.
// It carries no move history, watcher set or visibility — those are not
// part of the client-facing INFO form — so it is only used by clients
// to render a board locally, never to reload server-side state (that
// uses the pipe-delimited persistence format instead, see
// internal/store).
func Deserialize(s string) (*Game, error) {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) < 5 {
		return nil, fmt.Errorf("awale: deserialize: expected 5 lines, got %d", len(lines))
	}

	g := &Game{Watchers: make(map[string]struct{})}

	if _, err := fmt.Sscanf(lines[0], "Game ID: %d", &g.ID); err != nil {
		return nil, fmt.Errorf("awale: deserialize: game id: %w", err)
	}

	var p0, p1 string
	if _, err := fmt.Sscanf(lines[1], "Players: %s vs %s", &p0, &p1); err != nil {
		return nil, fmt.Errorf("awale: deserialize: players: %w", err)
	}
	g.Players = [2]string{p0, p1}

	rest := strings.TrimPrefix(lines[2], "Scores: ")
	parts := strings.SplitN(rest, ", ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("awale: deserialize: malformed scores line %q", lines[2])
	}
	if _, err := fmt.Sscanf(parts[0], p0+": %d", &g.Board.Scores[Player0]); err != nil {
		return nil, fmt.Errorf("awale: deserialize: score0: %w", err)
	}
	if _, err := fmt.Sscanf(parts[1], p1+": %d", &g.Board.Scores[Player1]); err != nil {
		return nil, fmt.Errorf("awale: deserialize: score1: %w", err)
	}

	boardLine := strings.TrimPrefix(lines[3], "Board: ")
	fields := strings.Split(boardLine, ", ")
	if len(fields) != NumHoles {
		return nil, fmt.Errorf("awale: deserialize: expected %d holes, got %d", NumHoles, len(fields))
	}
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("awale: deserialize: hole %d: %w", i, err)
		}
		g.Board.Holes[i] = n
	}

	turnName := strings.TrimPrefix(lines[4], "Next turn: ")
	switch turnName {
	case p0:
		g.Board.Turn = Player0
	case p1:
		g.Board.Turn = Player1
	default:
		return nil, fmt.Errorf("awale: deserialize: unknown turn username %q", turnName)
	}

	return g, nil
}
