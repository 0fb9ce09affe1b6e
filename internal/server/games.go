package server

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/awale"
)

// createGame builds a Game under id (already allocated by the caller:
// a just-accepted challenge's id, or a fresh one from nextID for /match)
// between p0 and p1, randomizes the first mover, persists it and adds it
// to the active list. Randomizing on every creation path (/match and
// /accept alike) resolves the ambiguity the reference implementations
// disagreed on.
func (s *Server) createGame(id int, p0, p1 string) (*awale.Game, error) {
	g := awale.NewGame(id, p0, p1)
	if rand.Intn(2) == 1 {
		g.Players[0], g.Players[1] = g.Players[1], g.Players[0]
	}

	s.gameMutex.Lock()
	s.games[g.ID] = g
	s.gameMutex.Unlock()

	if err := s.store.SaveGame(g); err != nil {
		log.Printf("server: persist game %d: %v", g.ID, err)
	}
	return g, nil
}

// nextID allocates a fresh game/challenge id under gameMutex.
func (s *Server) nextID() int {
	s.gameMutex.Lock()
	defer s.gameMutex.Unlock()
	return s.allocateID()
}

// getGame returns the game for id under gameMutex. Only ID and Players
// are fixed at creation and safe to read from the returned pointer
// without further locking; every other field (Board, Status,
// Visibility, Watchers, History) can be mutated concurrently by
// withGame and must be read via readGame or withGame instead, never
// straight off this pointer.
func (s *Server) getGame(id int) (*awale.Game, bool) {
	s.gameMutex.Lock()
	defer s.gameMutex.Unlock()
	g, ok := s.games[id]
	return g, ok
}

// readGame runs fn on game id while holding gameMutex, for callers that
// only need to inspect a game's mutable fields and make no change worth
// persisting. It reports whether the game was found.
func (s *Server) readGame(id int, fn func(g *awale.Game)) bool {
	s.gameMutex.Lock()
	defer s.gameMutex.Unlock()
	g, ok := s.games[id]
	if ok {
		fn(g)
	}
	return ok
}

// withGame runs fn on game id while holding gameMutex, then persists the
// game regardless of outcome (best effort, per the persistence-error
// handling rule). It reports whether the game was found.
func (s *Server) withGame(id int, fn func(g *awale.Game)) bool {
	s.gameMutex.Lock()
	g, ok := s.games[id]
	if ok {
		fn(g)
		if g.Status != awale.StatusOngoing {
			delete(s.games, id)
		}
	}
	s.gameMutex.Unlock()

	if ok {
		if err := s.store.SaveGame(g); err != nil {
			log.Printf("server: persist game %d: %v", id, err)
		}
	}
	return ok
}

// listGames returns a snapshot of every known game: those still active
// plus any the persistence layer has on disk from a previous run,
// including terminal ones (needed by /listgames, which must still show
// completed games). Active games are copied out field by field while
// gameMutex is held, so the result never aliases a live *awale.Game
// that withGame could still be mutating.
func (s *Server) listGames() ([]*awale.Game, error) {
	s.gameMutex.Lock()
	active := make(map[int]*awale.Game, len(s.games))
	for id, g := range s.games {
		snapshot := *g
		active[id] = &snapshot
	}
	s.gameMutex.Unlock()

	all, _, err := s.store.LoadAllGames()
	if err != nil {
		return nil, fmt.Errorf("server: list games: %w", err)
	}

	byID := make(map[int]*awale.Game, len(all))
	for _, g := range all {
		byID[g.ID] = g
	}
	for id, g := range active {
		byID[id] = g // the in-memory snapshot is authoritative over the on-disk one
	}

	games := make([]*awale.Game, 0, len(byID))
	for _, g := range byID {
		games = append(games, g)
	}
	return games, nil
}

// matchWait attempts the one-slot matchmaking queue for username. If
// queued is true the caller should simply wait; otherwise opponent holds
// the user that was dequeued and a game should be created immediately.
func (s *Server) matchWait(username string) (opponent string, queued bool) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	if s.matchWaiter == nil {
		waiting := username
		s.matchWaiter = &waiting
		return "", true
	}
	opponent = *s.matchWaiter
	s.matchWaiter = nil
	return opponent, false
}
