// Package server implements the shared state of the Awalé game server:
// the online client table, pending challenges, active games and the
// matchmaking queue, plus the per-connection session handler and
// command dispatcher that operate on them.
//
// Three mutexes guard disjoint concerns. When more than one must be
// held at once, acquire in the order clientsMutex -> challengeMutex ->
// gameMutex and release in reverse; handlers are written to copy state
// out under a lock and release it before doing any socket I/O.
package server

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/awale"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/config"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/store"
)

// MaxUsernameLen bounds a username, independent of the wire field width.
const MaxUsernameLen = 31

// Server owns every piece of shared mutable state for one running
// instance, per the single-owner design used in place of free-floating
// globals and intrusive lists.
type Server struct {
	cfg   *config.Config
	store *store.Store

	clientsMutex sync.Mutex
	clients      map[string]*connectedClient
	matchWaiter  *string

	challengeMutex sync.Mutex
	challenges     map[int]*Challenge

	// gameMutex also guards nextGameID: challenges and games share one
	// id space, since a challenge pre-allocates the game_id /accept
	// will use to create the Game.
	gameMutex  sync.Mutex
	games      map[int]*awale.Game
	nextGameID int
}

// New creates a Server, loads persisted games, and computes the next
// game id from them.
func New(cfg *config.Config, st *store.Store) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		store:      st,
		clients:    make(map[string]*connectedClient),
		challenges: make(map[int]*Challenge),
		games:      make(map[int]*awale.Game),
	}

	games, nextID, err := st.LoadAllGames()
	if err != nil {
		return nil, fmt.Errorf("server: load games: %w", err)
	}
	for _, g := range games {
		if g.Status == awale.StatusOngoing {
			s.games[g.ID] = g
		}
	}
	s.nextGameID = nextID

	log.Printf("server: loaded %d active game(s), next id %d", len(s.games), s.nextGameID)
	return s, nil
}

// allocateID hands out the next game/challenge id. Callers must already
// hold gameMutex.
func (s *Server) allocateID() int {
	id := s.nextGameID
	s.nextGameID++
	return id
}

// HandleConnection drives one accepted connection through its full
// session lifecycle. It returns once the connection is closed.
func (s *Server) HandleConnection(conn net.Conn) {
	newSession(s, conn).serve()
}
