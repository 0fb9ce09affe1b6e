package server

import (
	"fmt"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/protocol"
)

// connectedClient is the registry's view of one live session: enough to
// address it and identify its occupant. The session itself owns the
// net.Conn; sender is the narrow interface the registry needs to push a
// message without taking on transport-level responsibilities.
type connectedClient struct {
	username string
	sender   messageSender
}

// messageSender is implemented by *session; kept as an interface so the
// registry has no direct net.Conn dependency.
type messageSender interface {
	Send(msg protocol.Message) error
}

// claimClient reserves username for sender. It fails if the name is
// already claimed or the table is at MaxClients capacity.
func (s *Server) claimClient(username string, sender messageSender) error {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	if _, taken := s.clients[username]; taken {
		return fmt.Errorf("username %q is already connected", username)
	}
	if len(s.clients) >= s.cfg.MaxClients {
		return fmt.Errorf("server is full")
	}
	s.clients[username] = &connectedClient{username: username, sender: sender}
	return nil
}

// releaseClient drops username from the registry and clears it from the
// matchmaking slot if it was waiting there.
func (s *Server) releaseClient(username string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	delete(s.clients, username)
	if s.matchWaiter != nil && *s.matchWaiter == username {
		s.matchWaiter = nil
	}
}

// findClient returns the sender for username, if currently online.
func (s *Server) findClient(username string) (messageSender, bool) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	c, ok := s.clients[username]
	if !ok {
		return nil, false
	}
	return c.sender, true
}

// onlineUsernames returns a snapshot of every connected username.
func (s *Server) onlineUsernames() []string {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	names := make([]string, 0, len(s.clients))
	for name := range s.clients {
		names = append(names, name)
	}
	return names
}

// broadcast sends msg to every connected client except except.
func (s *Server) broadcast(msg protocol.Message, except string) {
	s.clientsMutex.Lock()
	recipients := make([]messageSender, 0, len(s.clients))
	for name, c := range s.clients {
		if name == except {
			continue
		}
		recipients = append(recipients, c.sender)
	}
	s.clientsMutex.Unlock()

	for _, r := range recipients {
		_ = r.Send(msg)
	}
}

// sendTo delivers msg to username if they are online. Reports whether
// the user was found.
func (s *Server) sendTo(username string, msg protocol.Message) bool {
	sender, ok := s.findClient(username)
	if !ok {
		return false
	}
	_ = sender.Send(msg)
	return true
}
