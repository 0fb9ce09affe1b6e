package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"regexp"
	"strings"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/protocol"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/store"
)

// sessionState is the per-connection state machine: RECV_USERNAME ->
// AUTHENTICATING -> ACTIVE -> CLOSED.
type sessionState int

const (
	stateRecvUsername sessionState = iota
	stateAuthenticating
	stateActive
	stateClosed
)

var usernamePattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9]{1,%d}$`, MaxUsernameLen))

// session is one live connection's handler. It implements messageSender
// so the client registry can address it without depending on net.Conn.
type session struct {
	srv            *Server
	conn           net.Conn
	state          sessionState
	username       string
	closeRequested bool
}

func newSession(srv *Server, conn net.Conn) *session {
	return &session{srv: srv, conn: conn, state: stateRecvUsername}
}

// Send writes msg to the underlying connection.
func (sess *session) Send(msg protocol.Message) error {
	return protocol.WriteMessage(sess.conn, msg)
}

// serve runs the full per-connection lifecycle until the peer
// disconnects or sends EXIT, per the session handler state machine.
func (sess *session) serve() {
	defer sess.conn.Close()

	if !sess.recvUsername() {
		sess.state = stateClosed
		return
	}

	sess.state = stateAuthenticating
	if !sess.authenticate() {
		sess.state = stateClosed
		return
	}

	sess.state = stateActive
	sess.runActive()

	sess.state = stateClosed
	sess.srv.releaseClient(sess.username)
	sess.srv.broadcast(protocol.NewServerMessage(fmt.Sprintf("%s has disconnected.", sess.username)), sess.username)
}

// recvUsername reads and validates the first message as a candidate
// username. On any rejection it sends EXIT with the reason and returns
// false.
func (sess *session) recvUsername() bool {
	msg, err := protocol.ReadMessage(sess.conn)
	if err != nil {
		return false
	}
	if msg.Kind == protocol.KindExit {
		return false
	}

	name := strings.TrimSpace(msg.Username)
	if !usernamePattern.MatchString(name) {
		sess.Send(protocol.NewExitMessage("Username must be 1-31 alphanumeric characters."))
		return false
	}

	if _, online := sess.srv.findClient(name); online {
		sess.Send(protocol.NewExitMessage("Username already taken."))
		return false
	}

	sess.username = name
	return true
}

// authenticate drives the AUTHENTICATING state: existing users are
// prompted for a password, new ones create an account.
func (sess *session) authenticate() bool {
	u, found, err := sess.srv.store.LoadUser(sess.username)
	if err != nil {
		log.Printf("session: load user %q: %v", sess.username, err)
		sess.Send(protocol.NewExitMessage("Internal error loading account."))
		return false
	}

	if found {
		return sess.authenticateExisting(u)
	}
	return sess.createAccount()
}

func (sess *session) authenticateExisting(u *store.User) bool {
	for {
		if err := sess.Send(protocol.NewServerMessage("Password:")); err != nil {
			return false
		}
		msg, err := protocol.ReadMessage(sess.conn)
		if err != nil || msg.Kind == protocol.KindExit {
			return false
		}
		if msg.Data == u.Password {
			return true
		}
		if err := sess.Send(protocol.NewServerMessage(errorMsg("Incorrect password."))); err != nil {
			return false
		}
	}
}

func (sess *session) createAccount() bool {
	if err := sess.Send(protocol.NewServerMessage("Create Password:")); err != nil {
		return false
	}
	passMsg, err := protocol.ReadMessage(sess.conn)
	if err != nil || passMsg.Kind == protocol.KindExit {
		return false
	}

	if err := sess.Send(protocol.NewServerMessage("Biography:")); err != nil {
		return false
	}
	bioMsg, err := protocol.ReadMessage(sess.conn)
	if err != nil || bioMsg.Kind == protocol.KindExit {
		return false
	}

	u := &store.User{Username: sess.username, Password: passMsg.Data, Bio: bioMsg.Data}
	if err := sess.srv.store.SaveUser(u); err != nil {
		log.Printf("session: save new user %q: %v", sess.username, err)
		sess.Send(protocol.NewServerMessage(errorMsg("Could not create account, try again later.")))
		return false
	}
	return true
}

// runActive claims a registry slot, greets everyone, and loops reading
// commands or chat until disconnect.
func (sess *session) runActive() {
	if err := sess.srv.claimClient(sess.username, sess); err != nil {
		sess.Send(protocol.NewExitMessage(err.Error()))
		return
	}

	sess.Send(protocol.NewServerMessage(successMsg(fmt.Sprintf("Welcome, %s.", sess.username))))
	sess.srv.broadcast(protocol.NewServerMessage(fmt.Sprintf("%s has connected.", sess.username)), sess.username)

	for {
		msg, err := protocol.ReadMessage(sess.conn)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("session: read from %s: %v", sess.username, err)
			}
			return
		}
		if msg.Kind == protocol.KindExit {
			return
		}

		if strings.HasPrefix(msg.Data, "/") {
			sess.srv.dispatch(sess, msg.Data)
			if sess.closeRequested {
				return
			}
			continue
		}

		sess.srv.broadcast(protocol.NewTextMessage(sess.username, msg.Data), sess.username)
	}
}
