package server

import (
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/awale"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/config"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/protocol"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "users"), filepath.Join(dir, "games"))
	require.NoError(t, err)

	cfg := &config.Config{MaxClients: 64}
	s, err := New(cfg, st)
	require.NoError(t, err)
	return s
}

// recordingSender is a messageSender that appends every message it
// receives to an in-memory slice, for assertions without a real
// connection.
type recordingSender struct {
	mu       sync.Mutex
	messages []protocol.Message
}

func (r *recordingSender) Send(msg protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingSender) all() []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func TestClaimClientRejectsDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.claimClient("alice", &recordingSender{}))
	err := s.claimClient("alice", &recordingSender{})
	assert.Error(t, err)
}

func TestClaimClientRejectsOverCapacity(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxClients = 1
	require.NoError(t, s.claimClient("alice", &recordingSender{}))
	err := s.claimClient("bob", &recordingSender{})
	assert.Error(t, err)
}

func TestReleaseClientClearsMatchWaiter(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.claimClient("alice", &recordingSender{}))
	_, queued := s.matchWait("alice")
	require.True(t, queued)

	s.releaseClient("alice")

	s.clientsMutex.Lock()
	waiter := s.matchWaiter
	s.clientsMutex.Unlock()
	assert.Nil(t, waiter)
}

func TestOnlineUsernamesAreDistinct(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.claimClient("alice", &recordingSender{}))
	require.NoError(t, s.claimClient("bob", &recordingSender{}))

	names := s.onlineUsernames()
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
}

func TestBroadcastExcludesSender(t *testing.T) {
	s := newTestServer(t)
	alice := &recordingSender{}
	bob := &recordingSender{}
	require.NoError(t, s.claimClient("alice", alice))
	require.NoError(t, s.claimClient("bob", bob))

	s.broadcast(protocol.NewServerMessage("hello"), "alice")

	assert.Empty(t, alice.all())
	assert.Len(t, bob.all(), 1)
}

func TestMatchWaitPairsTwoUsers(t *testing.T) {
	s := newTestServer(t)
	opponent, queued := s.matchWait("alice")
	assert.True(t, queued)
	assert.Empty(t, opponent)

	opponent, queued = s.matchWait("bob")
	assert.False(t, queued)
	assert.Equal(t, "alice", opponent)
}

func TestChallengeAcceptCreatesGameWithSharedID(t *testing.T) {
	s := newTestServer(t)
	c := s.addChallenge("alice", "bob")

	got, ok := s.findAndRemoveChallenge(c.GameID, "bob")
	require.True(t, ok)
	assert.Equal(t, "alice", got.Challenger)

	g, err := s.createGame(got.GameID, got.Challenger, got.Challenged)
	require.NoError(t, err)
	assert.Equal(t, c.GameID, g.ID)

	_, stillPending := s.findAndRemoveChallenge(c.GameID, "bob")
	assert.False(t, stillPending)
}

func TestFindAndRemoveChallengeRejectsWrongRecipient(t *testing.T) {
	s := newTestServer(t)
	c := s.addChallenge("alice", "bob")
	_, ok := s.findAndRemoveChallenge(c.GameID, "carol")
	assert.False(t, ok)
}

// TestConcurrentMoveRaceHasExactlyOneWinner exercises two goroutines
// racing the same turn of the same game: exactly one must see
// ResultContinue/ResultGameOver and the other must see
// ResultErrNotYourTurn.
func TestConcurrentMoveRaceHasExactlyOneWinner(t *testing.T) {
	s := newTestServer(t)
	g, err := s.createGame(s.nextID(), "alice", "bob")
	require.NoError(t, err)

	mover, _ := g.PlayerNumber(g.Players[awale.Player0])

	var wg sync.WaitGroup
	results := make([]awale.Result, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.withGame(g.ID, func(game *awale.Game) {
				results[i] = game.Move(mover, 0)
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		if !r.IsError() {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}

func TestWatchRejectsNonFriendOnPrivateGame(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.SaveUser(&store.User{Username: "alice", Password: "p"}))
	require.NoError(t, s.store.SaveUser(&store.User{Username: "bob", Password: "p"}))
	require.NoError(t, s.store.SaveUser(&store.User{Username: "carol", Password: "p"}))

	g, err := s.createGame(s.nextID(), "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, awale.VisibilityPrivate, g.Visibility)

	carol := &recordingSender{}
	require.NoError(t, s.claimClient("carol", carol))
	// Command replies go straight to the session's own connection.
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	sess := &session{srv: s, conn: serverConn, username: "carol"}

	go cmdWatch(s, sess, fmt.Sprintf("%d", g.ID))

	last, err := protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.Contains(t, last.Data, "private")
	assert.False(t, g.IsWatching("carol"))
}

func TestWatchAllowsFriendOfParticipant(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.SaveUser(&store.User{Username: "alice", Password: "p"}))
	require.NoError(t, s.store.SaveUser(&store.User{Username: "bob", Password: "p"}))
	require.NoError(t, s.store.SaveUser(&store.User{Username: "carol", Password: "p"}))
	_, err := s.store.AddFriend("carol", "alice")
	require.NoError(t, err)

	g, err := s.createGame(s.nextID(), "alice", "bob")
	require.NoError(t, err)

	carol := &recordingSender{}
	require.NoError(t, s.claimClient("carol", carol))
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	sess := &session{srv: s, conn: serverConn, username: "carol"}

	go cmdWatch(s, sess, fmt.Sprintf("%d", g.ID))

	_, err = protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.True(t, g.IsWatching("carol"))
}

// TestHandleConnectionFullHandshake drives a real net.Pipe connection
// through username selection, account creation and one /list command,
// exercising session.serve end to end.
func TestHandleConnectionFullHandshake(t *testing.T) {
	s := newTestServer(t)
	clientConn, serverConn := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.HandleConnection(serverConn)
		close(done)
	}()

	require.NoError(t, protocol.WriteMessage(clientConn, protocol.Message{Username: "newplayer"}))

	msg, err := protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.Equal(t, "Create Password:", msg.Data)

	require.NoError(t, protocol.WriteMessage(clientConn, protocol.NewTextMessage("", "secret")))
	msg, err = protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.Equal(t, "Biography:", msg.Data)

	require.NoError(t, protocol.WriteMessage(clientConn, protocol.NewTextMessage("", "hello there")))

	msg, err = protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.Contains(t, msg.Data, "Welcome")

	require.NoError(t, protocol.WriteMessage(clientConn, protocol.NewTextMessage("", "/list")))
	msg, err = protocol.ReadMessage(clientConn)
	require.NoError(t, err)
	assert.Contains(t, msg.Data, "newplayer")

	require.NoError(t, protocol.WriteMessage(clientConn, protocol.Message{Kind: protocol.KindExit}))
	<-done
	clientConn.Close()
}
