package awale

// Visibility controls who may /watch a game without being a friend of
// one of its participants.
type Visibility int

const (
	VisibilityPrivate Visibility = 0
	VisibilityPublic  Visibility = 1
)

// Game is one Awalé session: the board plus everything needed to
// persist, serialize and re-derive it without touching global state.
// Game itself carries no mutex — callers (internal/server) serialize
// access to it under the shared game mutex, per the concurrency model.
type Game struct {
	ID         int
	Players    [2]string // Players[0] moved first
	Board      Board
	Status     Status
	Visibility Visibility
	History    []Move
	Watchers   map[string]struct{}
}

// MaxWatchers is the capacity of a Game's watcher set.
const MaxWatchers = 100

// NewGame creates a fresh game between two players with p0 moving
// first. Visibility defaults to private.
func NewGame(id int, p0, p1 string) *Game {
	return &Game{
		ID:         id,
		Players:    [2]string{p0, p1},
		Board:      NewBoard(),
		Status:     StatusOngoing,
		Visibility: VisibilityPrivate,
		Watchers:   make(map[string]struct{}),
	}
}

// PlayerNumber returns the player index for username and whether it
// participates in this game at all.
func (g *Game) PlayerNumber(username string) (Player, bool) {
	switch username {
	case g.Players[Player0]:
		return Player0, true
	case g.Players[Player1]:
		return Player1, true
	default:
		return 0, false
	}
}

// IsParticipant reports whether username is one of the two players.
func (g *Game) IsParticipant(username string) bool {
	_, ok := g.PlayerNumber(username)
	return ok
}

// Move plays hole for player and, on a terminal result, sets Status from
// the final scores. Returns the same Result the board rules produced.
func (g *Game) Move(player Player, hole int) Result {
	res := MakeMove(&g.Board, &g.History, player, hole)
	if res == ResultGameOver {
		g.Status = FinalStatus(g.Board)
	}
	return res
}

// Forfeit ends the game immediately in favor of the opponent of loser.
// The game is not removed from the active list by this call; callers
// decide active-list membership.
func (g *Game) Forfeit(loser Player) {
	if loser == Player0 {
		g.Status = StatusPlayer1Won
	} else {
		g.Status = StatusPlayer0Won
	}
}

// AddWatcher adds username to the watcher set, enforcing MaxWatchers.
// Returns false if the set is already full.
func (g *Game) AddWatcher(username string) bool {
	if _, already := g.Watchers[username]; already {
		return true
	}
	if len(g.Watchers) >= MaxWatchers {
		return false
	}
	g.Watchers[username] = struct{}{}
	return true
}

// RemoveWatcher removes username from the watcher set.
func (g *Game) RemoveWatcher(username string) {
	delete(g.Watchers, username)
}

// IsWatching reports whether username is currently watching.
func (g *Game) IsWatching(username string) bool {
	_, ok := g.Watchers[username]
	return ok
}
