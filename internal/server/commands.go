package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Matthieu-LAURENT39/awale-network-game/internal/awale"
	"github.com/Matthieu-LAURENT39/awale-network-game/internal/protocol"
)

const helpText = `Commands:
/help                      this list
/list                      online users
/info <user>               a user's biography
/bio <text>                set your biography
/addfriend <user>          add a friend
/removefriend <user>       remove a friend
/getfriends                list your friends
/mp <user> <msg>           private message
/challenge <user>          challenge a user to a game
/accept <id>               accept a challenge
/decline <id>              decline a challenge
/match                     join matchmaking
/move <id> <hole 1-12>     play a move
/forfeit <id>              forfeit a game
/listgames                 list known games
/gameinfo <id>             show a game's board
/history <id>              show a game's move history
/visibility <id> <0|1>     set a game's visibility (host only)
/watch <id>                spectate a public game, or a private one you can see
/unwatch <id>              stop spectating
/chat <id> <msg>           chat with your opponent in a game
/exit                      disconnect`

// dispatch parses line (which begins with "/") and runs the matching
// command. Unknown commands get a single SERVER reply, "Unknown command."
func (s *Server) dispatch(sess *session, line string) {
	line = strings.TrimPrefix(line, "/")
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	handler, ok := commandTable[name]
	if !ok {
		sess.Send(protocol.NewServerMessage(errorMsg("Unknown command.")))
		return
	}
	handler(s, sess, rest)
}

type commandHandler func(s *Server, sess *session, rest string)

var commandTable = map[string]commandHandler{
	"help":         cmdHelp,
	"list":         cmdList,
	"info":         cmdInfo,
	"bio":          cmdBio,
	"addfriend":    cmdAddFriend,
	"removefriend": cmdRemoveFriend,
	"getfriends":   cmdGetFriends,
	"mp":           cmdPrivateMessage,
	"challenge":    cmdChallenge,
	"accept":       cmdAccept,
	"decline":      cmdDecline,
	"match":        cmdMatch,
	"move":         cmdMove,
	"forfeit":      cmdForfeit,
	"listgames":    cmdListGames,
	"gameinfo":     cmdGameInfo,
	"history":      cmdHistory,
	"visibility":   cmdVisibility,
	"watch":        cmdWatch,
	"unwatch":      cmdUnwatch,
	"chat":         cmdChat,
	"exit":         cmdExit,
}

func reply(sess *session, text string) {
	sess.Send(protocol.NewServerMessage(text))
}

func replyErr(sess *session, text string) {
	reply(sess, errorMsg(text))
}

func replyOK(sess *session, text string) {
	reply(sess, successMsg(text))
}

func cmdHelp(s *Server, sess *session, rest string) {
	reply(sess, helpText)
}

func cmdList(s *Server, sess *session, rest string) {
	names := s.onlineUsernames()
	reply(sess, fmt.Sprintf("Online (%d): %s", len(names), strings.Join(names, ", ")))
}

func cmdInfo(s *Server, sess *session, rest string) {
	if rest == "" {
		replyErr(sess, "Usage: /info <user>")
		return
	}
	u, found, err := s.store.LoadUser(rest)
	if err != nil {
		replyErr(sess, "Could not load that user.")
		return
	}
	if !found {
		replyErr(sess, "No such user.")
		return
	}
	reply(sess, fmt.Sprintf("%s: %s", u.Username, u.Bio))
}

func cmdBio(s *Server, sess *session, rest string) {
	if len(rest) > protocol.MaxDataLen {
		rest = rest[:protocol.MaxDataLen]
	}
	u, found, err := s.store.LoadUser(sess.username)
	if err != nil || !found {
		replyErr(sess, "Could not load your account.")
		return
	}
	u.Bio = rest
	if err := s.store.SaveUser(u); err != nil {
		replyErr(sess, "Could not save your biography.")
		return
	}
	replyOK(sess, "Biography updated.")
}

func cmdAddFriend(s *Server, sess *session, rest string) {
	target := strings.TrimSpace(rest)
	if target == "" {
		replyErr(sess, "Usage: /addfriend <user>")
		return
	}
	if target == sess.username {
		replyErr(sess, "You cannot friend yourself.")
		return
	}
	if !s.store.Exists(target) {
		replyErr(sess, "No such user.")
		return
	}
	added, err := s.store.AddFriend(sess.username, target)
	if err != nil {
		replyErr(sess, err.Error())
		return
	}
	if !added {
		replyErr(sess, fmt.Sprintf("%s is already your friend.", target))
		return
	}
	replyOK(sess, fmt.Sprintf("Added %s as a friend.", target))
}

func cmdRemoveFriend(s *Server, sess *session, rest string) {
	target := strings.TrimSpace(rest)
	if target == "" {
		replyErr(sess, "Usage: /removefriend <user>")
		return
	}
	removed, err := s.store.RemoveFriend(sess.username, target)
	if err != nil {
		replyErr(sess, err.Error())
		return
	}
	if !removed {
		replyErr(sess, fmt.Sprintf("%s is not your friend.", target))
		return
	}
	replyOK(sess, fmt.Sprintf("Removed %s.", target))
}

func cmdGetFriends(s *Server, sess *session, rest string) {
	u, found, err := s.store.LoadUser(sess.username)
	if err != nil || !found {
		replyErr(sess, "Could not load your account.")
		return
	}
	if len(u.Friends) == 0 {
		reply(sess, "You have no friends yet.")
		return
	}
	reply(sess, "Friends: "+strings.Join(u.Friends, ", "))
}

func cmdPrivateMessage(s *Server, sess *session, rest string) {
	target, body, ok := strings.Cut(rest, " ")
	if !ok || target == "" || body == "" {
		replyErr(sess, "Usage: /mp <user> <message>")
		return
	}
	if target == sess.username {
		replyErr(sess, "You cannot message yourself.")
		return
	}
	if !s.sendTo(target, protocol.NewPrivateMessage(sess.username, body)) {
		replyErr(sess, "That user is not online.")
	}
}

func cmdChallenge(s *Server, sess *session, rest string) {
	target := strings.TrimSpace(rest)
	if target == "" {
		replyErr(sess, "Usage: /challenge <user>")
		return
	}
	if target == sess.username {
		replyErr(sess, "You cannot challenge yourself.")
		return
	}
	if _, online := s.findClient(target); !online {
		replyErr(sess, "That user is not online.")
		return
	}

	c := s.addChallenge(sess.username, target)
	if !s.sendTo(target, protocol.NewTextMessage(sess.username,
		fmt.Sprintf("%s has challenged you to a game. /accept %d or /decline %d.", sess.username, c.GameID, c.GameID))) {
		replyErr(sess, "That user is not online.")
		return
	}
	replyOK(sess, fmt.Sprintf("Challenge sent (id %d).", c.GameID))
}

func cmdAccept(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /accept <id>")
		return
	}
	c, ok := s.findAndRemoveChallenge(id, sess.username)
	if !ok {
		replyErr(sess, "No such challenge.")
		return
	}

	g, _ := s.createGame(c.GameID, c.Challenger, c.Challenged)
	notifyGameStart(s, g)
}

func cmdDecline(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /decline <id>")
		return
	}
	c, ok := s.findAndRemoveChallenge(id, sess.username)
	if !ok {
		replyErr(sess, "No such challenge.")
		return
	}
	s.sendTo(c.Challenger, protocol.NewServerMessage(fmt.Sprintf("%s declined your challenge.", sess.username)))
	replyOK(sess, "Challenge declined.")
}

func cmdMatch(s *Server, sess *session, rest string) {
	opponent, queued := s.matchWait(sess.username)
	if queued {
		reply(sess, "Queued for matchmaking.")
		return
	}
	g, _ := s.createGame(s.nextID(), opponent, sess.username)
	notifyGameStart(s, g)
}

func notifyGameStart(s *Server, g *awale.Game) {
	var info string
	s.readGame(g.ID, func(g *awale.Game) {
		info = awale.Serialize(g)
	})
	for _, player := range g.Players {
		s.sendTo(player, protocol.NewServerMessage(fmt.Sprintf("Game %d started: %s vs %s.", g.ID, g.Players[0], g.Players[1])))
		s.sendTo(player, protocol.NewInfoMessage(info))
	}
}

func cmdMove(s *Server, sess *session, rest string) {
	idStr, holeStr, ok := strings.Cut(rest, " ")
	if !ok {
		replyErr(sess, "Usage: /move <id> <hole 1-12>")
		return
	}
	id, err1 := strconv.Atoi(idStr)
	hole1Based, err2 := strconv.Atoi(strings.TrimSpace(holeStr))
	if err1 != nil || err2 != nil {
		replyErr(sess, "Usage: /move <id> <hole 1-12>")
		return
	}

	g, ok := s.getGame(id)
	if !ok {
		replyErr(sess, "No such active game.")
		return
	}
	player, isParticipant := g.PlayerNumber(sess.username)
	if !isParticipant {
		replyErr(sess, "You are not a participant in that game.")
		return
	}

	hole := hole1Based - 1
	var res awale.Result
	var watchers []string
	var info, overMsg string
	found := s.withGame(id, func(g *awale.Game) {
		res = g.Move(player, hole)
		if res.IsError() {
			return
		}
		for w := range g.Watchers {
			watchers = append(watchers, w)
		}
		info = awale.Serialize(g)
		if res == awale.ResultGameOver {
			overMsg = fmt.Sprintf("Game %d over: %s %d - %d %s (%s).",
				g.ID, g.Players[0], g.Board.Scores[0], g.Board.Scores[1], g.Players[1], g.Status)
		}
	})
	if !found {
		replyErr(sess, "That game just ended.")
		return
	}

	if res.IsError() {
		replyErr(sess, res.Error())
		return
	}

	for _, p := range g.Players {
		s.sendTo(p, protocol.NewServerMessage(fmt.Sprintf("%s played hole %d.", sess.username, hole1Based)))
		s.sendTo(p, protocol.NewInfoMessage(info))
	}
	for _, w := range watchers {
		s.sendTo(w, protocol.NewInfoMessage(info))
	}

	if overMsg != "" {
		for _, p := range g.Players {
			s.sendTo(p, protocol.NewServerMessage(overMsg))
		}
	}
}

func cmdForfeit(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /forfeit <id>")
		return
	}
	g, ok := s.getGame(id)
	if !ok {
		replyErr(sess, "No such active game.")
		return
	}
	player, isParticipant := g.PlayerNumber(sess.username)
	if !isParticipant {
		replyErr(sess, "You are not a participant in that game.")
		return
	}

	if !s.withGame(id, func(g *awale.Game) {
		g.Forfeit(player)
	}) {
		replyErr(sess, "That game just ended.")
		return
	}

	for _, p := range g.Players {
		s.sendTo(p, protocol.NewServerMessage(fmt.Sprintf("%s forfeited game %d.", sess.username, id)))
	}
}

func cmdListGames(s *Server, sess *session, rest string) {
	games, err := s.listGames()
	if err != nil {
		replyErr(sess, "Could not list games.")
		return
	}
	if len(games) == 0 {
		reply(sess, "No games known.")
		return
	}

	var b strings.Builder
	for _, g := range games {
		marker := ""
		if g.IsParticipant(sess.username) {
			marker = "[YOU] "
		}
		fmt.Fprintf(&b, "%sGame %d: %s vs %s (%s)\n", marker, g.ID, g.Players[0], g.Players[1], gameStatusText(g.Status))
	}
	reply(sess, strings.TrimRight(b.String(), "\n"))
}

func gameStatusText(status awale.Status) string {
	switch status {
	case awale.StatusOngoing:
		return "ongoing"
	case awale.StatusPlayer0Won:
		return "p0 won"
	case awale.StatusPlayer1Won:
		return "p1 won"
	default:
		return "draw"
	}
}

func cmdGameInfo(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /gameinfo <id>")
		return
	}
	g, err := s.findAnyGame(id)
	if err != nil {
		replyErr(sess, "No such game.")
		return
	}
	sess.Send(protocol.NewInfoMessage(awale.Serialize(g)))
}

func cmdHistory(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /history <id>")
		return
	}
	g, err := s.findAnyGame(id)
	if err != nil {
		replyErr(sess, "No such game.")
		return
	}
	if len(g.History) == 0 {
		reply(sess, "No moves played yet.")
		return
	}

	var b strings.Builder
	for _, m := range g.History {
		fmt.Fprintf(&b, "%s played hole %d\n", g.Players[m.Player], m.Hole+1)
	}
	reply(sess, strings.TrimRight(b.String(), "\n"))
}

func cmdVisibility(s *Server, sess *session, rest string) {
	idStr, valStr, ok := strings.Cut(rest, " ")
	if !ok {
		replyErr(sess, "Usage: /visibility <id> <0|1>")
		return
	}
	id, err1 := strconv.Atoi(idStr)
	val, err2 := strconv.Atoi(strings.TrimSpace(valStr))
	if err1 != nil || err2 != nil || (val != 0 && val != 1) {
		replyErr(sess, "Usage: /visibility <id> <0|1>")
		return
	}

	g, ok := s.getGame(id)
	if !ok {
		replyErr(sess, "No such active game.")
		return
	}
	if g.Players[0] != sess.username {
		replyErr(sess, "Only the host may change visibility.")
		return
	}

	s.withGame(id, func(g *awale.Game) {
		g.Visibility = awale.Visibility(val)
	})
	replyOK(sess, "Visibility updated.")
}

func cmdWatch(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /watch <id>")
		return
	}
	g, ok := s.getGame(id)
	if !ok {
		replyErr(sess, "No such active game.")
		return
	}
	if g.IsParticipant(sess.username) {
		replyErr(sess, "You are already playing in that game.")
		return
	}

	var alreadyWatching, private bool
	s.readGame(id, func(g *awale.Game) {
		alreadyWatching = g.IsWatching(sess.username)
		private = g.Visibility == awale.VisibilityPrivate
	})
	if alreadyWatching {
		replyErr(sess, "You are already watching that game.")
		return
	}
	if private {
		allowed := false
		for _, p := range g.Players {
			if ok, _ := s.store.IsFriend(sess.username, p); ok {
				allowed = true
				break
			}
		}
		if !allowed {
			replyErr(sess, "That game is private.")
			return
		}
	}

	var added bool
	var info string
	s.withGame(id, func(g *awale.Game) {
		added = g.AddWatcher(sess.username)
		info = awale.Serialize(g)
	})
	if !added {
		replyErr(sess, "That game already has the maximum number of watchers.")
		return
	}
	sess.Send(protocol.NewInfoMessage(info))
}

func cmdUnwatch(s *Server, sess *session, rest string) {
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		replyErr(sess, "Usage: /unwatch <id>")
		return
	}
	if _, ok := s.getGame(id); !ok {
		replyErr(sess, "No such active game.")
		return
	}
	s.withGame(id, func(g *awale.Game) {
		g.RemoveWatcher(sess.username)
	})
	replyOK(sess, "Stopped watching.")
}

func cmdChat(s *Server, sess *session, rest string) {
	idStr, body, ok := strings.Cut(rest, " ")
	if !ok {
		replyErr(sess, "Usage: /chat <id> <message>")
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		replyErr(sess, "Usage: /chat <id> <message>")
		return
	}
	g, ok := s.getGame(id)
	if !ok {
		replyErr(sess, "No such active game.")
		return
	}
	if !g.IsParticipant(sess.username) {
		replyErr(sess, "You are not a participant in that game.")
		return
	}

	msg := protocol.NewGameChatMessage(sess.username, body)
	for _, p := range g.Players {
		if p != sess.username {
			s.sendTo(p, msg)
		}
	}
}

func cmdExit(s *Server, sess *session, rest string) {
	reply(sess, "Goodbye.")
	sess.closeRequested = true
}

// findAnyGame looks up a game by id, checking the active list first and
// falling back to disk for completed games (gameinfo/history remain
// available for those per the persistence contract). An active game is
// copied out under gameMutex before it is returned, since its live
// pointer keeps mutating under withGame long after this call returns.
func (s *Server) findAnyGame(id int) (*awale.Game, error) {
	var snapshot awale.Game
	if found := s.readGame(id, func(g *awale.Game) { snapshot = *g }); found {
		return &snapshot, nil
	}
	return s.store.LoadGame(id)
}
