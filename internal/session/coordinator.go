package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/impostor-party/server/internal/game"
	"github.com/impostor-party/server/internal/types"
)

// Config holds the timing knobs that aren't per-room settings.
type Config struct {
	// DisconnectGrace keeps a seat reserved after a transport drop; phones
	// lock in under a minute, so leave ample room to rejoin.
	DisconnectGrace time.Duration
	// GuessTimeout bounds the impostor's last-chance word guess.
	GuessTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DisconnectGrace: 2 * time.Minute,
		GuessTimeout:    15 * time.Second,
	}
}

type client struct {
	outbox   chan types.ServerMessage
	playerID string
}

// Coordinator is the single event loop that owns every live session. All
// mutations — client actions, connects/disconnects, timer expiries — run to
// completion one at a time, so session state needs no locks.
type Coordinator struct {
	inbox  chan Msg
	reg    *Registry
	conns  map[string]*client
	timers map[string]*roomTimers
	grace  map[string]*timerSlot
	gen    uint64
	store  Store
	log    *zap.Logger
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCoordinator(parent context.Context, store Store, log *zap.Logger, cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	c := &Coordinator{
		inbox:  make(chan Msg, 64),
		reg:    NewRegistry(),
		conns:  make(map[string]*client),
		timers: make(map[string]*roomTimers),
		grace:  make(map[string]*timerSlot),
		store:  store,
		log:    log,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	go c.loop()
	return c
}

// Inbox exposes the message channel to the transport layer and tests.
func (c *Coordinator) Inbox() chan<- Msg { return c.inbox }

func (c *Coordinator) loop() {
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return
		case m := <-c.inbox:
			switch msg := m.(type) {
			case Connect:
				c.conns[msg.ConnID] = &client{outbox: msg.Outbox}
			case Disconnect:
				c.onDisconnect(msg.ConnID)
			case FromClient:
				c.onClient(msg.ConnID, msg.Msg)
			case timerFired:
				c.onTimerFired(msg)
			case sessionCreated:
				if g := c.reg.Get(msg.code); g != nil && g.SessionID == nil {
					id := msg.id
					g.SessionID = &id
				}
			case Inspect:
				if g := c.reg.Get(msg.Code); g != nil {
					v := g.Project(msg.PlayerID)
					msg.Reply <- &v
				} else {
					msg.Reply <- nil
				}
			case Shutdown:
				c.shutdown()
				return
			}
		}
	}
}

func (c *Coordinator) shutdown() {
	for id, cl := range c.conns {
		close(cl.outbox)
		delete(c.conns, id)
	}
	for _, rt := range c.timers {
		rt.stopAll()
	}
	for id, slot := range c.grace {
		slot.stop()
		delete(c.grace, id)
	}
	c.cancel()
}

// onClient dispatches one decoded client action.
func (c *Coordinator) onClient(connID string, msg types.ClientMessage) {
	cl := c.conns[connID]
	if cl == nil {
		return
	}

	if msg.Type == "auth" {
		c.onAuth(connID, cl, msg.PlayerID)
		return
	}
	if cl.playerID == "" {
		c.sendError(cl, "not_authenticated")
		return
	}
	pid := cl.playerID

	switch msg.Type {
	case "game:create":
		if msg.PlayerName == "" {
			c.sendError(cl, "name_required")
			return
		}
		g := c.reg.Create(pid, connID, msg.PlayerName, msg.PreferredAvatar, time.Now())
		c.log.Info("room created", zap.String("code", g.Code), zap.String("host", pid))
		c.touchPlayer(g, pid)
		c.broadcast(g)

	case "game:join":
		if msg.PlayerName == "" || msg.Code == "" {
			c.sendError(cl, "name_required")
			return
		}
		g, err := c.reg.Join(msg.Code, pid, connID, msg.PlayerName, msg.PreferredAvatar)
		if err != nil {
			c.sendError(cl, err.Error())
			return
		}
		c.touchPlayer(g, pid)
		c.broadcast(g)

	case "game:watch":
		if msg.PlayerName == "" || msg.Code == "" {
			c.sendError(cl, "name_required")
			return
		}
		g, err := c.reg.Watch(msg.Code, pid, connID, msg.PlayerName, msg.PreferredAvatar)
		if err != nil {
			c.sendError(cl, err.Error())
			return
		}
		c.touchPlayer(g, pid)
		c.broadcast(g)

	case "game:convertToPlayer":
		g := c.reg.ByPlayer(pid)
		if g == nil {
			c.sendError(cl, game.ErrRoomNotFound.Error())
			return
		}
		if err := g.ConvertToPlayer(pid); err != nil {
			c.sendError(cl, err.Error())
			return
		}
		c.broadcast(g)

	case "game:leave":
		c.removePlayer(pid)

	case "game:end":
		g := c.reg.ByPlayer(pid)
		if g == nil {
			c.sendError(cl, game.ErrRoomNotFound.Error())
			return
		}
		if g.HostID != pid {
			c.sendError(cl, game.ErrNotHost.Error())
			return
		}
		c.teardown(g)

	case "game:skipTurn":
		g := c.reg.ByPlayer(pid)
		if g == nil {
			c.sendError(cl, game.ErrRoomNotFound.Error())
			return
		}
		if !g.Settings.AllowSkip {
			c.sendError(cl, game.ErrInvalidSetting.Error())
			return
		}
		c.apply(cl, g, game.Command{Type: game.CmdSkipTurn, ActorID: pid})

	default:
		cmd, ok := toCommand(pid, msg)
		if !ok {
			c.sendError(cl, game.ErrUnsupportedCommand.Error())
			return
		}
		g := c.reg.ByPlayer(pid)
		if g == nil {
			c.sendError(cl, game.ErrRoomNotFound.Error())
			return
		}
		c.apply(cl, g, cmd)
	}
}

// toCommand maps a wire action onto the state machine's closed command
// vocabulary. Actions with transport-level concerns are handled before this.
func toCommand(pid string, msg types.ClientMessage) (game.Command, bool) {
	switch msg.Type {
	case "game:setMode":
		return game.Command{Type: game.CmdSetMode, ActorID: pid, Mode: game.Mode(msg.Mode)}, true
	case "game:updateSettings":
		return game.Command{Type: game.CmdUpdateSettings, ActorID: pid, Settings: msg.Settings}, true
	case "game:start":
		return game.Command{Type: game.CmdStart, ActorID: pid}, true
	case "game:setWord":
		return game.Command{Type: game.CmdSetWord, ActorID: pid, Word: msg.Word, Category: msg.Category}, true
	case "game:roleReady":
		return game.Command{Type: game.CmdRoleReady, ActorID: pid}, true
	case "game:submitClue":
		return game.Command{Type: game.CmdSubmitClue, ActorID: pid, Clue: msg.Clue}, true
	case "game:nextRound":
		return game.Command{Type: game.CmdNextRound, ActorID: pid}, true
	case "game:startVoting":
		return game.Command{Type: game.CmdStartVoting, ActorID: pid}, true
	case "game:endDiscussion":
		return game.Command{Type: game.CmdEndDiscussion, ActorID: pid}, true
	case "game:sendMessage":
		return game.Command{Type: game.CmdSendMessage, ActorID: pid, Text: msg.Text}, true
	case "game:vote":
		return game.Command{Type: game.CmdVote, ActorID: pid, TargetID: msg.VotedForID}, true
	case "game:guessWord":
		return game.Command{Type: game.CmdGuessWord, ActorID: pid, Guess: msg.Guess}, true
	case "game:revealImpostor":
		return game.Command{Type: game.CmdRevealImpostor, ActorID: pid}, true
	case "game:transferHost":
		return game.Command{Type: game.CmdTransferHost, ActorID: pid, TargetID: msg.NewHostID}, true
	case "game:playAgain":
		return game.Command{Type: game.CmdPlayAgain, ActorID: pid}, true
	case "game:continueElimination":
		return game.Command{Type: game.CmdContinueElimination, ActorID: pid}, true
	}
	return game.Command{}, false
}

// apply runs a command, reports a rejection to just that client, and on
// success executes the effects and pushes fresh snapshots.
func (c *Coordinator) apply(cl *client, g *game.Game, cmd game.Command) {
	effects, err := game.Apply(g, cmd, time.Now())
	if err != nil {
		if cl != nil {
			c.sendError(cl, err.Error())
		}
		return
	}
	c.runEffects(g, effects)
	c.broadcast(g)
}

// applySystem is apply for timer-driven commands: rejections are dropped,
// not reported (a stale expiry racing a phase change is normal).
func (c *Coordinator) applySystem(g *game.Game, cmd game.Command) bool {
	effects, err := game.Apply(g, cmd, time.Now())
	if err != nil {
		return false
	}
	c.runEffects(g, effects)
	return true
}

func (c *Coordinator) runEffects(g *game.Game, effects []game.Effect) {
	for _, eff := range effects {
		switch eff {
		case game.EffArmTurnTimer:
			c.armTurnTimer(g)
		case game.EffCancelTurnTimer:
			c.cancelTurnTimer(g)
		case game.EffArmGuessTimer:
			c.armGuessTimer(g)
		case game.EffCancelGuessTimer:
			c.cancelGuessTimer(g)
		case game.EffArmDiscussionTimer:
			c.armDiscussionTimer(g)
		case game.EffCancelDiscussionTimer:
			c.cancelDiscussionTimer(g)
		case game.EffCreateSession:
			c.createSession(g.Code)
		case game.EffPersistResult:
			c.persistResult(g)
		}
	}
}

func (c *Coordinator) onAuth(connID string, cl *client, playerID string) {
	if playerID == "" {
		c.sendError(cl, "not_authenticated")
		return
	}
	cl.playerID = playerID

	// Reconnect if this identity already holds a seat somewhere.
	g := c.reg.ByPlayer(playerID)
	if g == nil {
		return
	}
	g.Reconnect(playerID, connID)
	c.cancelGraceTimer(playerID)
	c.log.Info("player reconnected", zap.String("code", g.Code), zap.String("player", playerID))
	c.broadcast(g)
}

func (c *Coordinator) onDisconnect(connID string) {
	cl := c.conns[connID]
	delete(c.conns, connID)
	if cl == nil || cl.playerID == "" {
		return
	}
	g := c.reg.ByPlayer(cl.playerID)
	if g == nil {
		return
	}
	p := g.Player(cl.playerID)
	if p == nil || p.ConnID != connID {
		// Already reconnected on a newer connection.
		return
	}
	g.Disconnect(cl.playerID, time.Now())
	c.armGraceTimer(cl.playerID)
	c.broadcast(g)
}

func (c *Coordinator) onTimerFired(f timerFired) {
	if c.staleFire(f) {
		return
	}

	if f.kind == kindGrace {
		delete(c.grace, f.key)
		c.log.Info("disconnect grace expired", zap.String("player", f.key))
		c.removePlayer(f.key)
		return
	}

	g := c.reg.Get(f.key)
	if g == nil {
		return
	}
	switch f.kind {
	case kindTurn:
		c.onTurnExpired(g)
	case kindGuess:
		if c.applySystem(g, game.Command{Type: game.CmdExpireGuess}) {
			c.broadcast(g)
		}
	case kindDiscussion:
		if c.applySystem(g, game.Command{Type: game.CmdAutoEndDiscussion}) {
			c.broadcast(g)
		}
	}
}

// onTurnExpired skips the stalled turn and chains: rearm for the next turn,
// roll into the next clue round, or start voting — the same transitions a
// host action would trigger.
func (c *Coordinator) onTurnExpired(g *game.Game) {
	if !c.applySystem(g, game.Command{Type: game.CmdSkipTurn}) {
		return
	}
	if g.Phase == game.PhaseClues && g.TurnIndex >= len(g.ActivePlayers()) {
		next := game.Command{Type: game.CmdAutoStartVoting}
		if g.Round < g.Settings.MaxRounds {
			next = game.Command{Type: game.CmdAutoNextRound}
		}
		c.applySystem(g, next)
	}
	c.broadcast(g)
}

// removePlayer is the shared path for explicit leaves and grace expiries.
func (c *Coordinator) removePlayer(playerID string) {
	c.cancelGraceTimer(playerID)
	g, res, effects := c.reg.Remove(playerID)
	if g == nil || !res.Removed {
		return
	}
	if res.RoomEmpty {
		c.log.Info("room emptied", zap.String("code", g.Code))
		c.closeRoom(g)
		return
	}
	c.runEffects(g, effects)
	c.broadcast(g)
}

// teardown ends a room on explicit host action: everyone is notified and
// every seat, timer and index entry goes away.
func (c *Coordinator) teardown(g *game.Game) {
	for _, p := range g.Players {
		c.cancelGraceTimer(p.ID)
		if p.ConnID == "" {
			continue
		}
		if cl := c.conns[p.ConnID]; cl != nil {
			c.push(p.ConnID, cl, types.ServerMessage{Type: "game:ended"})
		}
	}
	c.reg.Delete(g.Code)
	c.closeRoom(g)
}

// closeRoom releases the room's timers and stamps the session row.
func (c *Coordinator) closeRoom(g *game.Game) {
	if rt := c.timers[g.Code]; rt != nil {
		rt.stopAll()
		delete(c.timers, g.Code)
	}
	if c.store != nil && g.SessionID != nil {
		sessionID, rounds := *g.SessionID, g.SessionRound
		go func() {
			if err := c.store.EndSession(context.Background(), sessionID, rounds); err != nil {
				c.log.Warn("end session", zap.Int64("session", sessionID), zap.Error(err))
			}
		}()
	}
	c.log.Info("room closed", zap.String("code", g.Code))
}

// touchPlayer keeps the profile row fresh for whoever just took a seat.
func (c *Coordinator) touchPlayer(g *game.Game, playerID string) {
	if c.store == nil {
		return
	}
	p := g.Player(playerID)
	if p == nil {
		return
	}
	id, name, avatar := p.ID, p.Name, p.Avatar
	go func() {
		if err := c.store.TouchPlayer(context.Background(), id, name, avatar); err != nil {
			c.log.Warn("touch player", zap.String("player", id), zap.Error(err))
		}
	}()
}

func (c *Coordinator) createSession(code string) {
	if c.store == nil {
		return
	}
	go func() {
		id, err := c.store.CreateSession(context.Background(), code)
		if err != nil {
			c.log.Warn("create session", zap.String("code", code), zap.Error(err))
			return
		}
		select {
		case c.inbox <- sessionCreated{code: code, id: id}:
		case <-c.ctx.Done():
		}
	}()
}

// persistResult snapshots the finished game and hands it to the sink.
// Failures are logged and never surface to the session.
func (c *Coordinator) persistResult(g *game.Game) {
	if c.store == nil {
		return
	}
	res := buildGameResult(g)
	go func() {
		if err := c.store.SaveGameResult(context.Background(), res); err != nil {
			c.log.Warn("persist game result", zap.String("code", res.Code), zap.Error(err))
		}
	}()

	if g.SessionID == nil {
		return
	}
	sessionID, rounds := *g.SessionID, g.SessionRound
	scores := make([]ScoreRecord, 0, len(g.SessionScores))
	for _, s := range g.SessionScores {
		scores = append(scores, ScoreRecord{
			PlayerID:      s.PlayerID,
			PlayerName:    s.PlayerName,
			Score:         s.Score,
			RoundsWon:     s.RoundsWon,
			RoundsPlayed:  s.RoundsPlayed,
			ImpostorCount: s.ImpostorCount,
		})
	}
	code := g.Code
	go func() {
		if err := c.store.SaveSessionScores(context.Background(), sessionID, rounds, scores); err != nil {
			c.log.Warn("persist session scores", zap.String("code", code), zap.Error(err))
		}
	}()
}

// buildGameResult flattens live state into an immutable record, folding the
// last round's clues and votes into the histories.
func buildGameResult(g *game.Game) GameResult {
	votedCorrectly := g.VotedCorrectly()

	players := make([]PlayerResult, 0, len(g.Players))
	for _, p := range g.Players {
		if p.IsSpectator {
			continue
		}
		clues := append([]string(nil), g.ClueHistory[p.ID]...)
		if p.Clue != nil {
			clues = append(clues, *p.Clue)
		}
		var elimRound *int
		for _, e := range g.EliminationHistory {
			if e.PlayerID == p.ID {
				r := e.Round
				elimRound = &r
				break
			}
		}
		var voted *bool
		if v, ok := votedCorrectly[p.ID]; ok {
			voted = &v
		}
		players = append(players, PlayerResult{
			PlayerID:        p.ID,
			PlayerName:      p.Name,
			Avatar:          p.Avatar,
			Color:           p.Color,
			WasImpostor:     p.ID == g.ImpostorID,
			WasEliminated:   p.IsEliminated,
			EliminatedRound: elimRound,
			FinalClues:      clues,
			VotedCorrectly:  voted,
		})
	}

	return GameResult{
		Code:         g.Code,
		Mode:         string(g.Mode),
		HostID:       g.HostID,
		SecretWord:   g.SecretWord,
		ImpostorID:   g.ImpostorID,
		Settings:     g.Settings,
		WinningTeam:  string(g.WinningTeam),
		RoundsPlayed: g.Round,
		CreatedAt:    g.CreatedAt.UnixMilli(),
		Players:      players,
	}
}

// broadcast pushes a personalized snapshot to every connected participant.
func (c *Coordinator) broadcast(g *game.Game) {
	for _, p := range g.Players {
		if p.ConnID == "" {
			continue
		}
		cl := c.conns[p.ConnID]
		if cl == nil {
			continue
		}
		view := g.Project(p.ID)
		c.push(p.ConnID, cl, types.ServerMessage{Type: "game:state", State: &view})
	}
}

// push delivers without blocking; a client that can't keep up is dropped and
// its reader will come back through the reconnect path.
func (c *Coordinator) push(connID string, cl *client, msg types.ServerMessage) {
	select {
	case cl.outbox <- msg:
	default:
		close(cl.outbox)
		delete(c.conns, connID)
	}
}

func (c *Coordinator) sendError(cl *client, code string) {
	select {
	case cl.outbox <- types.ServerMessage{Type: "game:error", Error: code}:
	default:
	}
}
