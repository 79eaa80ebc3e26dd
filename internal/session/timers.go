package session

import (
	"time"

	"github.com/impostor-party/server/internal/game"
)

type timerKind int

const (
	kindTurn timerKind = iota
	kindGuess
	kindDiscussion
	kindGrace
)

// timerSlot is one cancel-and-replace timer. gen identifies the currently
// armed incarnation; a fire carrying an older gen is stale and dropped.
type timerSlot struct {
	timer *time.Timer
	gen   uint64
}

func (s *timerSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// roomTimers are the per-session timers, owned alongside the room so tearing
// a room down cancels everything in one place.
type roomTimers struct {
	turn       timerSlot
	guess      timerSlot
	discussion timerSlot
}

func (rt *roomTimers) stopAll() {
	rt.turn.stop()
	rt.guess.stop()
	rt.discussion.stop()
}

func (c *Coordinator) roomTimers(code string) *roomTimers {
	rt := c.timers[code]
	if rt == nil {
		rt = &roomTimers{}
		c.timers[code] = rt
	}
	return rt
}

// arm replaces the slot's timer and posts a generation-stamped fire back
// into the inbox, so expiry runs on the loop like any other event.
func (c *Coordinator) arm(slot *timerSlot, kind timerKind, key string, d time.Duration) {
	slot.stop()
	c.gen++
	gen := c.gen
	slot.gen = gen
	slot.timer = time.AfterFunc(d, func() {
		select {
		case c.inbox <- timerFired{kind: kind, key: key, gen: gen}:
		case <-c.ctx.Done():
		}
	})
}

// armTurnTimer arms the clue-turn countdown and stamps the deadline on the
// session. A zero clue timer means unlimited: no deadline, no callback.
func (c *Coordinator) armTurnTimer(g *game.Game) {
	rt := c.roomTimers(g.Code)
	rt.turn.stop()
	d := time.Duration(g.Settings.ClueTimerSec) * time.Second
	if d == 0 {
		g.TurnDeadline = nil
		return
	}
	deadline := time.Now().Add(d)
	g.TurnDeadline = &deadline
	c.arm(&rt.turn, kindTurn, g.Code, d)
}

func (c *Coordinator) cancelTurnTimer(g *game.Game) {
	if rt := c.timers[g.Code]; rt != nil {
		rt.turn.stop()
	}
	g.TurnDeadline = nil
}

func (c *Coordinator) armGuessTimer(g *game.Game) {
	rt := c.roomTimers(g.Code)
	deadline := time.Now().Add(c.cfg.GuessTimeout)
	g.GuessDeadline = &deadline
	c.arm(&rt.guess, kindGuess, g.Code, c.cfg.GuessTimeout)
}

func (c *Coordinator) cancelGuessTimer(g *game.Game) {
	if rt := c.timers[g.Code]; rt != nil {
		rt.guess.stop()
	}
	g.GuessDeadline = nil
}

func (c *Coordinator) armDiscussionTimer(g *game.Game) {
	rt := c.roomTimers(g.Code)
	d := time.Duration(g.Settings.DiscussionSec) * time.Second
	deadline := time.Now().Add(d)
	g.DiscussionDeadline = &deadline
	c.arm(&rt.discussion, kindDiscussion, g.Code, d)
}

func (c *Coordinator) cancelDiscussionTimer(g *game.Game) {
	if rt := c.timers[g.Code]; rt != nil {
		rt.discussion.stop()
	}
	g.DiscussionDeadline = nil
}

// armGraceTimer starts the disconnect grace countdown for one participant.
func (c *Coordinator) armGraceTimer(playerID string) {
	slot := c.grace[playerID]
	if slot == nil {
		slot = &timerSlot{}
		c.grace[playerID] = slot
	}
	c.arm(slot, kindGrace, playerID, c.cfg.DisconnectGrace)
}

func (c *Coordinator) cancelGraceTimer(playerID string) {
	if slot := c.grace[playerID]; slot != nil {
		slot.stop()
		delete(c.grace, playerID)
	}
}

// staleFire reports whether a queued fire lost the race against a newer arm
// or a cancel of the same slot.
func (c *Coordinator) staleFire(f timerFired) bool {
	if f.kind == kindGrace {
		slot := c.grace[f.key]
		return slot == nil || slot.gen != f.gen
	}
	rt := c.timers[f.key]
	if rt == nil {
		return true
	}
	switch f.kind {
	case kindTurn:
		return rt.turn.gen != f.gen || rt.turn.timer == nil
	case kindGuess:
		return rt.guess.gen != f.gen || rt.guess.timer == nil
	case kindDiscussion:
		return rt.discussion.gen != f.gen || rt.discussion.timer == nil
	}
	return true
}
