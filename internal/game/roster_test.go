package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestAddPlayerRules(t *testing.T) {
	g := testGame(t, 2)

	if err := g.AddPlayer("px", "cx", "uno", ""); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("case-insensitive name clash: got %v, want ErrNameTaken", err)
	}

	for i := 3; i <= MaxPlayers; i++ {
		if err := g.AddPlayer(fmt.Sprintf("p%d", i), "c", fmt.Sprintf("Jugador%d", i), ""); err != nil {
			t.Fatalf("seat %d: %v", i, err)
		}
	}
	if err := g.AddPlayer("p99", "c99", "Sobra", ""); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("over capacity: got %v, want ErrRoomFull", err)
	}

	g2 := testGame(t, 3)
	mustApply(t, g2, Command{Type: CmdStart, ActorID: "p1"})
	if err := g2.AddPlayer("late", "cl", "Tarde", ""); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("join mid-game: got %v, want ErrWrongPhase", err)
	}
	if err := g2.AddSpectator("watcher", "cw", "Mirona", ""); err != nil {
		t.Fatalf("spectate mid-game: %v", err)
	}
}

func TestPreferredAvatarHonoredWhenFree(t *testing.T) {
	g := New("BACO", "p1", "c1", "Uno", "🦊", t0)
	if g.Players[0].Avatar != "🦊" {
		t.Fatalf("host avatar: %q", g.Players[0].Avatar)
	}
	if err := g.AddPlayer("p2", "c2", "Dos", "🦊"); err != nil {
		t.Fatalf("seat: %v", err)
	}
	if g.Player("p2").Avatar == "🦊" {
		t.Fatalf("taken avatar should not repeat")
	}
}

func TestConvertToPlayer(t *testing.T) {
	g := testGame(t, 2)
	if err := g.AddSpectator("spec", "cs", "Mirona", ""); err != nil {
		t.Fatalf("seat spectator: %v", err)
	}
	if err := g.ConvertToPlayer("p2"); !errors.Is(err, ErrAlreadyPlayer) {
		t.Fatalf("got %v, want ErrAlreadyPlayer", err)
	}
	if err := g.ConvertToPlayer("spec"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if g.Player("spec").IsSpectator {
		t.Fatalf("still a spectator after convert")
	}

	mustApply(t, g, Command{Type: CmdStart, ActorID: "p1"})
	if err := g.AddSpectator("spec2", "cs2", "Otra", ""); err != nil {
		t.Fatalf("seat spectator: %v", err)
	}
	if err := g.ConvertToPlayer("spec2"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("convert mid-game: got %v, want ErrWrongPhase", err)
	}
}

func TestDisconnectReconnectKeepsSeat(t *testing.T) {
	g := testGame(t, 3)
	if !g.Disconnect("p2", t0) {
		t.Fatalf("disconnect failed")
	}
	p := g.Player("p2")
	if p == nil || p.Connected() || p.DisconnectedAt == nil {
		t.Fatalf("seat state after disconnect: %+v", p)
	}
	if !g.Reconnect("p2", "c2b") {
		t.Fatalf("reconnect failed")
	}
	if p.ConnID != "c2b" || p.DisconnectedAt != nil {
		t.Fatalf("seat state after reconnect: %+v", p)
	}
}

func TestRemovePlayerTransfersHost(t *testing.T) {
	g := testGame(t, 3)
	res, _ := g.RemovePlayer("p1")
	if !res.Removed || !res.HostChanged {
		t.Fatalf("remove host: %+v", res)
	}
	if g.HostID != "p2" || !g.Player("p2").IsHost {
		t.Fatalf("host not transferred, hostId=%q", g.HostID)
	}
}

func TestRemoveLastPlayerEmptiesRoom(t *testing.T) {
	g := New("BACO", "p1", "c1", "Uno", "", t0)
	res, _ := g.RemovePlayer("p1")
	if !res.RoomEmpty {
		t.Fatalf("expected empty room, got %+v", res)
	}
}

func TestImpostorLeavingForfeitsRound(t *testing.T) {
	g := testGame(t, 4)
	impostor := toClues(t, g)

	res, effects := g.RemovePlayer(impostor)
	if !res.ForcedResults {
		t.Fatalf("expected forced results, got %+v", res)
	}
	if g.Phase != PhaseResults {
		t.Fatalf("phase: %s", g.Phase)
	}
	if g.WinningTeam != TeamCitizens {
		t.Fatalf("absent impostor should forfeit, winner=%s", g.WinningTeam)
	}
	if !hasEffect(effects, EffCancelTurnTimer) || !hasEffect(effects, EffPersistResult) {
		t.Fatalf("forfeit effects: %v", effects)
	}
}

func TestRosterBelowMinimumForfeitsRound(t *testing.T) {
	g := testGame(t, 3)
	impostor := toClues(t, g)

	leaver := otherPlayer(g, impostor)
	res, _ := g.RemovePlayer(leaver)
	if !res.ForcedResults || g.Phase != PhaseResults {
		t.Fatalf("expected forced results below minimum: %+v phase=%s", res, g.Phase)
	}
}

func TestSpectatorLeavingChangesNothing(t *testing.T) {
	g := testGame(t, 3)
	if err := g.AddSpectator("spec", "cs", "Mirona", ""); err != nil {
		t.Fatalf("seat spectator: %v", err)
	}
	toClues(t, g)

	res, effects := g.RemovePlayer("spec")
	if !res.Removed || res.ForcedResults || len(effects) != 0 {
		t.Fatalf("spectator leave: %+v effects=%v", res, effects)
	}
	if g.Phase != PhaseClues {
		t.Fatalf("phase moved: %s", g.Phase)
	}
}

func TestRemoveClampsTurnCursor(t *testing.T) {
	g := testGame(t, 4)
	toClues(t, g)

	// Advance to the final turn, then remove a non-impostor so the cursor
	// would point past the shrunken roster.
	active := g.ActivePlayers()
	g.TurnIndex = len(active) - 1
	last := active[len(active)-1]
	victim := last
	if victim.ID == g.ImpostorID {
		victim = active[len(active)-2]
		g.TurnIndex = len(active) - 1
	}

	res, _ := g.RemovePlayer(victim.ID)
	if !res.Removed || res.ForcedResults {
		t.Fatalf("remove: %+v", res)
	}
	if g.TurnIndex >= len(g.ActivePlayers()) {
		t.Fatalf("turn cursor out of range: %d", g.TurnIndex)
	}
}
