package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/impostor-party/server/internal/game"
	"github.com/impostor-party/server/internal/types"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions []string
	scores   [][]ScoreRecord
	results  []GameResult
	ended    []int64
	touched  []string
}

func (f *fakeStore) TouchPlayer(_ context.Context, id, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, roomCode string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, roomCode)
	return int64(len(f.sessions)), nil
}

func (f *fakeStore) SaveSessionScores(_ context.Context, _ int64, _ int, scores []ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, scores)
	return nil
}

func (f *fakeStore) EndSession(_ context.Context, sessionID int64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, sessionID)
	return nil
}

func (f *fakeStore) SaveGameResult(_ context.Context, res GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func (f *fakeStore) resultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

func newTestCoordinator(t *testing.T, st Store) *Coordinator {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewCoordinator(ctx, st, zap.NewNop(), Config{
		DisconnectGrace: 60 * time.Millisecond,
		GuessTimeout:    50 * time.Millisecond,
	})
}

// connect registers a connection and authenticates it in one step.
func connect(t *testing.T, c *Coordinator, connID, playerID string) chan types.ServerMessage {
	t.Helper()
	out := make(chan types.ServerMessage, 64)
	c.Inbox() <- Connect{ConnID: connID, Outbox: out}
	c.Inbox() <- FromClient{ConnID: connID, Msg: types.ClientMessage{Type: "auth", PlayerID: playerID}}
	return out
}

func send(c *Coordinator, connID string, msg types.ClientMessage) {
	c.Inbox() <- FromClient{ConnID: connID, Msg: msg}
}

func recvMsg(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) types.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for server message")
		return types.ServerMessage{}
	}
}

// recvError drains state pushes until an error message shows up.
func recvError(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) string {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("outbox closed while waiting for error")
			}
			if msg.Type == "game:error" {
				return msg.Error
			}
		case <-deadline:
			t.Fatalf("timed out waiting for error message")
		}
	}
}

// inspect asks the loop for a personalized snapshot; nil means no such room.
func inspect(t *testing.T, c *Coordinator, code, playerID string) *game.View {
	t.Helper()
	reply := make(chan *game.View, 1)
	c.Inbox() <- Inspect{Code: code, PlayerID: playerID, Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for inspect reply")
		return nil
	}
}

// waitPhase polls until the room reaches the phase or the deadline passes.
func waitPhase(t *testing.T, c *Coordinator, code, playerID string, phase game.Phase) *game.View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v := inspect(t, c, code, playerID); v != nil && v.Phase == phase {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
	v := inspect(t, c, code, playerID)
	if v == nil {
		t.Fatalf("room %s gone while waiting for %s", code, phase)
	}
	t.Fatalf("room %s stuck in %s, want %s", code, v.Phase, phase)
	return nil
}

func TestCreateAndJoinBroadcastsState(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})

	first := recvMsg(t, hostOut, time.Second)
	if first.Type != "game:state" || first.State == nil {
		t.Fatalf("expected state push, got %+v", first)
	}
	code := first.State.Code
	if len(code) != 4 || first.State.Phase != game.PhaseLobby || !first.State.IsHost {
		t.Fatalf("create state wrong: %+v", first.State)
	}

	joinOut := connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})

	joined := recvMsg(t, joinOut, time.Second)
	if joined.State == nil || len(joined.State.Players) != 2 {
		t.Fatalf("joiner state wrong: %+v", joined.State)
	}
	// The host gets the updated roster too.
	update := recvMsg(t, hostOut, time.Second)
	if update.State == nil || len(update.State.Players) != 2 {
		t.Fatalf("host update wrong: %+v", update.State)
	}
}

func TestUnauthenticatedActionsRejected(t *testing.T) {
	c := newTestCoordinator(t, nil)
	out := make(chan types.ServerMessage, 8)
	c.Inbox() <- Connect{ConnID: "conn-1", Outbox: out}

	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	if got := recvError(t, out, time.Second); got != "not_authenticated" {
		t.Fatalf("error: got %q", got)
	}
}

func TestJoinUnknownCodeReportsError(t *testing.T) {
	c := newTestCoordinator(t, nil)
	out := connect(t, c, "conn-1", "p1")
	send(c, "conn-1", types.ClientMessage{Type: "game:join", Code: "XXXX", PlayerName: "Uno"})
	if got := recvError(t, out, time.Second); got != game.ErrRoomNotFound.Error() {
		t.Fatalf("error: got %q", got)
	}
}

func TestReconnectWithinGraceKeepsSeat(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	c.Inbox() <- Disconnect{ConnID: "conn-1"}

	// Reconnect on a fresh connection before the grace expires.
	connect(t, c, "conn-2", "host")

	v := inspect(t, c, code, "host")
	if v == nil {
		t.Fatalf("room gone after reconnect")
	}
	if len(v.Players) != 1 || !v.Players[0].IsConnected {
		t.Fatalf("seat not restored: %+v", v.Players)
	}

	// Grace timer must have been cancelled: the seat survives its window.
	time.Sleep(120 * time.Millisecond)
	if v := inspect(t, c, code, "host"); v == nil {
		t.Fatalf("stale grace timer removed a reconnected player")
	}
}

func TestGraceExpiryRemovesPlayer(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})

	c.Inbox() <- Disconnect{ConnID: "conn-2"}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v := inspect(t, c, code, "host")
		if v != nil && len(v.Players) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("disconnected player still seated after grace")
}

func TestLeaveEmptiesAndDeletesRoom(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	send(c, "conn-1", types.ClientMessage{Type: "game:leave"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if inspect(t, c, code, "host") == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("empty room not deleted")
}

func TestHostEndNotifiesEveryone(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	p2Out := connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})
	recvMsg(t, p2Out, time.Second)

	// Only the host can end the session outright.
	send(c, "conn-2", types.ClientMessage{Type: "game:end"})
	if got := recvError(t, p2Out, time.Second); got != game.ErrNotHost.Error() {
		t.Fatalf("non-host end: got %q", got)
	}

	send(c, "conn-1", types.ClientMessage{Type: "game:end"})

	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-p2Out:
			if msg.Type == "game:ended" {
				if inspect(t, c, code, "host") != nil {
					t.Fatalf("room survived game:end")
				}
				return
			}
		case <-deadline:
			t.Fatalf("no game:ended push")
		}
	}
}

// fullGame drives three players to the voting phase and returns the room
// code plus each player's conn id keyed by player id.
func fullGame(t *testing.T, c *Coordinator) (string, map[string]string) {
	t.Helper()
	conns := map[string]string{"host": "conn-1", "p2": "conn-2", "p3": "conn-3"}

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})
	connect(t, c, "conn-3", "p3")
	send(c, "conn-3", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Tres"})

	send(c, "conn-1", types.ClientMessage{Type: "game:start"})
	waitPhase(t, c, code, "host", game.PhaseSetup)
	send(c, "conn-1", types.ClientMessage{Type: "game:setWord", Word: "luna", Category: "espacio"})
	waitPhase(t, c, code, "host", game.PhaseReveal)

	for _, cid := range conns {
		send(c, cid, types.ClientMessage{Type: "game:roleReady"})
	}
	waitPhase(t, c, code, "host", game.PhaseClues)

	// Turn order is roster order: host, p2, p3.
	send(c, "conn-1", types.ClientMessage{Type: "game:submitClue", Clue: "alta"})
	send(c, "conn-2", types.ClientMessage{Type: "game:submitClue", Clue: "fria"})
	send(c, "conn-3", types.ClientMessage{Type: "game:submitClue", Clue: "lejos"})

	send(c, "conn-1", types.ClientMessage{Type: "game:startVoting"})
	waitPhase(t, c, code, "host", game.PhaseDiscussion)
	send(c, "conn-1", types.ClientMessage{Type: "game:endDiscussion"})
	waitPhase(t, c, code, "host", game.PhaseVoting)
	return code, conns
}

func TestFullGameGuessTimeoutAndPersistence(t *testing.T) {
	st := &fakeStore{}
	c := newTestCoordinator(t, st)
	code, conns := fullGame(t, c)

	// Find the impostor through per-player projections.
	impostor := ""
	for pid := range conns {
		if inspect(t, c, code, pid).IsImpostor {
			impostor = pid
		}
	}
	if impostor == "" || impostor == "host" {
		t.Fatalf("impostor projection wrong: %q", impostor)
	}

	// Everyone votes the impostor; the impostor votes someone else.
	for pid, cid := range conns {
		target := impostor
		if pid == impostor {
			target = "host"
		}
		send(c, cid, types.ClientMessage{Type: "game:vote", VotedForID: target})
	}
	waitPhase(t, c, code, "host", game.PhaseImpostorGuess)

	// Let the guess window lapse; the timeout counts as a wrong guess.
	v := waitPhase(t, c, code, "host", game.PhaseResults)
	if v.ImpostorGuessRight == nil || *v.ImpostorGuessRight {
		t.Fatalf("timeout should record a wrong guess: %+v", v.ImpostorGuessRight)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st.resultCount() == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.results) != 1 {
		t.Fatalf("game result not persisted")
	}
	res := st.results[0]
	if res.Code != code || res.WinningTeam != string(game.TeamCitizens) || len(res.Players) != 3 {
		t.Fatalf("persisted result wrong: %+v", res)
	}
	if len(st.sessions) != 1 || st.sessions[0] != code {
		t.Fatalf("session row not created: %v", st.sessions)
	}
	if len(st.scores) == 0 {
		t.Fatalf("session scores not persisted")
	}
	if len(st.touched) < 3 {
		t.Fatalf("player profiles not touched: %v", st.touched)
	}
}

func TestChatRateLimitOverWire(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code
	p2Out := connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})
	connect(t, c, "conn-3", "p3")
	send(c, "conn-3", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Tres"})

	send(c, "conn-1", types.ClientMessage{Type: "game:start"})
	waitPhase(t, c, code, "host", game.PhaseSetup)
	send(c, "conn-1", types.ClientMessage{Type: "game:setWord", Word: "luna"})
	for _, cid := range []string{"conn-1", "conn-2", "conn-3"} {
		send(c, cid, types.ClientMessage{Type: "game:roleReady"})
	}
	waitPhase(t, c, code, "host", game.PhaseClues)
	send(c, "conn-1", types.ClientMessage{Type: "game:startVoting"})
	waitPhase(t, c, code, "host", game.PhaseDiscussion)

	send(c, "conn-2", types.ClientMessage{Type: "game:sendMessage", Text: "hola"})
	send(c, "conn-2", types.ClientMessage{Type: "game:sendMessage", Text: "hola otra vez"})
	if got := recvError(t, p2Out, time.Second); got != game.ErrRateLimited.Error() {
		t.Fatalf("rate limit error: got %q", got)
	}
}

func TestSpectatorCannotSkipTurn(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code
	connect(t, c, "conn-2", "p2")
	send(c, "conn-2", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Dos"})
	connect(t, c, "conn-3", "p3")
	send(c, "conn-3", types.ClientMessage{Type: "game:join", Code: code, PlayerName: "Tres"})
	specOut := connect(t, c, "conn-4", "spec")
	send(c, "conn-4", types.ClientMessage{Type: "game:watch", Code: code, PlayerName: "Mirona"})

	send(c, "conn-1", types.ClientMessage{Type: "game:start"})
	waitPhase(t, c, code, "host", game.PhaseSetup)
	send(c, "conn-1", types.ClientMessage{Type: "game:setWord", Word: "luna"})
	for _, cid := range []string{"conn-1", "conn-2", "conn-3"} {
		send(c, cid, types.ClientMessage{Type: "game:roleReady"})
	}
	waitPhase(t, c, code, "host", game.PhaseClues)

	send(c, "conn-4", types.ClientMessage{Type: "game:skipTurn"})
	if got := recvError(t, specOut, time.Second); got != game.ErrSpectatorCannotAct.Error() {
		t.Fatalf("spectator skip: got %q", got)
	}
	if v := inspect(t, c, code, "host"); v.TurnIndex != 0 {
		t.Fatalf("spectator moved the turn cursor to %d", v.TurnIndex)
	}

	// The player whose turn it is may still skip.
	send(c, "conn-1", types.ClientMessage{Type: "game:skipTurn"})
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if v := inspect(t, c, code, "host"); v.TurnIndex == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("legal skip never advanced the turn")
}

func TestStaleTimerFireIsIgnored(t *testing.T) {
	c := newTestCoordinator(t, nil)

	hostOut := connect(t, c, "conn-1", "host")
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	code := recvMsg(t, hostOut, time.Second).State.Code

	// A fire stamped with a generation nothing ever armed must be dropped.
	c.Inbox() <- timerFired{kind: kindTurn, key: code, gen: 999999}
	c.Inbox() <- timerFired{kind: kindGrace, key: "host", gen: 999999}

	v := inspect(t, c, code, "host")
	if v == nil || v.Phase != game.PhaseLobby || len(v.Players) != 1 {
		t.Fatalf("stale fire mutated state: %+v", v)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	c := newTestCoordinator(t, nil)

	// Outbox with no room: the first broadcast fills it, the second drops us.
	out := make(chan types.ServerMessage, 1)
	c.Inbox() <- Connect{ConnID: "conn-1", Outbox: out}
	c.Inbox() <- FromClient{ConnID: "conn-1", Msg: types.ClientMessage{Type: "auth", PlayerID: "host"}}
	send(c, "conn-1", types.ClientMessage{Type: "game:create", PlayerName: "Uno"})
	send(c, "conn-1", types.ClientMessage{Type: "game:setMode", Mode: "local"})
	send(c, "conn-1", types.ClientMessage{Type: "game:setMode", Mode: "online"})

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return // dropped, channel closed
			}
		case <-deadline:
			t.Fatalf("slow client never dropped")
		}
	}
}
