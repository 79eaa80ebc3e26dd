package game

import (
	"math/rand"
	"strings"
	"time"
)

type CommandType string

const (
	CmdSetMode             CommandType = "SetMode"
	CmdUpdateSettings      CommandType = "UpdateSettings"
	CmdStart               CommandType = "Start"
	CmdSetWord             CommandType = "SetWord"
	CmdRoleReady           CommandType = "RoleReady"
	CmdSubmitClue          CommandType = "SubmitClue"
	CmdSkipTurn            CommandType = "SkipTurn"
	CmdNextRound           CommandType = "NextRound"
	CmdStartVoting         CommandType = "StartVoting"
	CmdEndDiscussion       CommandType = "EndDiscussion"
	CmdSendMessage         CommandType = "SendMessage"
	CmdVote                CommandType = "Vote"
	CmdGuessWord           CommandType = "GuessWord"
	CmdRevealImpostor      CommandType = "RevealImpostor"
	CmdTransferHost        CommandType = "TransferHost"
	CmdPlayAgain           CommandType = "PlayAgain"
	CmdContinueElimination CommandType = "ContinueElimination"

	// Timer-driven variants: same transitions, no actor checks. The
	// coordinator issues these when a deadline expires.
	CmdAutoNextRound     CommandType = "AutoNextRound"
	CmdAutoStartVoting   CommandType = "AutoStartVoting"
	CmdAutoEndDiscussion CommandType = "AutoEndDiscussion"
	CmdExpireGuess       CommandType = "ExpireGuess"
)

// Command is the closed set of session actions. ActorID identifies who is
// acting; timer-driven commands leave it empty.
type Command struct {
	Type     CommandType
	ActorID  string
	Word     string
	Category string
	Clue     string
	Guess    string
	Text     string
	TargetID string
	Mode     Mode
	Settings *SettingsPatch
}

// Effect is a side effect the coordinator must run after a successful Apply.
// The state machine never touches timers or storage itself.
type Effect string

const (
	EffArmTurnTimer          Effect = "arm-turn-timer"
	EffCancelTurnTimer       Effect = "cancel-turn-timer"
	EffArmGuessTimer         Effect = "arm-guess-timer"
	EffCancelGuessTimer      Effect = "cancel-guess-timer"
	EffArmDiscussionTimer    Effect = "arm-discussion-timer"
	EffCancelDiscussionTimer Effect = "cancel-discussion-timer"
	EffCreateSession         Effect = "create-session"
	EffPersistResult         Effect = "persist-result"
)

// Apply runs one command against the session. On error the state is
// untouched; on success the returned effects must be executed in order.
func Apply(g *Game, cmd Command, now time.Time) ([]Effect, error) {
	switch cmd.Type {
	case CmdSetMode:
		return nil, g.setMode(cmd.ActorID, cmd.Mode)
	case CmdUpdateSettings:
		return nil, g.updateSettings(cmd.ActorID, cmd.Settings)
	case CmdStart:
		return g.start(cmd.ActorID)
	case CmdSetWord:
		return nil, g.setWord(cmd.ActorID, cmd.Word, cmd.Category)
	case CmdRoleReady:
		return g.markRoleReady(cmd.ActorID)
	case CmdSubmitClue:
		return g.submitClue(cmd.ActorID, cmd.Clue)
	case CmdSkipTurn:
		return g.skipTurn(cmd.ActorID)
	case CmdNextRound:
		if err := g.requireHost(cmd.ActorID); err != nil {
			return nil, err
		}
		return g.nextRound()
	case CmdAutoNextRound:
		return g.nextRound()
	case CmdStartVoting:
		if err := g.requireHost(cmd.ActorID); err != nil {
			return nil, err
		}
		return g.startVoting(now)
	case CmdAutoStartVoting:
		return g.startVoting(now)
	case CmdEndDiscussion:
		if err := g.requireHost(cmd.ActorID); err != nil {
			return nil, err
		}
		return g.endDiscussion()
	case CmdAutoEndDiscussion:
		return g.endDiscussion()
	case CmdSendMessage:
		return nil, g.sendMessage(cmd.ActorID, cmd.Text, now)
	case CmdVote:
		return g.vote(cmd.ActorID, cmd.TargetID)
	case CmdGuessWord:
		return g.guessWord(cmd.ActorID, cmd.Guess)
	case CmdExpireGuess:
		return g.expireGuess()
	case CmdRevealImpostor:
		return g.revealImpostor(cmd.ActorID)
	case CmdTransferHost:
		return g.transferHost(cmd.ActorID, cmd.TargetID)
	case CmdPlayAgain:
		return g.playAgain(cmd.ActorID)
	case CmdContinueElimination:
		return g.continueAfterElimination(cmd.ActorID)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (g *Game) requireHost(actorID string) error {
	if g.HostID != actorID {
		return ErrNotHost
	}
	return nil
}

func (g *Game) setMode(actorID string, mode Mode) error {
	if err := g.requireHost(actorID); err != nil {
		return err
	}
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if mode != ModeOnline && mode != ModeLocal {
		return ErrInvalidSetting
	}
	g.Mode = mode
	return nil
}

func (g *Game) updateSettings(actorID string, patch *SettingsPatch) error {
	if err := g.requireHost(actorID); err != nil {
		return err
	}
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if patch == nil {
		return ErrInvalidSetting
	}
	if patch.ClueTimerSec != nil && !oneOf(*patch.ClueTimerSec, 0, 15, 30, 45, 60) {
		return ErrInvalidSetting
	}
	if patch.VotingStyle != nil && *patch.VotingStyle != VotingAnonymous && *patch.VotingStyle != VotingPublic {
		return ErrInvalidSetting
	}
	if patch.MaxRounds != nil && !oneOf(*patch.MaxRounds, 1, 2, 3) {
		return ErrInvalidSetting
	}
	if patch.DiscussionSec != nil && !oneOf(*patch.DiscussionSec, 0, 30, 60, 90) {
		return ErrInvalidSetting
	}
	if patch.Language != nil && *patch.Language != "es" && *patch.Language != "en" {
		return ErrInvalidSetting
	}
	if patch.Theme != nil && !oneOfString(*patch.Theme, validThemes) {
		return ErrInvalidSetting
	}

	s := &g.Settings
	if patch.Language != nil {
		s.Language = *patch.Language
	}
	if patch.Elimination != nil {
		s.Elimination = *patch.Elimination
	}
	if patch.ClueTimerSec != nil {
		s.ClueTimerSec = *patch.ClueTimerSec
	}
	if patch.VotingStyle != nil {
		s.VotingStyle = *patch.VotingStyle
	}
	if patch.MaxRounds != nil {
		s.MaxRounds = *patch.MaxRounds
	}
	if patch.AllowSkip != nil {
		s.AllowSkip = *patch.AllowSkip
	}
	if patch.DiscussionSec != nil {
		s.DiscussionSec = *patch.DiscussionSec
	}
	if patch.Theme != nil {
		s.Theme = *patch.Theme
	}
	return nil
}

func (g *Game) start(actorID string) ([]Effect, error) {
	if g.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if err := g.requireHost(actorID); err != nil {
		return nil, err
	}
	if len(g.NonSpectators()) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}

	g.Phase = PhaseSetup
	g.mergeSessionScores()

	if g.SessionID == nil {
		return []Effect{EffCreateSession}, nil
	}
	return nil, nil
}

func (g *Game) setWord(actorID, word, category string) error {
	if g.Phase != PhaseSetup {
		return ErrWrongPhase
	}
	if err := g.requireHost(actorID); err != nil {
		return err
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return ErrEmptyWord
	}

	// The host chose the word, so the impostor comes from everyone else.
	var candidates []*Player
	for _, p := range g.Players {
		if p.ID != actorID && !p.IsSpectator {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ErrNotEnoughPlayers
	}

	g.SecretWord = word
	g.WordCategory = strings.TrimSpace(category)
	g.ImpostorID = candidates[rand.Intn(len(candidates))].ID

	for _, p := range g.Players {
		if !p.IsSpectator {
			p.HasSeenRole = false
			p.Clue = nil
		}
	}
	g.Votes = map[string]string{}
	g.Round = 1
	g.SessionRound++
	g.TurnIndex = 0
	g.TurnDeadline = nil
	g.ImpostorGuess = ""
	g.ImpostorGuessCorrect = nil
	g.GuessDeadline = nil
	g.EliminationHistory = nil
	g.LastEliminatedID = ""
	g.ClueHistory = map[string][]string{}
	g.VoteHistory = nil
	g.ResultsPersisted = false
	g.WinningTeam = ""

	g.Phase = PhaseReveal
	return nil
}

func (g *Game) markRoleReady(actorID string) ([]Effect, error) {
	if g.Phase != PhaseReveal {
		return nil, ErrWrongPhase
	}
	p := g.Player(actorID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.IsSpectator {
		return nil, ErrSpectatorCannotAct
	}

	p.HasSeenRole = true

	for _, np := range g.NonSpectators() {
		if !np.HasSeenRole {
			return nil, nil
		}
	}
	// Everyone has seen their role. Local games move off-server from here.
	if g.Mode == ModeLocal {
		g.Phase = PhasePlaying
		return nil, nil
	}
	g.Phase = PhaseClues
	return []Effect{EffArmTurnTimer}, nil
}

func (g *Game) submitClue(actorID, clue string) ([]Effect, error) {
	if g.Phase != PhaseClues {
		return nil, ErrWrongPhase
	}
	active := g.ActivePlayers()
	if g.TurnIndex >= len(active) || active[g.TurnIndex].ID != actorID {
		return nil, ErrNotYourTurn
	}
	clue = strings.TrimSpace(clue)
	if clue == "" {
		return nil, ErrEmptyClue
	}

	active[g.TurnIndex].Clue = &clue
	g.TurnIndex++
	g.TurnDeadline = nil

	if g.TurnIndex < len(active) {
		return []Effect{EffArmTurnTimer}, nil
	}
	return []Effect{EffCancelTurnTimer}, nil
}

// skipTurn advances past the current turn without recording a clue. The turn
// timer issues it with an empty actor; an explicit skip (gated on the
// allowSkip setting at the transport boundary) is only legal for the player
// whose turn it is or the host.
func (g *Game) skipTurn(actorID string) ([]Effect, error) {
	if g.Phase != PhaseClues {
		return nil, ErrWrongPhase
	}
	active := g.ActivePlayers()
	if actorID != "" {
		actor := g.Player(actorID)
		if actor == nil {
			return nil, ErrPlayerNotFound
		}
		if actor.IsSpectator {
			return nil, ErrSpectatorCannotAct
		}
		if actor.IsEliminated {
			return nil, ErrEliminatedCannotAct
		}
		current := g.TurnIndex < len(active) && active[g.TurnIndex].ID == actorID
		if !current && g.HostID != actorID {
			return nil, ErrNotYourTurn
		}
	}
	if g.TurnIndex < len(active) {
		g.TurnIndex++
	}
	g.TurnDeadline = nil

	if g.TurnIndex < len(active) {
		return []Effect{EffArmTurnTimer}, nil
	}
	return []Effect{EffCancelTurnTimer}, nil
}

func (g *Game) nextRound() ([]Effect, error) {
	if g.Phase != PhaseClues {
		return nil, ErrWrongPhase
	}
	g.snapshotClues()
	g.Round++
	g.TurnIndex = 0
	g.TurnDeadline = nil
	for _, p := range g.ActivePlayers() {
		p.Clue = nil
	}
	return []Effect{EffArmTurnTimer}, nil
}

func (g *Game) startVoting(now time.Time) ([]Effect, error) {
	if g.Phase != PhaseClues {
		return nil, ErrWrongPhase
	}
	g.snapshotClues()

	if g.Mode == ModeOnline && g.Settings.DiscussionSec > 0 {
		g.Phase = PhaseDiscussion
		g.Messages = nil
		return []Effect{EffCancelTurnTimer, EffArmDiscussionTimer}, nil
	}
	g.Phase = PhaseVoting
	g.Votes = map[string]string{}
	return []Effect{EffCancelTurnTimer}, nil
}

func (g *Game) endDiscussion() ([]Effect, error) {
	if g.Phase != PhaseDiscussion {
		return nil, ErrWrongPhase
	}
	g.Phase = PhaseVoting
	g.Votes = map[string]string{}
	g.DiscussionDeadline = nil
	return []Effect{EffCancelDiscussionTimer}, nil
}

func (g *Game) sendMessage(actorID, text string, now time.Time) error {
	if g.Phase != PhaseDiscussion {
		return ErrWrongPhase
	}
	p := g.Player(actorID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.IsSpectator {
		return ErrSpectatorCannotAct
	}

	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > MaxMessageLen {
		text = string(runes[:MaxMessageLen])
	}
	if text == "" {
		return ErrEmptyMessage
	}
	if p.LastMessageAt != nil && now.Sub(*p.LastMessageAt) < MessageInterval {
		return ErrRateLimited
	}

	ts := now
	p.LastMessageAt = &ts
	g.Messages = append(g.Messages, ChatMessage{
		PlayerID:   actorID,
		PlayerName: p.Name,
		Avatar:     p.Avatar,
		Text:       text,
		Timestamp:  now,
	})
	return nil
}

func (g *Game) vote(actorID, targetID string) ([]Effect, error) {
	if g.Phase != PhaseVoting {
		return nil, ErrWrongPhase
	}
	if actorID == targetID {
		return nil, ErrCannotVoteSelf
	}
	voter := g.Player(actorID)
	if voter == nil {
		return nil, ErrPlayerNotFound
	}
	if voter.IsSpectator {
		return nil, ErrSpectatorCannotAct
	}
	if voter.IsEliminated {
		return nil, ErrEliminatedCannotAct
	}
	target := g.Player(targetID)
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if target.IsSpectator {
		return nil, ErrCannotVoteSpectator
	}
	if target.IsEliminated {
		return nil, ErrCannotVoteEliminated
	}

	g.Votes[actorID] = targetID

	for _, p := range g.ActivePlayers() {
		if _, ok := g.Votes[p.ID]; !ok {
			return nil, nil
		}
	}
	return g.resolveVotes(), nil
}

// resolveVotes runs once the last active player has voted.
func (g *Game) resolveVotes() []Effect {
	counts := map[string]int{}
	maxVotes := 0
	for _, target := range g.Votes {
		counts[target]++
		if counts[target] > maxVotes {
			maxVotes = counts[target]
		}
	}

	if g.Settings.Elimination && g.Mode == ModeOnline {
		return g.resolveElimination(counts, maxVotes)
	}
	return g.resolveStandard(counts, maxVotes)
}

func (g *Game) resolveElimination(counts map[string]int, maxVotes int) []Effect {
	var top []string
	for id, n := range counts {
		if n == maxVotes {
			top = append(top, id)
		}
	}

	if len(top) == 1 {
		eliminatedID := top[0]
		if p := g.Player(eliminatedID); p != nil {
			p.IsEliminated = true
			g.LastEliminatedID = eliminatedID
			g.EliminationHistory = append(g.EliminationHistory, Elimination{Round: g.Round, PlayerID: eliminatedID})
		}

		if eliminatedID == g.ImpostorID {
			// Caught: the impostor gets a last-chance word guess.
			g.Phase = PhaseImpostorGuess
			g.ImpostorGuess = ""
			g.ImpostorGuessCorrect = nil
			return []Effect{EffArmGuessTimer}
		}
		if len(g.ActivePlayers()) <= 2 {
			// Impostor wins by survival.
			g.Phase = PhaseResults
			return g.finalizeResults()
		}
		g.Phase = PhaseEliminationResults
		return nil
	}

	// Exact tie among the top-voted: nobody is eliminated.
	g.LastEliminatedID = ""
	if len(g.ActivePlayers()) <= 2 {
		g.Phase = PhaseResults
		return g.finalizeResults()
	}
	g.Phase = PhaseEliminationResults
	return nil
}

// resolveStandard applies the catch rule: the impostor is caught when their
// votes received reach the maximum observed, so a tie with another player
// still counts as caught. (Elimination mode resolves the same tie the other
// way; the asymmetry is deliberate.)
func (g *Game) resolveStandard(counts map[string]int, maxVotes int) []Effect {
	impostorVotes := counts[g.ImpostorID]
	caught := impostorVotes > 0 && impostorVotes >= maxVotes

	if caught && g.Mode == ModeOnline {
		g.Phase = PhaseImpostorGuess
		g.ImpostorGuess = ""
		g.ImpostorGuessCorrect = nil
		return []Effect{EffArmGuessTimer}
	}
	g.Phase = PhaseResults
	return g.finalizeResults()
}

func (g *Game) guessWord(actorID, guess string) ([]Effect, error) {
	if g.Phase != PhaseImpostorGuess {
		return nil, ErrWrongPhase
	}
	if g.ImpostorID != actorID {
		return nil, ErrNotImpostor
	}

	guess = strings.TrimSpace(guess)
	correct := strings.EqualFold(guess, strings.TrimSpace(g.SecretWord))
	g.ImpostorGuess = guess
	g.ImpostorGuessCorrect = &correct
	g.GuessDeadline = nil
	g.Phase = PhaseResults

	effects := []Effect{EffCancelGuessTimer}
	return append(effects, g.finalizeResults()...), nil
}

// expireGuess handles the guess timer running out: counts as a wrong guess.
func (g *Game) expireGuess() ([]Effect, error) {
	if g.Phase != PhaseImpostorGuess {
		return nil, ErrWrongPhase
	}
	wrong := false
	g.GuessDeadline = nil
	g.ImpostorGuess = ""
	g.ImpostorGuessCorrect = &wrong
	g.Phase = PhaseResults
	return g.finalizeResults(), nil
}

func (g *Game) revealImpostor(actorID string) ([]Effect, error) {
	if err := g.requireHost(actorID); err != nil {
		return nil, err
	}
	if g.Phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	g.Phase = PhaseResults
	return g.finalizeResults(), nil
}

func (g *Game) transferHost(actorID, newHostID string) ([]Effect, error) {
	if err := g.requireHost(actorID); err != nil {
		return nil, err
	}
	newHost := g.Player(newHostID)
	if newHost == nil {
		return nil, ErrPlayerNotFound
	}
	if newHost.IsSpectator {
		return nil, ErrCannotTransferSpectator
	}

	for _, p := range g.Players {
		p.IsHost = false
	}
	newHost.IsHost = true
	g.HostID = newHostID

	// Full round reset: the new host picks the next word. This is how word
	// duty rotates in local mode.
	g.resetRound()
	for _, p := range g.Players {
		if !p.IsSpectator {
			p.HasSeenRole = false
			p.Clue = nil
			p.IsEliminated = false
		}
	}
	g.Phase = PhaseSetup
	return []Effect{EffCancelTurnTimer, EffCancelGuessTimer, EffCancelDiscussionTimer}, nil
}

func (g *Game) playAgain(actorID string) ([]Effect, error) {
	if err := g.requireHost(actorID); err != nil {
		return nil, err
	}

	g.resetRound()
	for _, p := range g.Players {
		if !p.IsSpectator {
			p.HasSeenRole = false
			p.Clue = nil
			p.IsEliminated = false
			p.LastMessageAt = nil
		}
	}
	g.Phase = PhaseSetup

	// The ledger persists; fold in anyone who joined since last round.
	g.mergeSessionScores()
	return []Effect{EffCancelTurnTimer, EffCancelGuessTimer, EffCancelDiscussionTimer}, nil
}

func (g *Game) continueAfterElimination(actorID string) ([]Effect, error) {
	if err := g.requireHost(actorID); err != nil {
		return nil, err
	}
	if g.Phase != PhaseEliminationResults {
		return nil, ErrWrongPhase
	}

	g.snapshotClues()
	g.snapshotVotes()

	g.Round++
	g.TurnIndex = 0
	g.TurnDeadline = nil
	g.Votes = map[string]string{}
	g.LastEliminatedID = ""
	for _, p := range g.ActivePlayers() {
		p.Clue = nil
	}
	g.Phase = PhaseClues
	return []Effect{EffArmTurnTimer}, nil
}

func oneOf(v int, allowed ...int) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func oneOfString(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
