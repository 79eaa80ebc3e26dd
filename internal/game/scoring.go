package game

// Point rules, applied once per session as it enters results.
const (
	scoreCitizensWinCorrectVote = 2 // voted for impostor + citizens win
	scoreCitizensWinWrongVote   = 1 // didn't vote for impostor + citizens win
	scoreVotedCorrectlyBonus    = 1 // always given when voted for impostor (stacks)
	scoreImpostorWin            = 3 // impostor survived or guessed correctly
)

// finalizeResults is the single terminal path: winner determination, score
// application and the persistence effect, guarded so it runs at most once.
// Callers set Phase to results first.
func (g *Game) finalizeResults() []Effect {
	if g.ResultsPersisted {
		return nil
	}
	g.ResultsPersisted = true
	g.WinningTeam = g.determineWinningTeam()
	g.applyScores(g.WinningTeam)
	return []Effect{EffPersistResult}
}

func (g *Game) determineWinningTeam() Team {
	if g.ImpostorGuessCorrect != nil {
		if *g.ImpostorGuessCorrect {
			return TeamImpostor
		}
		// Caught and failed the guess (or timed out).
		return TeamCitizens
	}

	// No guess phase happened. An absent impostor forfeits.
	impostor := g.Player(g.ImpostorID)
	if impostor == nil {
		return TeamCitizens
	}
	if g.Settings.Elimination && impostor.IsEliminated {
		return TeamCitizens
	}
	return TeamImpostor
}

// VotedCorrectly reports, per voter, whether they ever voted for the impostor
// across all vote rounds including the current one.
func (g *Game) VotedCorrectly() map[string]bool {
	out := map[string]bool{}
	record := func(votes map[string]string) {
		for voter, target := range votes {
			if target == g.ImpostorID {
				out[voter] = true
			} else if _, seen := out[voter]; !seen {
				out[voter] = false
			}
		}
	}
	for _, round := range g.VoteHistory {
		record(round)
	}
	record(g.Votes)
	return out
}

func (g *Game) applyScores(winner Team) {
	if g.Mode == ModeLocal {
		// In-person outcome is decided around the table, not by votes.
		return
	}
	if g.ImpostorID == "" {
		return
	}

	votedCorrectly := g.VotedCorrectly()
	citizensWon := winner == TeamCitizens
	impostorWon := winner == TeamImpostor
	guessedIt := g.ImpostorGuessCorrect != nil && *g.ImpostorGuessCorrect

	var deltas []ScoreDelta
	for _, entry := range g.SessionScores {
		delta := 0
		if entry.PlayerID == g.ImpostorID {
			if impostorWon {
				delta = scoreImpostorWin
				reason := ReasonImpostorWin
				if guessedIt {
					reason = ReasonImpostorGuess
				}
				deltas = append(deltas, ScoreDelta{PlayerID: entry.PlayerID, Delta: delta, Reason: reason})
				entry.RoundsWon++
			}
			entry.ImpostorCount++
		} else {
			if votedCorrectly[entry.PlayerID] {
				delta += scoreVotedCorrectlyBonus
				deltas = append(deltas, ScoreDelta{PlayerID: entry.PlayerID, Delta: scoreVotedCorrectlyBonus, Reason: ReasonVotedCorrectly})
			}
			if citizensWon {
				winBonus := scoreCitizensWinWrongVote
				if votedCorrectly[entry.PlayerID] {
					winBonus = scoreCitizensWinCorrectVote
				}
				delta += winBonus
				deltas = append(deltas, ScoreDelta{PlayerID: entry.PlayerID, Delta: winBonus, Reason: ReasonCitizensWin})
				entry.RoundsWon++
			}
		}
		entry.Score += delta
		entry.RoundsPlayed++
	}
	g.LastRoundDeltas = deltas
}

// mergeSessionScores folds current non-spectators into the ledger and
// refreshes names/avatars for existing entries. Spectators who convert to
// players between rounds are picked up the next time this runs.
func (g *Game) mergeSessionScores() {
	existing := make(map[string]*SessionScore, len(g.SessionScores))
	for _, s := range g.SessionScores {
		existing[s.PlayerID] = s
	}
	for _, p := range g.Players {
		if p.IsSpectator {
			continue
		}
		if entry, ok := existing[p.ID]; ok {
			entry.PlayerName = p.Name
			entry.Avatar = p.Avatar
			continue
		}
		entry := &SessionScore{PlayerID: p.ID, PlayerName: p.Name, Avatar: p.Avatar}
		g.SessionScores = append(g.SessionScores, entry)
		existing[p.ID] = entry
	}
}
