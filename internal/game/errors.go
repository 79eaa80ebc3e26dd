package game

import "errors"

// Every rejection is one of these sentinels. The message is the wire code the
// transport layer forwards verbatim; clients own the translation to UI text.
var (
	ErrRoomNotFound            = errors.New("room_not_found")
	ErrNotHost                 = errors.New("not_host")
	ErrWrongPhase              = errors.New("wrong_phase")
	ErrNameTaken               = errors.New("name_taken")
	ErrRoomFull                = errors.New("room_full")
	ErrNotYourTurn             = errors.New("not_your_turn")
	ErrEmptyClue               = errors.New("empty_clue")
	ErrEmptyWord               = errors.New("empty_word")
	ErrEmptyMessage            = errors.New("empty_message")
	ErrCannotVoteSelf          = errors.New("cannot_vote_self")
	ErrEliminatedCannotAct     = errors.New("eliminated_cannot_act")
	ErrCannotVoteEliminated    = errors.New("cannot_vote_eliminated")
	ErrCannotVoteSpectator     = errors.New("cannot_vote_spectator")
	ErrSpectatorCannotAct      = errors.New("spectator_cannot_act")
	ErrRateLimited             = errors.New("rate_limited")
	ErrInvalidSetting          = errors.New("invalid_setting")
	ErrNotEnoughPlayers        = errors.New("not_enough_players")
	ErrNotImpostor             = errors.New("not_impostor")
	ErrAlreadyPlayer           = errors.New("already_player")
	ErrCannotTransferSpectator = errors.New("cannot_transfer_to_spectator")
	ErrPlayerNotFound          = errors.New("player_not_found")
	ErrTargetNotFound          = errors.New("target_not_found")
	ErrUnsupportedCommand      = errors.New("unsupported_command")
)
