package errors

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses; wrap with fmt.Errorf("%w: detail", ...) to attach context.

// Validation
var (
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidRaise  = errors.New("raise amount out of range")
	ErrInvalidStake  = errors.New("invalid stake level")
	ErrCardsSeen     = errors.New("cards already seen, blind bet unavailable")
)

// Game state
var (
	ErrGameFull         = errors.New("game is full")
	ErrAlreadyJoined    = errors.New("player already joined")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrGameNotActive    = errors.New("game is not active")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrMustCallOrRaise  = errors.New("current bet below table bet, must call or raise")
	ErrShowUnavailable  = errors.New("show requires exactly two players in the round")
	ErrAlreadyCompleted = errors.New("game already completed")
	ErrAlreadySettled   = errors.New("game already settled")
)

// Funds
var (
	ErrInsufficientChips   = errors.New("insufficient chips")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Not found
var (
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrStakeNotFound  = errors.New("stake level not found")
	ErrUserNotFound   = errors.New("user not found")
)

// Invariant violations, defensive only
var (
	ErrNoActivePlayers = errors.New("no active players to advance to")
	ErrDeckExhausted   = errors.New("deck exhausted")
)

// Auth and access
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrGameAccessDenied = errors.New("game access denied")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidSMSCode   = errors.New("invalid sms code")
	ErrSMSCodeExpired   = errors.New("sms code expired")
	ErrUserBanned       = errors.New("user is banned")
)

// Lobby
var ErrLobbyProcessing = errors.New("lobby request already processing")

// Settlement
var ErrSettlementValidation = errors.New("settlement request validation failed")
