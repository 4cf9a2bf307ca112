package game

import (
	"fmt"
	"math/rand"
	"time"

	appErr "teenpatti-service/pkg/errors"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Action string

const (
	ActionFold  Action = "fold"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
	ActionCheck Action = "check"
	ActionShow  Action = "show"
	ActionBlind Action = "blind"
	ActionLeave Action = "leave"
)

type Player struct {
	UserID     int64    `json:"userId,string"`
	Alias      string   `json:"alias"`
	Position   int      `json:"position"`
	Hand       []Card   `json:"hand,omitempty"`
	HandRank   HandRank `json:"handRank"`
	HandValue  int64    `json:"handValue"`
	Balance    int64    `json:"balance"`
	IsActive   bool     `json:"isActive"`
	IsFolded   bool     `json:"isFolded"`
	IsBlind    bool     `json:"isBlind"`
	HasShown   bool     `json:"hasShown"`
	CurrentBet int64    `json:"currentBet"`
	TotalBet   int64    `json:"totalBet"`
	LastAction Action   `json:"lastAction,omitempty"`
}

type HistoryEntry struct {
	Action    Action    `json:"action"`
	UserID    int64     `json:"userId,string"`
	Amount    int64     `json:"amount"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RoundConfig struct {
	ID       int64
	Code     string
	MaxSeats int
	MinBet   int64
	MaxBet   int64
}

// Round holds the mutable state of one game of play. It is not safe for
// concurrent use; the owning runtime serializes all mutations.
type Round struct {
	ID                 int64
	Code               string
	Status             Status
	Players            []*Player
	CurrentPlayerIndex int
	CurrentBet         int64
	MinBet             int64
	MaxBet             int64
	Pot                int64
	MaxSeats           int
	History            []HistoryEntry
	WinnerIDs          []int64
	WinningHandRank    HandRank
	CreatedAt          time.Time
	StartedAt          time.Time
	EndedAt            time.Time

	deck *Deck
	rng  *rand.Rand
}

// ActResult reports what a successful action moved, so the caller can
// mirror the chip movement onto the persisted wallet.
type ActResult struct {
	Action Action
	Amount int64
	Ended  bool
}

func NewRound(cfg RoundConfig, rng *rand.Rand) *Round {
	return &Round{
		ID:        cfg.ID,
		Code:      cfg.Code,
		Status:    StatusWaiting,
		Players:   make([]*Player, 0, cfg.MaxSeats),
		MinBet:    cfg.MinBet,
		MaxBet:    cfg.MaxBet,
		MaxSeats:  cfg.MaxSeats,
		History:   make([]HistoryEntry, 0, 16),
		CreatedAt: time.Now(),
		rng:       rng,
	}
}

// Join seats a player at the next free position.
func (r *Round) Join(userID int64, alias string, balance int64) (*Player, error) {
	if r.Status != StatusWaiting {
		return nil, appErr.ErrGameInProgress
	}
	if len(r.Players) >= r.MaxSeats {
		return nil, appErr.ErrGameFull
	}
	if r.findPlayer(userID) != nil {
		return nil, appErr.ErrAlreadyJoined
	}

	p := &Player{
		UserID:   userID,
		Alias:    alias,
		Position: len(r.Players),
		Balance:  balance,
		IsActive: true,
		IsBlind:  true,
	}
	r.Players = append(r.Players, p)
	return p, nil
}

// Leave removes a waiting player, or folds an active one in place so the
// pot stays intact. The returned result reports whether the round ended.
func (r *Round) Leave(userID int64) (*ActResult, error) {
	p := r.findPlayer(userID)
	if p == nil {
		return nil, appErr.ErrPlayerNotFound
	}

	switch r.Status {
	case StatusWaiting:
		r.removePlayer(p)
		return &ActResult{Action: ActionLeave}, nil
	case StatusActive:
		if p.IsFolded {
			// Already out of the hand, nothing more to do.
			return &ActResult{Action: ActionLeave}, nil
		}
		wasTurn := r.Players[r.CurrentPlayerIndex] == p
		p.IsFolded = true
		p.IsActive = false
		p.LastAction = ActionLeave
		r.appendHistory(ActionLeave, userID, 0, "left during active round")

		if ended, err := r.checkRoundEnd(); err != nil {
			return nil, err
		} else if ended {
			return &ActResult{Action: ActionLeave, Ended: true}, nil
		}
		if wasTurn {
			if err := r.advanceTurn(); err != nil {
				return nil, err
			}
		}
		return &ActResult{Action: ActionLeave}, nil
	default:
		return nil, appErr.ErrGameNotActive
	}
}

// Start deals a fresh shuffled deck and activates the round.
func (r *Round) Start() error {
	if r.Status != StatusWaiting {
		return appErr.ErrGameInProgress
	}
	if len(r.Players) < 2 {
		return appErr.ErrNotEnoughPlayers
	}
	for _, p := range r.Players {
		if p.Balance < r.MinBet {
			return fmt.Errorf("%w: player %d needs at least %d chips", appErr.ErrInsufficientChips, p.UserID, r.MinBet)
		}
	}

	r.deck = NewDeck(r.rng)
	hands, err := r.deck.DealHands(len(r.Players), 3)
	if err != nil {
		return err
	}
	for i, p := range r.Players {
		p.Hand = hands[i]
		p.HandRank = EvaluateHand(p.Hand)
		p.HandValue = HandValue(p.Hand, p.HandRank)
		p.IsActive = true
		p.IsFolded = false
		p.IsBlind = true
		p.HasShown = false
		p.CurrentBet = 0
		p.TotalBet = 0
		p.LastAction = ""
	}

	r.Status = StatusActive
	r.CurrentPlayerIndex = 0
	r.CurrentBet = 0
	r.Pot = 0
	r.StartedAt = time.Now()
	return nil
}

// Act validates and applies one player action. Validation happens fully
// before any mutation, so a rejected action leaves the round unchanged.
// The history entry is appended after the mutation and before turn
// advancement.
func (r *Round) Act(userID int64, action Action, amount int64) (*ActResult, error) {
	if r.Status != StatusActive {
		return nil, appErr.ErrGameNotActive
	}
	p := r.findPlayer(userID)
	if p == nil {
		return nil, appErr.ErrPlayerNotFound
	}
	if r.Players[r.CurrentPlayerIndex] != p {
		return nil, appErr.ErrNotYourTurn
	}

	switch action {
	case ActionFold:
		return r.applyFold(p)
	case ActionCall:
		return r.applyCall(p)
	case ActionRaise:
		return r.applyRaise(p, amount)
	case ActionCheck:
		return r.applyCheck(p)
	case ActionShow:
		return r.applyShow(p)
	case ActionBlind:
		return r.applyBlind(p)
	default:
		return nil, fmt.Errorf("%w: %q", appErr.ErrInvalidAction, action)
	}
}

func (r *Round) applyFold(p *Player) (*ActResult, error) {
	p.IsFolded = true
	p.IsActive = false
	p.LastAction = ActionFold
	r.appendHistory(ActionFold, p.UserID, 0, "")

	if ended, err := r.checkRoundEnd(); err != nil {
		return nil, err
	} else if ended {
		return &ActResult{Action: ActionFold, Ended: true}, nil
	}
	if err := r.advanceTurn(); err != nil {
		return nil, err
	}
	return &ActResult{Action: ActionFold}, nil
}

func (r *Round) applyCall(p *Player) (*ActResult, error) {
	owed := r.CurrentBet - p.CurrentBet
	if p.Balance < owed {
		return nil, fmt.Errorf("%w to call: need %d, have %d", appErr.ErrInsufficientChips, owed, p.Balance)
	}
	r.commitBet(p, owed, ActionCall)
	r.appendHistory(ActionCall, p.UserID, owed, "")
	if err := r.advanceTurn(); err != nil {
		return nil, err
	}
	return &ActResult{Action: ActionCall, Amount: owed}, nil
}

func (r *Round) applyRaise(p *Player, amount int64) (*ActResult, error) {
	if amount < r.MinBet || amount > r.MaxBet {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", appErr.ErrInvalidRaise, amount, r.MinBet, r.MaxBet)
	}
	owed := (r.CurrentBet - p.CurrentBet) + amount
	if p.Balance < owed {
		return nil, fmt.Errorf("%w to raise: need %d, have %d", appErr.ErrInsufficientChips, owed, p.Balance)
	}
	r.CurrentBet += amount
	r.commitBet(p, owed, ActionRaise)
	r.appendHistory(ActionRaise, p.UserID, owed, fmt.Sprintf("raised table bet to %d", r.CurrentBet))
	if err := r.advanceTurn(); err != nil {
		return nil, err
	}
	return &ActResult{Action: ActionRaise, Amount: owed}, nil
}

func (r *Round) applyCheck(p *Player) (*ActResult, error) {
	if p.CurrentBet < r.CurrentBet {
		return nil, fmt.Errorf("%w: table bet is %d, yours is %d", appErr.ErrMustCallOrRaise, r.CurrentBet, p.CurrentBet)
	}
	p.LastAction = ActionCheck
	p.IsBlind = false
	r.appendHistory(ActionCheck, p.UserID, 0, "")
	if err := r.advanceTurn(); err != nil {
		return nil, err
	}
	return &ActResult{Action: ActionCheck}, nil
}

// applyShow reveals the actor's cards and forces an immediate showdown.
// Show is only legal heads-up: with more than two players still in, the
// hand has to be decided by folding or a later show.
func (r *Round) applyShow(p *Player) (*ActResult, error) {
	eligible := r.eligiblePlayers()
	if len(eligible) != 2 {
		return nil, appErr.ErrShowUnavailable
	}

	p.IsBlind = false
	p.HasShown = true
	p.LastAction = ActionShow

	var opponent *Player
	for _, e := range eligible {
		if e != p {
			opponent = e
		}
	}
	opponent.HasShown = true

	// On a dead-equal value the player who asked for the show loses.
	winner := opponent
	if p.HandValue > opponent.HandValue {
		winner = p
	}
	r.appendHistory(ActionShow, p.UserID, 0,
		fmt.Sprintf("%s vs %s", p.HandRank, opponent.HandRank))
	r.complete([]*Player{winner})
	return &ActResult{Action: ActionShow, Ended: true}, nil
}

func (r *Round) applyBlind(p *Player) (*ActResult, error) {
	if !p.IsBlind {
		return nil, appErr.ErrCardsSeen
	}
	owed := r.MinBet
	if p.Balance < owed {
		return nil, fmt.Errorf("%w to bet blind: need %d, have %d", appErr.ErrInsufficientChips, owed, p.Balance)
	}
	r.commitBet(p, owed, ActionBlind)
	if p.CurrentBet > r.CurrentBet {
		r.CurrentBet = p.CurrentBet
	}
	r.appendHistory(ActionBlind, p.UserID, owed, "")
	if err := r.advanceTurn(); err != nil {
		return nil, err
	}
	return &ActResult{Action: ActionBlind, Amount: owed}, nil
}

// Resolve finishes a round once at most one eligible player remains, or
// decides a multi-way showdown by hand value. Calling it on a completed
// round fails rather than paying twice.
func (r *Round) Resolve() error {
	switch r.Status {
	case StatusCompleted:
		return appErr.ErrAlreadyCompleted
	case StatusActive:
	default:
		return appErr.ErrGameNotActive
	}

	eligible := r.eligiblePlayers()
	switch len(eligible) {
	case 0:
		r.cancel()
		return nil
	case 1:
		r.complete(eligible)
		return nil
	default:
		var best int64 = -1
		for _, p := range eligible {
			if p.HandValue > best {
				best = p.HandValue
			}
		}
		winners := make([]*Player, 0, len(eligible))
		for _, p := range eligible {
			p.HasShown = true
			if p.HandValue == best {
				winners = append(winners, p)
			}
		}
		r.complete(winners)
		return nil
	}
}

func (r *Round) commitBet(p *Player, amount int64, action Action) {
	p.Balance -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	p.LastAction = action
	r.Pot += amount
	// Acting on the table bet means the player has looked at their cards.
	if action != ActionBlind {
		p.IsBlind = false
	}
}

// checkRoundEnd completes the round when one eligible player is left,
// or cancels it when none are.
func (r *Round) checkRoundEnd() (bool, error) {
	eligible := r.eligiblePlayers()
	switch len(eligible) {
	case 1:
		r.complete(eligible)
		return true, nil
	case 0:
		r.cancel()
		return true, nil
	default:
		return false, nil
	}
}

func (r *Round) complete(winners []*Player) {
	r.Status = StatusCompleted
	r.EndedAt = time.Now()
	r.WinnerIDs = make([]int64, len(winners))
	for i, w := range winners {
		r.WinnerIDs[i] = w.UserID
	}
	if len(winners) > 0 {
		r.WinningHandRank = winners[0].HandRank
	}
	r.appendHistory("end", 0, r.Pot, fmt.Sprintf("round completed, winners %v", r.WinnerIDs))
}

func (r *Round) cancel() {
	r.Status = StatusCancelled
	r.EndedAt = time.Now()
	r.appendHistory("cancel", 0, 0, "round cancelled, no eligible players")
}

func (r *Round) advanceTurn() error {
	n := len(r.Players)
	for step := 1; step <= n; step++ {
		idx := (r.CurrentPlayerIndex + step) % n
		p := r.Players[idx]
		if p.IsActive && !p.IsFolded {
			r.CurrentPlayerIndex = idx
			return nil
		}
	}
	// Unreachable: fold handling ends the round before this can happen.
	return appErr.ErrNoActivePlayers
}

func (r *Round) eligiblePlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsActive && !p.IsFolded {
			out = append(out, p)
		}
	}
	return out
}

func (r *Round) findPlayer(userID int64) *Player {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Round) removePlayer(target *Player) {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p != target {
			players = append(players, p)
		}
	}
	for i, p := range players {
		p.Position = i
	}
	r.Players = players
	if r.CurrentPlayerIndex >= len(r.Players) {
		r.CurrentPlayerIndex = 0
	}
}

func (r *Round) appendHistory(action Action, userID, amount int64, note string) {
	r.History = append(r.History, HistoryEntry{
		Action:    action,
		UserID:    userID,
		Amount:    amount,
		Note:      note,
		Timestamp: time.Now(),
	})
}

// CurrentPlayer returns the seat whose turn it is, or nil outside an
// active round.
func (r *Round) CurrentPlayer() *Player {
	if r.Status != StatusActive || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}
