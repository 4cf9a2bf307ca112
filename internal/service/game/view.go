package game

import "time"

// PlayerView is a seat as one particular viewer is allowed to see it.
// Another player's cards stay hidden behind CardCount until that player
// has shown, or until the round is over for everyone still in it.
type PlayerView struct {
	UserID     int64    `json:"userId,string"`
	Alias      string   `json:"alias"`
	Position   int      `json:"position"`
	Cards      []string `json:"cards,omitempty"`
	CardCount  int      `json:"cardCount"`
	HandRank   string   `json:"handRank,omitempty"`
	IsActive   bool     `json:"isActive"`
	IsFolded   bool     `json:"isFolded"`
	IsBlind    bool     `json:"isBlind"`
	CurrentBet int64    `json:"currentBet"`
	TotalBet   int64    `json:"totalBet"`
	LastAction Action   `json:"lastAction,omitempty"`
}

type GameView struct {
	GameID          int64          `json:"gameId,string"`
	Code            string         `json:"code"`
	Status          Status         `json:"status"`
	Players         []PlayerView   `json:"players"`
	CurrentTurn     int64          `json:"currentTurn,string,omitempty"`
	CurrentBet      int64          `json:"currentBet"`
	MinBet          int64          `json:"minBet"`
	MaxBet          int64          `json:"maxBet"`
	Pot             int64          `json:"pot"`
	AllowedActions  []Action       `json:"allowedActions"`
	Countdown       int            `json:"countdown"`
	History         []HistoryEntry `json:"history"`
	WinnerIDs       []int64        `json:"winnerIds,omitempty"`
	WinningHandRank string         `json:"winningHandRank,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// BuildView produces the redacted state for one viewer.
func BuildView(r *Round, viewerID int64) GameView {
	view := GameView{
		GameID:     r.ID,
		Code:       r.Code,
		Status:     r.Status,
		Players:    make([]PlayerView, 0, len(r.Players)),
		CurrentBet: r.CurrentBet,
		MinBet:     r.MinBet,
		MaxBet:     r.MaxBet,
		Pot:        r.Pot,
		History:    append([]HistoryEntry(nil), r.History...),
		CreatedAt:  r.CreatedAt,
	}

	for _, p := range r.Players {
		pv := PlayerView{
			UserID:     p.UserID,
			Alias:      p.Alias,
			Position:   p.Position,
			CardCount:  len(p.Hand),
			IsActive:   p.IsActive,
			IsFolded:   p.IsFolded,
			IsBlind:    p.IsBlind,
			CurrentBet: p.CurrentBet,
			TotalBet:   p.TotalBet,
			LastAction: p.LastAction,
		}
		if canSeeHand(r, p, viewerID) {
			pv.Cards = cardCodes(p.Hand)
			pv.HandRank = p.HandRank.String()
		}
		view.Players = append(view.Players, pv)
	}

	if cp := r.CurrentPlayer(); cp != nil {
		view.CurrentTurn = cp.UserID
		if cp.UserID == viewerID {
			view.AllowedActions = allowedActions(r, cp)
		}
	}

	if r.Status == StatusCompleted {
		view.WinnerIDs = r.WinnerIDs
		view.WinningHandRank = r.WinningHandRank.String()
	}
	return view
}

func canSeeHand(r *Round, p *Player, viewerID int64) bool {
	if p.UserID == viewerID {
		// Blind players have not looked at their own cards yet.
		return !p.IsBlind || r.Status == StatusCompleted
	}
	return p.HasShown
}

func allowedActions(r *Round, p *Player) []Action {
	actions := []Action{ActionFold}
	if p.IsBlind {
		actions = append(actions, ActionBlind)
	}
	actions = append(actions, ActionCall, ActionRaise)
	if p.CurrentBet >= r.CurrentBet {
		actions = append(actions, ActionCheck)
	}
	if len(r.eligiblePlayers()) == 2 {
		actions = append(actions, ActionShow)
	}
	return actions
}
