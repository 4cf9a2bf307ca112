package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"teenpatti-service/internal/config"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultTurnSeconds = 20
	saveRetries        = 3
	saveRetryBackoff   = 100 * time.Millisecond
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// GameRuntime owns one live round. Its mutex is the per-game exclusivity
// scope: every mutation of the round goes through it, so different games
// proceed in parallel while a single game is strictly serialized.
type GameRuntime struct {
	gameID int64
	round  *Round
	svc    *Service

	subscribers  map[int64]chan OutgoingMessage
	seq          int64
	timer        *time.Timer
	turnDeadline time.Time

	mu sync.Mutex
}

func newGameRuntime(svc *Service, round *Round) *GameRuntime {
	return &GameRuntime{
		gameID:      round.ID,
		round:       round,
		svc:         svc,
		subscribers: make(map[int64]chan OutgoingMessage),
	}
}

func (rt *GameRuntime) Subscribe(userID int64) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[userID] = ch
	rt.pushStateLocked(userID)
	return ch
}

func (rt *GameRuntime) Unsubscribe(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
}

// HandleAction routes one client intent into the round state machine.
func (rt *GameRuntime) HandleAction(ctx context.Context, userID int64, action string, data json.RawMessage) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch action {
	case "start":
		return rt.handleStartLocked(ctx, userID)
	case "fold", "call", "raise", "check", "show", "blind":
		return rt.handleTurnActionLocked(ctx, userID, Action(action), data)
	case "leave":
		return rt.handleLeaveLocked(ctx, userID)
	case "rejoin":
		rt.pushStateLocked(userID)
		return nil
	case "ping":
		rt.pushMessageLocked(userID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked(), Data: map[string]string{"message": "pong"}})
		return nil
	default:
		return appErr.ErrInvalidAction
	}
}

func (rt *GameRuntime) handleStartLocked(ctx context.Context, userID int64) error {
	if rt.round.findPlayer(userID) == nil {
		return appErr.ErrGameAccessDenied
	}
	if err := rt.round.Start(); err != nil {
		return err
	}

	rt.saveRecordLocked(ctx)
	rt.svc.deregisterOpenGame(ctx, rt.gameID)
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	logger.Log.Info("round started",
		zap.Int64("gameID", rt.gameID),
		zap.Int("players", len(rt.round.Players)),
	)
	return nil
}

func (rt *GameRuntime) handleTurnActionLocked(ctx context.Context, userID int64, action Action, data json.RawMessage) error {
	var payload struct {
		Amount int64 `json:"amount"`
	}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &payload)
	}

	res, err := rt.round.Act(userID, action, payload.Amount)
	if err != nil {
		return err
	}

	if res.Amount > 0 {
		rt.debitLocked(ctx, userID, res.Amount)
	}

	if res.Ended {
		rt.finishLocked(ctx)
		return nil
	}

	rt.saveRecordLocked(ctx)
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
	return nil
}

func (rt *GameRuntime) handleLeaveLocked(ctx context.Context, userID int64) error {
	res, err := rt.round.Leave(userID)
	if err != nil {
		return err
	}

	rt.svc.afterLeave(ctx, rt, userID)

	if res.Ended {
		rt.finishLocked(ctx)
		return nil
	}
	rt.saveRecordLocked(ctx)
	// A leave can hand the turn to the next seat; the previous deadline
	// must not keep ticking against them.
	if rt.round.Status == StatusActive {
		rt.resetTurnTimerLocked()
	}
	rt.broadcastStateLocked()
	return nil
}

// Join seats a player, persists the roster, and notifies subscribers.
func (rt *GameRuntime) Join(ctx context.Context, userID int64, alias string, balance int64) (*Player, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, err := rt.round.Join(userID, alias, balance)
	if err != nil {
		return nil, err
	}
	rt.saveRecordLocked(ctx)
	rt.broadcastStateLocked()
	return p, nil
}

// Resolve finishes the round explicitly, e.g. an operator action on a
// stuck game. Idempotent via the round's completed guard.
func (rt *GameRuntime) Resolve(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if err := rt.round.Resolve(); err != nil {
		return err
	}
	rt.finishLocked(ctx)
	return nil
}

// View returns the redacted state for one viewer.
func (rt *GameRuntime) View(viewerID int64) GameView {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportViewLocked(viewerID)
}

func (rt *GameRuntime) Seated(userID int64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.round.findPlayer(userID) != nil
}

func (rt *GameRuntime) finishLocked(ctx context.Context) {
	rt.cancelTimerLocked()
	rt.saveRecordLocked(ctx)
	rt.broadcastStateLocked()
	rt.svc.deregisterOpenGame(ctx, rt.gameID)

	if rt.round.Status == StatusCompleted {
		// Settlement runs outside the runtime lock: it only touches the
		// database and the round is terminal by now.
		go rt.settleAndNotify()
	} else {
		rt.svc.dropRuntime(rt.gameID)
	}
}

func (rt *GameRuntime) settleAndNotify() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := rt.svc.SettleRound(ctx, rt.round)
	if err != nil {
		if err == appErr.ErrAlreadySettled {
			return
		}
		logger.Log.Error("settlement failed",
			zap.Int64("gameID", rt.gameID),
			zap.Error(err),
		)
		return
	}

	rt.mu.Lock()
	rt.broadcastEventLocked("game_ended", result)
	rt.mu.Unlock()
	rt.svc.dropRuntime(rt.gameID)
}

// debitLocked mirrors an in-round chip movement onto the wallet. The
// round already validated against the balance snapshot, so a failure
// here is infrastructure trouble: retry with backoff, then log the
// intended effect for replay instead of unwinding a legal action.
func (rt *GameRuntime) debitLocked(ctx context.Context, userID int64, amount int64) {
	var err error
	for attempt := 1; attempt <= saveRetries; attempt++ {
		if err = rt.svc.debitBet(ctx, userID, rt.gameID, amount); err == nil {
			return
		}
		time.Sleep(saveRetryBackoff * time.Duration(attempt))
	}
	logger.Log.Error("bet debit failed after retries",
		zap.Int64("gameID", rt.gameID),
		zap.Int64("userID", userID),
		zap.Int64("amount", amount),
		zap.Error(err),
	)
}

func (rt *GameRuntime) saveRecordLocked(ctx context.Context) {
	var err error
	for attempt := 1; attempt <= saveRetries; attempt++ {
		if err = rt.svc.saveRecord(ctx, rt.round); err == nil {
			return
		}
		time.Sleep(saveRetryBackoff * time.Duration(attempt))
	}
	logger.Log.Error("game record save failed after retries",
		zap.Int64("gameID", rt.gameID),
		zap.String("status", string(rt.round.Status)),
		zap.Error(err),
	)
}

func (rt *GameRuntime) exportViewLocked(viewerID int64) GameView {
	view := BuildView(rt.round, viewerID)
	view.Countdown = rt.countdownSecondsLocked()
	return view
}

func (rt *GameRuntime) pushStateLocked(userID int64) {
	rt.pushMessageLocked(userID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportViewLocked(userID),
	})
}

// broadcastStateLocked sends each subscriber their own redacted view.
func (rt *GameRuntime) broadcastStateLocked() {
	stateSeq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  stateSeq,
			Data: rt.exportViewLocked(uid),
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.Int64("gameID", rt.gameID))
		}
	}
}

func (rt *GameRuntime) broadcastEventLocked(event string, payload interface{}) {
	seq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		select {
		case ch <- OutgoingMessage{Type: event, Seq: seq, Data: payload}:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.Int64("gameID", rt.gameID))
		}
	}
}

func (rt *GameRuntime) pushMessageLocked(userID int64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[userID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", userID), zap.Int64("gameID", rt.gameID))
		}
	}
}

func (rt *GameRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

func turnSeconds() time.Duration {
	if config.GlobalConfig != nil && config.GlobalConfig.Game.TurnSeconds > 0 {
		return time.Duration(config.GlobalConfig.Game.TurnSeconds) * time.Second
	}
	return defaultTurnSeconds * time.Second
}

func (rt *GameRuntime) resetTurnTimerLocked() {
	rt.cancelTimerLocked()
	d := turnSeconds()
	rt.turnDeadline = time.Now().Add(d)
	rt.timer = time.AfterFunc(d, rt.onTurnTimeout)
}

// onTurnTimeout is the turn watchdog: it folds the stalled seat through
// the same path an explicit fold takes.
func (rt *GameRuntime) onTurnTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.round.Status != StatusActive {
		return
	}
	cp := rt.round.CurrentPlayer()
	if cp == nil {
		return
	}

	logger.Log.Warn("turn timeout auto-fold",
		zap.Int64("gameID", rt.gameID),
		zap.Int64("userID", cp.UserID),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := rt.round.Act(cp.UserID, ActionFold, 0)
	if err != nil {
		logger.Log.Error("auto-fold failed", zap.Int64("gameID", rt.gameID), zap.Error(err))
		return
	}
	if res.Ended {
		rt.finishLocked(ctx)
		return
	}
	rt.saveRecordLocked(ctx)
	rt.resetTurnTimerLocked()
	rt.broadcastStateLocked()
}

func (rt *GameRuntime) cancelTimerLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (rt *GameRuntime) countdownSecondsLocked() int {
	if rt.turnDeadline.IsZero() {
		return 0
	}
	diff := time.Until(rt.turnDeadline)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Second)
}
