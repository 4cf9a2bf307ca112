package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"teenpatti-service/internal/middleware"
	"teenpatti-service/internal/service"
	"teenpatti-service/internal/service/lobby"
	usersvc "teenpatti-service/internal/service/user"
	"teenpatti-service/internal/ws"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/teenpatti/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/sms/send", handler.SendSMSCode)
			authGroup.POST("/sms/login", handler.SMSLogin)
		}

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
		}

		v1.GET("/stakes", handler.ListStakeLevels)

		walletGroup := v1.Group("/wallet")
		walletGroup.Use(middleware.AuthRequired())
		{
			walletGroup.GET("", handler.GetWallet)
			walletGroup.GET("/ledger", handler.GetLedger)
		}

		lobbyGroup := v1.Group("/lobby")
		lobbyGroup.Use(middleware.AuthRequired())
		{
			lobbyGroup.POST("/join", handler.LobbyJoin)
			lobbyGroup.POST("/leave", handler.LobbyLeave)
		}

		gameGroup := v1.Group("/games")
		gameGroup.Use(middleware.AuthRequired())
		{
			gameGroup.GET("/:id", handler.GetGameState)
		}
	}

	r.GET("/ws/game/:gameId", wsHandler.HandleGameWS)
}

type smsSendBody struct {
	Phone string `json:"phone" binding:"required"`
}

type smsLoginBody struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type lobbyJoinBody struct {
	StakeLevelID int64 `json:"stakeLevelId" binding:"required,min=1"`
	GameID       int64 `json:"gameId"`
}

type lobbyLeaveBody struct {
	GameID int64 `json:"gameId" binding:"required,min=1"`
}

type updateProfileBody struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) SendSMSCode(c *gin.Context) {
	var body smsSendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Auth.SendSMS(c.Request.Context(), body.Phone); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "code sent")
}

func (h *Handler) SMSLogin(c *gin.Context) {
	var body smsLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), body.Phone, body.Code)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrInvalidPhone), errors.Is(err, appErr.ErrInvalidSMSCode):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrSMSCodeExpired):
			status = http.StatusGone
		case errors.Is(err, appErr.ErrUserBanned):
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.UpdateProfile(c.Request.Context(), userID, usersvc.UpdateProfileRequest{
		Nickname: body.Nickname,
		Avatar:   body.Avatar,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, updated)
}

func (h *Handler) ListStakeLevels(c *gin.Context) {
	stakes, err := h.services.Table.ListStakeLevels(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"stakes": stakes})
}

func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallet, err := h.services.Wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"wallet": wallet})
}

func (h *Handler) GetLedger(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Wallet.Ledger(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) LobbyJoin(c *gin.Context) {
	var body lobbyJoinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.services.Lobby.Join(c.Request.Context(), lobby.JoinRequest{
		UserID:       userID,
		StakeLevelID: body.StakeLevelID,
		GameID:       body.GameID,
	})
	if err != nil {
		h.handleLobbyError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *Handler) LobbyLeave(c *gin.Context) {
	var body lobbyLeaveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.services.Lobby.Leave(c.Request.Context(), userID, body.GameID); err != nil {
		h.handleLobbyError(c, err)
		return
	}

	response.SuccessWithMsg(c, gin.H{"status": "left"}, "")
}

func (h *Handler) GetGameState(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || gameID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid game id")
		return
	}

	view, err := h.services.Game.StateView(c.Request.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrGameNotFound):
			status = http.StatusNotFound
		case errors.Is(err, appErr.ErrAlreadyCompleted):
			status = http.StatusGone
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, view)
}

func (h *Handler) handleLobbyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrStakeNotFound), errors.Is(err, appErr.ErrGameNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrInvalidStake), errors.Is(err, appErr.ErrNotEnoughPlayers):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrInsufficientBalance), errors.Is(err, appErr.ErrInsufficientChips):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrAlreadyJoined), errors.Is(err, appErr.ErrGameFull), errors.Is(err, appErr.ErrGameInProgress):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrLobbyProcessing):
		response.Error(c, http.StatusTooManyRequests, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func parsePositiveIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return parsed, nil
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
