package lobby

type JoinRequest struct {
	UserID       int64
	StakeLevelID int64
	GameID       int64 // optional: join a specific game instead of quick-join
}

type JoinResult struct {
	GameID   int64  `json:"gameId,string"`
	Code     string `json:"code"`
	Position int    `json:"position"`
	Created  bool   `json:"created"`
}
