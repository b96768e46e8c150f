package arena

import (
	"encoding/json"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/judge"
)

// 클라이언트 → 서버 이벤트
const (
	EventJoinQueue      = "join-queue"
	EventLeaveQueue     = "leave-queue"
	EventCodeUpdate     = "code-update"
	EventSubmitSolution = "submit-solution"
)

// 서버 → 클라이언트 이벤트
const (
	EventQueueJoined          = "queue-joined"
	EventMatchmakingStatus    = "matchmaking-status"
	EventQueueLeft            = "queue-left"
	EventMatchFound           = "match-found"
	EventCodeUpdated          = "code-updated"
	EventOpponentSubmitted    = "opponent-submitted"
	EventSubmissionReceived   = "submission-received"
	EventBattleResult         = "battle-result"
	EventOpponentDisconnected = "opponent-disconnected"
	EventOpponentReconnected  = "opponent-reconnected"
	EventBattleError          = "battle-error"
)

// Envelope WebSocket 메시지 공통 포맷
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinQueuePayload struct {
	BattleType string `json:"battleType"`
}

type CodePayload struct {
	BattleID string `json:"battleId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type QueueJoinedPayload struct {
	BattleType     string `json:"battleType"`
	PlayersInQueue int    `json:"playersInQueue"`
}

type MatchmakingStatusPayload struct {
	BattleType     string `json:"battleType"`
	PlayersInQueue int    `json:"playersInQueue"`
	WaitSeconds    int    `json:"waitSeconds"`
}

type OpponentInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
}

type MatchFoundPayload struct {
	BattleID  string          `json:"battleId"`
	Opponent  OpponentInfo    `json:"opponent"`
	Problem   *models.Problem `json:"problem"` // 테스트 케이스 제외
	TimeLimit int             `json:"timeLimit"`
}

type CodeUpdatedPayload struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	From     string `json:"from"`
}

type OpponentSubmittedPayload struct {
	UserName string `json:"userName"`
	Score    int    `json:"score"`
}

type SubmissionReceivedPayload struct {
	Message string             `json:"message"`
	Result  *judge.GradeResult `json:"result"`
}

type BattleResultPayload struct {
	BattleID       string               `json:"battleId"`
	Result         models.BattleOutcome `json:"result"`
	PlayerResult   models.PlayerResult  `json:"playerResult"`
	OpponentResult models.PlayerResult  `json:"opponentResult"`
	Duration       int                  `json:"duration"`
}

type OpponentDisconnectedPayload struct {
	UserName     string `json:"userName"`
	GraceSeconds int    `json:"graceSeconds"`
}

type OpponentReconnectedPayload struct {
	UserName string `json:"userName"`
}

type BattleErrorPayload struct {
	Message string `json:"message"`
}
