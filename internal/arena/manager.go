package arena

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/service"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// battleTypeDifficulty 배틀 타입과 출제 난이도 매핑
func battleTypeDifficulty(battleType string) (models.Difficulty, bool) {
	switch battleType {
	case "easy":
		return models.DifficultyEasy, true
	case "medium":
		return models.DifficultyMedium, true
	case "hard":
		return models.DifficultyHard, true
	}
	return "", false
}

// Manager 매칭 대기열과 진행 중인 배틀 세션을 묶는 진입점.
// Hub의 인바운드 이벤트를 큐 액터와 세션 액터로 라우팅한다.
type Manager struct {
	hub           *Hub
	matchmaker    *Matchmaker
	battleService *service.BattleService
	grader        Grader
	cfg           SessionConfig

	sessions map[string]*Session // battleID -> session
	byUser   map[string]string   // userID -> battleID
	pending  map[string]struct{} // 매칭 확정 후 세션 등록 전까지 예약된 userID
	mu       sync.RWMutex
}

func NewManager(
	hub *Hub,
	battleService *service.BattleService,
	grader Grader,
	cfg SessionConfig,
) *Manager {
	m := &Manager{
		hub:           hub,
		battleService: battleService,
		grader:        grader,
		cfg:           cfg,
		sessions:      make(map[string]*Session),
		byUser:        make(map[string]string),
		pending:       make(map[string]struct{}),
	}

	m.matchmaker = NewMatchmaker(hub, m.startBattle, 5*time.Second)
	m.matchmaker.SetJoinGuard(func(userID string) bool {
		return !m.inBattle(userID)
	})

	hub.Handle(EventJoinQueue, m.handleJoinQueue)
	hub.Handle(EventLeaveQueue, m.handleLeaveQueue)
	hub.Handle(EventCodeUpdate, m.handleCodeUpdate)
	hub.Handle(EventSubmitSolution, m.handleSubmit)
	hub.OnConnect(m.handleConnect)
	hub.OnDisconnect(m.handleDisconnect)

	return m
}

// Start Hub와 매칭 루프 실행
func (m *Manager) Start() {
	go m.hub.Run()
	m.matchmaker.Start()
}

// Stop 매칭 루프 중지. 진행 중인 세션은 자연히 끝까지 진행된다.
func (m *Manager) Stop() {
	m.matchmaker.Stop()
}

// ActiveBattles 진행 중인 배틀 수
func (m *Manager) ActiveBattles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) handleJoinQueue(userID string, payload []byte) {
	var req JoinQueuePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(userID, "Invalid join-queue payload")
		return
	}

	if _, ok := battleTypeDifficulty(req.BattleType); !ok {
		m.sendError(userID, "Unknown battle type: "+req.BattleType)
		return
	}

	if m.inBattle(userID) {
		m.sendError(userID, "Already in an active battle")
		return
	}

	user, err := m.battleService.GetUserOrFail(userID)
	if err != nil {
		logger.Error("Failed to load user for matchmaking", "userId", userID, "error", err)
		m.sendError(userID, "Failed to join queue")
		return
	}

	m.matchmaker.Enqueue(req.BattleType, &QueuedPlayer{
		UserID:   user.ID,
		UserName: user.Username,
		Rating:   user.Rating,
		JoinedAt: time.Now(),
	})
}

func (m *Manager) handleLeaveQueue(userID string, _ []byte) {
	m.matchmaker.Dequeue(userID)
}

func (m *Manager) handleCodeUpdate(userID string, payload []byte) {
	var req CodePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(userID, "Invalid code-update payload")
		return
	}

	session := m.sessionByID(req.BattleID)
	if session == nil || !session.HasPlayer(userID) {
		logger.Warn("Code update for unknown or foreign battle",
			"userId", userID, "battleId", req.BattleID)
		return
	}

	session.UpdateCode(userID, req.Code, req.Language)
}

func (m *Manager) handleSubmit(userID string, payload []byte) {
	var req CodePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(userID, "Invalid submit-solution payload")
		return
	}

	session := m.sessionByID(req.BattleID)
	if session == nil || !session.HasPlayer(userID) {
		logger.Warn("Submission for unknown or foreign battle",
			"userId", userID, "battleId", req.BattleID)
		m.sendError(userID, "No active battle for this submission")
		return
	}

	session.Submit(userID, req.Code, req.Language)
}

func (m *Manager) handleConnect(userID string) {
	if session := m.sessionFor(userID); session != nil {
		session.PlayerReconnected(userID)
	}
}

func (m *Manager) handleDisconnect(userID string) {
	m.matchmaker.HandleDisconnect(userID)

	if session := m.sessionFor(userID); session != nil {
		session.PlayerDisconnected(userID)
	}
}

// startBattle 매치메이커 콜백. 매칭 루프 고루틴에서 동기 호출되므로
// 두 플레이어를 즉시 예약만 하고 느린 작업은 별도 고루틴으로 넘긴다.
// 예약된 플레이어의 join-queue는 세션 등록 전에도 거부된다.
func (m *Manager) startBattle(battleType string, player1, player2 *QueuedPlayer) {
	m.mu.Lock()
	m.pending[player1.UserID] = struct{}{}
	m.pending[player2.UserID] = struct{}{}
	m.mu.Unlock()

	go m.createBattle(battleType, player1, player2)
}

// releasePending 세션 등록 없이 예약을 푼다 (배틀 생성 실패 경로)
func (m *Manager) releasePending(userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.pending, id)
	}
}

// createBattle 문제 선택과 배틀 기록 후 세션을 띄운다
func (m *Manager) createBattle(battleType string, player1, player2 *QueuedPlayer) {
	// 매칭 확정과 세션 시작 사이에 연결이 사라졌으면 남은 쪽을 맨 앞으로 돌린다
	if !m.hub.IsConnected(player1.UserID) {
		logger.Info("Matched player gone before battle start, requeueing opponent",
			"gone", player1.UserID, "requeued", player2.UserID)
		m.releasePending(player1.UserID, player2.UserID)
		m.matchmaker.RequeueFront(battleType, player2)
		return
	}
	if !m.hub.IsConnected(player2.UserID) {
		logger.Info("Matched player gone before battle start, requeueing opponent",
			"gone", player2.UserID, "requeued", player1.UserID)
		m.releasePending(player1.UserID, player2.UserID)
		m.matchmaker.RequeueFront(battleType, player1)
		return
	}

	difficulty, _ := battleTypeDifficulty(battleType)
	problem, err := m.battleService.RandomProblem(string(difficulty))
	if err != nil {
		logger.Error("Failed to pick battle problem", "battleType", battleType, "error", err)
		m.releasePending(player1.UserID, player2.UserID)
		m.sendError(player1.UserID, "Failed to create battle")
		m.sendError(player2.UserID, "Failed to create battle")
		return
	}

	battleID := fmt.Sprintf("battle-%s-%d-%s", battleType, time.Now().UnixMilli(), uuid.NewString()[:8])

	battle := &models.Battle{
		BattleID:   battleID,
		BattleType: battleType,
		ProblemID:  problem.ID,
		Player1ID:  player1.UserID,
		Player2ID:  player2.UserID,
		Status:     models.BattleStatusActive,
		TimeLimit:  int(m.cfg.TimeLimit.Seconds()),
		StartedAt:  time.Now(),
	}
	if err := m.battleService.StartBattle(battle); err != nil {
		logger.Error("Failed to record battle start", "battleId", battleID, "error", err)
		m.releasePending(player1.UserID, player2.UserID)
		m.sendError(player1.UserID, "Failed to create battle")
		m.sendError(player2.UserID, "Failed to create battle")
		return
	}

	session := NewSession(
		battleID, battleType, problem,
		player1, player2,
		m.hub, m.grader, m.battleService,
		m.cfg,
		m.removeSession,
	)

	// 예약을 실제 세션 등록으로 바꾼다
	m.mu.Lock()
	m.sessions[battleID] = session
	m.byUser[player1.UserID] = battleID
	m.byUser[player2.UserID] = battleID
	delete(m.pending, player1.UserID)
	delete(m.pending, player2.UserID)
	m.mu.Unlock()

	go session.Run()

	publicProblem := problem.Public()
	timeLimit := int(m.cfg.TimeLimit.Seconds())

	m.hub.SendToUser(player1.UserID, EventMatchFound, MatchFoundPayload{
		BattleID:  battleID,
		Opponent:  OpponentInfo{UserID: player2.UserID, UserName: player2.UserName, Rating: player2.Rating},
		Problem:   publicProblem,
		TimeLimit: timeLimit,
	})
	m.hub.SendToUser(player2.UserID, EventMatchFound, MatchFoundPayload{
		BattleID:  battleID,
		Opponent:  OpponentInfo{UserID: player1.UserID, UserName: player1.UserName, Rating: player1.Rating},
		Problem:   publicProblem,
		TimeLimit: timeLimit,
	})

	logger.Info("Battle started",
		"battleId", battleID,
		"battleType", battleType,
		"player1", player1.UserID,
		"player2", player2.UserID,
		"problemId", problem.ID)
}

func (m *Manager) removeSession(battleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[battleID]
	if !exists {
		return
	}

	delete(m.sessions, battleID)
	for _, p := range session.players {
		if m.byUser[p.userID] == battleID {
			delete(m.byUser, p.userID)
		}
	}
}

// inBattle 활성 세션에 있거나 생성 중인 배틀에 예약된 플레이어인지
func (m *Manager) inBattle(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, reserved := m.pending[userID]; reserved {
		return true
	}
	_, active := m.byUser[userID]
	return active
}

func (m *Manager) sessionFor(userID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	battleID, exists := m.byUser[userID]
	if !exists {
		return nil
	}
	return m.sessions[battleID]
}

func (m *Manager) sessionByID(battleID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[battleID]
}

func (m *Manager) sendError(userID, message string) {
	m.hub.SendToUser(userID, EventBattleError, BattleErrorPayload{Message: message})
}
