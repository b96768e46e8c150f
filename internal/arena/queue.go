package arena

import (
	"sync"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// Notifier 플레이어에게 서버 이벤트를 전달하는 쪽 (보통 Hub)
type Notifier interface {
	SendToUser(userID string, msgType string, payload interface{})
}

// QueuedPlayer 매칭 대기열의 플레이어
type QueuedPlayer struct {
	UserID   string
	UserName string
	Rating   int
	JoinedAt time.Time
}

// MatchFunc 두 플레이어가 매칭되었을 때 호출된다.
// 매칭 루프 고루틴에서 동기적으로 호출되므로 블로킹 작업을 해서는 안 된다.
// 느린 작업(DB 등)은 플레이어를 예약해 둔 뒤 별도 고루틴에서 이어가야 한다.
type MatchFunc func(battleType string, player1, player2 *QueuedPlayer)

// JoinGuard 입장 허용 여부 판정. 매칭 루프 고루틴에서 호출된다.
// false를 돌려주면 해당 플레이어의 입장이 거부된다.
type JoinGuard func(userID string) bool

type queueMsg interface{ isQueueMsg() }

type joinMsg struct {
	battleType string
	player     *QueuedPlayer
}

type leaveMsg struct {
	userID string
	notify bool
}

type frontMsg struct {
	battleType string
	player     *QueuedPlayer
}

type sizeMsg struct {
	battleType string
	reply      chan int
}

func (joinMsg) isQueueMsg()  {}
func (leaveMsg) isQueueMsg() {}
func (frontMsg) isQueueMsg() {}
func (sizeMsg) isQueueMsg()  {}

// Matchmaker 배틀 타입별 FIFO 매칭 대기열.
// 단일 고루틴이 모든 대기열을 소유하므로 동시 join/leave가 꼬이지 않는다.
type Matchmaker struct {
	notifier       Notifier
	onMatch        MatchFunc
	joinGuard      JoinGuard
	inbox          chan queueMsg
	statusInterval time.Duration
	stopChan       chan struct{}
	wg             sync.WaitGroup
	running        bool
	mu             sync.Mutex
}

func NewMatchmaker(notifier Notifier, onMatch MatchFunc, statusInterval time.Duration) *Matchmaker {
	return &Matchmaker{
		notifier:       notifier,
		onMatch:        onMatch,
		inbox:          make(chan queueMsg, 256),
		statusInterval: statusInterval,
		stopChan:       make(chan struct{}),
	}
}

// SetJoinGuard 입장 판정 함수 등록. Start 전에 호출해야 한다.
func (m *Matchmaker) SetJoinGuard(guard JoinGuard) {
	m.joinGuard = guard
}

// Start 매칭 루프 시작
func (m *Matchmaker) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	logger.Info("Starting matchmaker", "statusInterval", m.statusInterval)

	m.wg.Add(1)
	go m.run()
}

// Stop 매칭 루프 중지
func (m *Matchmaker) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	logger.Info("Stopping matchmaker")
	close(m.stopChan)
	m.wg.Wait()
	logger.Info("Matchmaker stopped")
}

// Enqueue 플레이어를 대기열에 추가. 이미 다른 대기열에 있으면 옮겨진다.
func (m *Matchmaker) Enqueue(battleType string, player *QueuedPlayer) {
	m.inbox <- joinMsg{battleType: battleType, player: player}
}

// Dequeue 플레이어를 대기열에서 제거하고 queue-left를 보낸다
func (m *Matchmaker) Dequeue(userID string) {
	m.inbox <- leaveMsg{userID: userID, notify: true}
}

// HandleDisconnect 연결이 끊긴 플레이어를 조용히 제거
func (m *Matchmaker) HandleDisconnect(userID string) {
	m.inbox <- leaveMsg{userID: userID, notify: false}
}

// RequeueFront 플레이어를 대기열 맨 앞에 되돌린다.
// 매칭 직후 세션 시작 전에 상대가 사라진 경우에 쓰인다.
func (m *Matchmaker) RequeueFront(battleType string, player *QueuedPlayer) {
	m.inbox <- frontMsg{battleType: battleType, player: player}
}

// QueueSize 대기열 크기 조회
func (m *Matchmaker) QueueSize(battleType string) int {
	reply := make(chan int, 1)
	m.inbox <- sizeMsg{battleType: battleType, reply: reply}
	return <-reply
}

// run 모든 대기열 상태를 소유하는 단일 고루틴
func (m *Matchmaker) run() {
	defer m.wg.Done()

	queues := make(map[string][]*QueuedPlayer) // battleType -> FIFO
	byUser := make(map[string]string)          // userID -> battleType

	ticker := time.NewTicker(m.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case joinMsg:
				m.handleJoin(queues, byUser, msg)
			case leaveMsg:
				m.handleLeave(queues, byUser, msg)
			case frontMsg:
				m.handleFront(queues, byUser, msg)
			case sizeMsg:
				msg.reply <- len(queues[msg.battleType])
			}

		case <-ticker.C:
			m.broadcastStatus(queues)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Matchmaker) handleJoin(queues map[string][]*QueuedPlayer, byUser map[string]string, msg joinMsg) {
	// 매칭 직후 세션 등록 전의 플레이어는 대기열 밖에서도 배틀에 묶여 있다.
	// 그 사이에 들어온 join은 여기서 걸러진다.
	if m.joinGuard != nil && !m.joinGuard(msg.player.UserID) {
		logger.Warn("Join rejected, player is tied to a battle", "userId", msg.player.UserID)
		m.notifier.SendToUser(msg.player.UserID, EventBattleError, BattleErrorPayload{
			Message: "Already in an active battle",
		})
		return
	}

	if current, queued := byUser[msg.player.UserID]; queued {
		if current == msg.battleType {
			// 같은 대기열 재입장은 아무것도 바꾸지 않는다. 자리와 대기 시간 유지.
			for _, waiting := range queues[current] {
				if waiting.UserID == msg.player.UserID {
					m.notifier.SendToUser(waiting.UserID, EventMatchmakingStatus, MatchmakingStatusPayload{
						BattleType:     current,
						PlayersInQueue: len(queues[current]),
						WaitSeconds:    int(time.Since(waiting.JoinedAt).Seconds()),
					})
					break
				}
			}
			return
		}
		// 다른 타입 대기열에 있으면 옮긴다
		removeFromQueues(queues, byUser, msg.player.UserID)
	}

	queues[msg.battleType] = append(queues[msg.battleType], msg.player)
	byUser[msg.player.UserID] = msg.battleType

	m.notifier.SendToUser(msg.player.UserID, EventQueueJoined, QueueJoinedPayload{
		BattleType:     msg.battleType,
		PlayersInQueue: len(queues[msg.battleType]),
	})

	logger.Info("Player joined queue",
		"userId", msg.player.UserID,
		"battleType", msg.battleType,
		"queueSize", len(queues[msg.battleType]))

	m.tryMatch(queues, byUser, msg.battleType)
}

func (m *Matchmaker) handleLeave(queues map[string][]*QueuedPlayer, byUser map[string]string, msg leaveMsg) {
	if !removeFromQueues(queues, byUser, msg.userID) {
		return
	}

	if msg.notify {
		m.notifier.SendToUser(msg.userID, EventQueueLeft, nil)
	}

	logger.Info("Player left queue", "userId", msg.userID)
}

func (m *Matchmaker) handleFront(queues map[string][]*QueuedPlayer, byUser map[string]string, msg frontMsg) {
	removeFromQueues(queues, byUser, msg.player.UserID)

	queues[msg.battleType] = append([]*QueuedPlayer{msg.player}, queues[msg.battleType]...)
	byUser[msg.player.UserID] = msg.battleType

	logger.Info("Player requeued at front",
		"userId", msg.player.UserID,
		"battleType", msg.battleType)

	m.tryMatch(queues, byUser, msg.battleType)
}

// tryMatch 대기열 앞에서부터 두 명씩 짝짓는다 (FIFO)
func (m *Matchmaker) tryMatch(queues map[string][]*QueuedPlayer, byUser map[string]string, battleType string) {
	for len(queues[battleType]) >= 2 {
		queue := queues[battleType]
		player1, player2 := queue[0], queue[1]
		queues[battleType] = queue[2:]
		delete(byUser, player1.UserID)
		delete(byUser, player2.UserID)

		logger.Info("Match found",
			"battleType", battleType,
			"player1", player1.UserID,
			"player2", player2.UserID)

		// 동기 호출. 콜백이 플레이어를 예약하기 전에는
		// 같은 플레이어의 join이 처리될 수 없다.
		m.onMatch(battleType, player1, player2)
	}
}

// broadcastStatus 대기 중인 플레이어에게 주기적으로 현황 전달
func (m *Matchmaker) broadcastStatus(queues map[string][]*QueuedPlayer) {
	now := time.Now()
	for battleType, queue := range queues {
		for _, player := range queue {
			m.notifier.SendToUser(player.UserID, EventMatchmakingStatus, MatchmakingStatusPayload{
				BattleType:     battleType,
				PlayersInQueue: len(queue),
				WaitSeconds:    int(now.Sub(player.JoinedAt).Seconds()),
			})
		}
	}
}

func removeFromQueues(queues map[string][]*QueuedPlayer, byUser map[string]string, userID string) bool {
	battleType, queued := byUser[userID]
	if !queued {
		return false
	}

	queue := queues[battleType]
	for i, player := range queue {
		if player.UserID == userID {
			queues[battleType] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	delete(byUser, userID)
	return true
}
