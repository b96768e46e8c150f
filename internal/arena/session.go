package arena

import (
	"context"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/service"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/judge"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// Grader 제출 코드를 채점하는 쪽 (보통 judge.Client)
type Grader interface {
	Grade(ctx context.Context, req judge.GradeRequest) (*judge.GradeResult, error)
}

// Finalizer 배틀 결과 판정과 저장을 맡는 쪽 (보통 service.BattleService)
type Finalizer interface {
	FinalizeBattle(ctx context.Context, state *service.BattleFinalState) (*models.BattleResult, error)
}

// SessionConfig 세션 동작 파라미터
type SessionConfig struct {
	TimeLimit       time.Duration
	DisconnectGrace time.Duration
}

type sessionMsg interface{ isSessionMsg() }

type codeMsg struct {
	userID   string
	code     string
	language string
}

type submitMsg struct {
	userID   string
	code     string
	language string
}

type gradedMsg struct {
	userID string
	result *judge.GradeResult
}

type disconnectMsg struct{ userID string }
type reconnectMsg struct{ userID string }

type graceExpiredMsg struct {
	userID string
	gen    int
}

type timeExpiredMsg struct{}

func (codeMsg) isSessionMsg()         {}
func (submitMsg) isSessionMsg()       {}
func (gradedMsg) isSessionMsg()       {}
func (disconnectMsg) isSessionMsg()   {}
func (reconnectMsg) isSessionMsg()    {}
func (graceExpiredMsg) isSessionMsg() {}
func (timeExpiredMsg) isSessionMsg()  {}

type sessionPlayer struct {
	userID   string
	userName string
	rating   int

	code     string
	language string

	submitted   bool
	submittedAt time.Time
	elapsed     int // seconds from battle start to submit

	graded bool
	grade  *judge.GradeResult

	disconnected bool
	graceGen     int // 재접속 시 증가해 이전 유예 타이머를 무효화한다
}

// Session 진행 중인 배틀 하나를 소유하는 액터.
// 제출, 타이머 만료, 연결 해제가 모두 같은 inbox로 들어오므로
// 어떤 순서 경쟁도 단일 고루틴 안에서 결정된다.
type Session struct {
	battleID   string
	battleType string
	problem    *models.Problem
	startedAt  time.Time

	players [2]*sessionPlayer

	inbox chan sessionMsg
	done  chan struct{}

	notifier  Notifier
	grader    Grader
	finalizer Finalizer
	cfg       SessionConfig
	onDone    func(battleID string)

	expired  bool
	resolved bool
}

// NewSession 배틀 세션 생성. Run을 호출해야 동작한다.
func NewSession(
	battleID, battleType string,
	problem *models.Problem,
	player1, player2 *QueuedPlayer,
	notifier Notifier,
	grader Grader,
	finalizer Finalizer,
	cfg SessionConfig,
	onDone func(battleID string),
) *Session {
	return &Session{
		battleID:   battleID,
		battleType: battleType,
		problem:    problem,
		startedAt:  time.Now(),
		players: [2]*sessionPlayer{
			{userID: player1.UserID, userName: player1.UserName, rating: player1.Rating},
			{userID: player2.UserID, userName: player2.UserName, rating: player2.Rating},
		},
		inbox:     make(chan sessionMsg, 64),
		done:      make(chan struct{}),
		notifier:  notifier,
		grader:    grader,
		finalizer: finalizer,
		cfg:       cfg,
		onDone:    onDone,
	}
}

// Run 세션 루프 실행. 세션이 해결되면 반환한다.
func (s *Session) Run() {
	timer := time.NewTimer(s.cfg.TimeLimit)
	defer timer.Stop()

	for {
		select {
		case msg := <-s.inbox:
			s.handle(msg)
		case <-timer.C:
			s.handle(timeExpiredMsg{})
		}

		if s.resolved {
			return
		}
	}
}

// post 세션이 끝난 뒤 도착하는 메시지를 버리면서 inbox에 전달
func (s *Session) post(msg sessionMsg) {
	select {
	case s.inbox <- msg:
	case <-s.done:
	}
}

// UpdateCode 코드 변경 릴레이 요청
func (s *Session) UpdateCode(userID, code, language string) {
	s.post(codeMsg{userID: userID, code: code, language: language})
}

// Submit 솔루션 제출
func (s *Session) Submit(userID, code, language string) {
	s.post(submitMsg{userID: userID, code: code, language: language})
}

// PlayerDisconnected 연결 해제 통지
func (s *Session) PlayerDisconnected(userID string) {
	s.post(disconnectMsg{userID: userID})
}

// PlayerReconnected 재접속 통지
func (s *Session) PlayerReconnected(userID string) {
	s.post(reconnectMsg{userID: userID})
}

// HasPlayer 해당 사용자가 이 세션의 참가자인지
func (s *Session) HasPlayer(userID string) bool {
	return s.lookup(userID) != nil
}

func (s *Session) lookup(userID string) *sessionPlayer {
	for _, p := range s.players {
		if p.userID == userID {
			return p
		}
	}
	return nil
}

func (s *Session) opponent(userID string) *sessionPlayer {
	for _, p := range s.players {
		if p.userID != userID {
			return p
		}
	}
	return nil
}

func (s *Session) handle(msg sessionMsg) {
	switch msg := msg.(type) {
	case codeMsg:
		s.handleCode(msg)
	case submitMsg:
		s.handleSubmit(msg)
	case gradedMsg:
		s.handleGraded(msg)
	case disconnectMsg:
		s.handleDisconnect(msg)
	case reconnectMsg:
		s.handleReconnect(msg)
	case graceExpiredMsg:
		s.handleGraceExpired(msg)
	case timeExpiredMsg:
		s.expired = true
		s.checkResolve()
	}
}

func (s *Session) handleCode(msg codeMsg) {
	player := s.lookup(msg.userID)
	if player == nil {
		logger.Warn("Code update from non-participant", "battleId", s.battleID, "userId", msg.userID)
		return
	}
	if player.submitted {
		// 제출 이후 코드는 확정이므로 늦게 도착한 변경은 버린다
		return
	}

	player.code = msg.code
	player.language = msg.language

	s.notifier.SendToUser(s.opponent(msg.userID).userID, EventCodeUpdated, CodeUpdatedPayload{
		Code:     msg.code,
		Language: msg.language,
		From:     player.userName,
	})
}

func (s *Session) handleSubmit(msg submitMsg) {
	player := s.lookup(msg.userID)
	if player == nil {
		logger.Warn("Submission from non-participant", "battleId", s.battleID, "userId", msg.userID)
		return
	}
	if player.submitted {
		logger.Warn("Duplicate submission ignored", "battleId", s.battleID, "userId", msg.userID)
		return
	}
	if s.expired {
		logger.Warn("Submission after time limit ignored", "battleId", s.battleID, "userId", msg.userID)
		return
	}

	now := time.Now()
	player.submitted = true
	player.submittedAt = now
	player.elapsed = int(now.Sub(s.startedAt).Seconds())
	player.code = msg.code
	player.language = msg.language

	logger.Info("Solution submitted",
		"battleId", s.battleID,
		"userId", msg.userID,
		"elapsed", player.elapsed)

	// 채점은 세션 루프 밖에서 실행하고 결과는 같은 inbox로 돌아온다
	go s.gradeSubmission(player.userID, msg.code, msg.language)
}

// gradeSubmission 채점 호출. 채점기 장애는 실패 제출로 처리해서
// 세션이 채점기 때문에 멈추는 일이 없게 한다.
func (s *Session) gradeSubmission(userID, code, language string) {
	testCases := make([]judge.TestCase, len(s.problem.TestCases))
	for i, tc := range s.problem.TestCases {
		testCases[i] = judge.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput}
	}

	result, err := s.grader.Grade(context.Background(), judge.GradeRequest{
		SubmissionID: s.battleID + ":" + userID,
		ProblemID:    s.problem.ID,
		Code:         code,
		Language:     language,
		TestCases:    testCases,
	})
	if err != nil {
		logger.Error("Grading failed, treating as failed submission",
			"battleId", s.battleID, "userId", userID, "error", err)
		result = &judge.GradeResult{
			Passed:     false,
			TotalTests: len(testCases),
			ErrorMsg:   "grading unavailable",
		}
	}

	s.post(gradedMsg{userID: userID, result: result})
}

func (s *Session) handleGraded(msg gradedMsg) {
	player := s.lookup(msg.userID)
	if player == nil || player.graded {
		return
	}

	player.graded = true
	player.grade = msg.result

	s.notifier.SendToUser(player.userID, EventSubmissionReceived, SubmissionReceivedPayload{
		Message: "Solution submitted successfully",
		Result:  msg.result,
	})

	s.notifier.SendToUser(s.opponent(player.userID).userID, EventOpponentSubmitted, OpponentSubmittedPayload{
		UserName: player.userName,
		Score:    msg.result.Score,
	})

	s.checkResolve()
}

func (s *Session) handleDisconnect(msg disconnectMsg) {
	player := s.lookup(msg.userID)
	if player == nil || player.disconnected {
		return
	}

	player.disconnected = true
	player.graceGen++
	gen := player.graceGen

	logger.Info("Player disconnected from battle",
		"battleId", s.battleID,
		"userId", msg.userID,
		"grace", s.cfg.DisconnectGrace)

	s.notifier.SendToUser(s.opponent(msg.userID).userID, EventOpponentDisconnected, OpponentDisconnectedPayload{
		UserName:     player.userName,
		GraceSeconds: int(s.cfg.DisconnectGrace.Seconds()),
	})

	time.AfterFunc(s.cfg.DisconnectGrace, func() {
		s.post(graceExpiredMsg{userID: msg.userID, gen: gen})
	})
}

func (s *Session) handleReconnect(msg reconnectMsg) {
	player := s.lookup(msg.userID)
	if player == nil || !player.disconnected {
		return
	}

	player.disconnected = false
	player.graceGen++ // 진행 중인 유예 타이머 무효화

	logger.Info("Player reconnected to battle", "battleId", s.battleID, "userId", msg.userID)

	opponent := s.opponent(msg.userID)
	s.notifier.SendToUser(opponent.userID, EventOpponentReconnected, OpponentReconnectedPayload{
		UserName: player.userName,
	})

	// 클라이언트가 배틀 화면을 복원할 수 있도록 세션 상태 재전송
	remaining := int(s.cfg.TimeLimit.Seconds()) - int(time.Since(s.startedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	s.notifier.SendToUser(msg.userID, EventMatchFound, MatchFoundPayload{
		BattleID: s.battleID,
		Opponent: OpponentInfo{
			UserID:   opponent.userID,
			UserName: opponent.userName,
			Rating:   opponent.rating,
		},
		Problem:   s.problem.Public(),
		TimeLimit: remaining,
	})
}

func (s *Session) handleGraceExpired(msg graceExpiredMsg) {
	player := s.lookup(msg.userID)
	if player == nil || !player.disconnected || msg.gen != player.graceGen {
		return
	}

	logger.Info("Disconnect grace expired",
		"battleId", s.battleID,
		"userId", msg.userID,
		"submitted", player.submitted)

	if player.submitted {
		// 이미 제출한 플레이어는 떠나도 제출이 유효하다
		return
	}

	// 미제출 상태로 유예 시간을 초과했으므로 상대의 몰수승
	forced := models.OutcomePlayer1Win
	if s.players[0].userID == msg.userID {
		forced = models.OutcomePlayer2Win
	}
	s.resolve(&forced)
}

// checkResolve 해결 조건 충족 시 배틀 종료.
// 제출된 모든 채점이 끝나기 전에는 해결하지 않는다.
// 채점기 타임아웃이 유한하므로 영원히 기다리는 일은 없다.
func (s *Session) checkResolve() {
	pending := false
	allSubmitted := true
	for _, p := range s.players {
		if p.submitted && !p.graded {
			pending = true
		}
		if !p.submitted {
			allSubmitted = false
		}
	}

	if pending {
		return
	}
	if allSubmitted || s.expired {
		s.resolve(nil)
	}
}

// resolve 배틀 판정 + 저장 + 결과 통지. 한 번만 실행된다.
func (s *Session) resolve(forced *models.BattleOutcome) {
	if s.resolved {
		return
	}
	s.resolved = true

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic during battle resolution", "battleId", s.battleID, "panic", r)
			s.fallbackDraw()
		}
		close(s.done)
		if s.onDone != nil {
			s.onDone(s.battleID)
		}
	}()

	state := s.finalState(forced)

	result, err := s.finalizer.FinalizeBattle(context.Background(), state)
	if err != nil {
		logger.Error("Failed to finalize battle", "battleId", s.battleID, "error", err)
		s.notifyError("Failed to finalize battle")
		return
	}

	logger.Info("Battle completed",
		"battleId", s.battleID,
		"result", result.Result,
		"duration", result.Duration)

	s.notifier.SendToUser(result.Player1.UserID, EventBattleResult, BattleResultPayload{
		BattleID:       result.BattleID,
		Result:         result.Result,
		PlayerResult:   result.Player1,
		OpponentResult: result.Player2,
		Duration:       result.Duration,
	})
	s.notifier.SendToUser(result.Player2.UserID, EventBattleResult, BattleResultPayload{
		BattleID:       result.BattleID,
		Result:         result.Result,
		PlayerResult:   result.Player2,
		OpponentResult: result.Player1,
		Duration:       result.Duration,
	})
}

func (s *Session) finalState(forced *models.BattleOutcome) *service.BattleFinalState {
	return &service.BattleFinalState{
		BattleID:     s.battleID,
		BattleType:   s.battleType,
		Problem:      s.problem,
		StartedAt:    s.startedAt,
		CompletedAt:  time.Now(),
		Player1:      playerState(s.players[0]),
		Player2:      playerState(s.players[1]),
		ForcedResult: forced,
	}
}

func playerState(p *sessionPlayer) service.BattlePlayerState {
	state := service.BattlePlayerState{
		UserID:      p.userID,
		Code:        p.code,
		Language:    p.language,
		SubmittedAt: p.submittedAt,
		Submission: service.PlayerSubmission{
			Submitted:      p.submitted,
			ElapsedSeconds: p.elapsed,
		},
	}
	if p.grade != nil {
		state.Submission.Passed = p.grade.Passed
		state.Submission.TestsPassed = p.grade.TestsPassed
		state.Submission.TotalTests = p.grade.TotalTests
		state.Score = p.grade.Score
	}
	return state
}

// fallbackDraw 해결 도중 패닉이 난 경우의 마지막 수단.
// 제출 상태를 비운 무승부로 한 번 더 저장을 시도한다.
// 먼저 저장된 결과가 있으면 멱등 쓰기 덕분에 그쪽이 유지된다.
func (s *Session) fallbackDraw() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Fallback resolution also panicked", "battleId", s.battleID, "panic", r)
		}
	}()

	draw := models.OutcomeDraw
	state := &service.BattleFinalState{
		BattleID:     s.battleID,
		BattleType:   s.battleType,
		Problem:      s.problem,
		StartedAt:    s.startedAt,
		CompletedAt:  time.Now(),
		Player1:      service.BattlePlayerState{UserID: s.players[0].userID},
		Player2:      service.BattlePlayerState{UserID: s.players[1].userID},
		ForcedResult: &draw,
	}

	if _, err := s.finalizer.FinalizeBattle(context.Background(), state); err != nil {
		logger.Error("Fallback resolution failed", "battleId", s.battleID, "error", err)
	}
	s.notifyError("Battle ended abnormally")
}

func (s *Session) notifyError(message string) {
	for _, p := range s.players {
		s.notifier.SendToUser(p.userID, EventBattleError, BattleErrorPayload{Message: message})
	}
}
