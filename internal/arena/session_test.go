package arena

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/service"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/judge"
)

// fakeGrader 코드 문자열로 채점 결과를 정하는 채점기 대역
type fakeGrader struct {
	results map[string]*judge.GradeResult
	err     error
	delay   time.Duration // 채점 지연 시뮬레이션
	calls   int32
}

func (g *fakeGrader) Grade(_ context.Context, req judge.GradeRequest) (*judge.GradeResult, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return nil, g.err
	}
	if result, ok := g.results[req.Code]; ok {
		return result, nil
	}
	return &judge.GradeResult{Passed: false, TotalTests: len(req.TestCases)}, nil
}

// fakeFinalizer 판정 로직만 실행하고 넘겨받은 상태를 기록하는 대역
type fakeFinalizer struct {
	states    chan *service.BattleFinalState
	panicLeft int32 // 처음 N번 호출에서 패닉
}

func newFakeFinalizer() *fakeFinalizer {
	return &fakeFinalizer{states: make(chan *service.BattleFinalState, 4)}
}

func (f *fakeFinalizer) FinalizeBattle(_ context.Context, state *service.BattleFinalState) (*models.BattleResult, error) {
	if atomic.AddInt32(&f.panicLeft, -1) >= 0 {
		panic("finalize blew up")
	}

	outcome := service.ResolveOutcome(state.Player1.Submission, state.Player2.Submission)
	if state.ForcedResult != nil {
		outcome = *state.ForcedResult
	}
	outcome1, outcome2 := service.PlayerOutcomes(outcome)

	f.states <- state

	return &models.BattleResult{
		BattleID: state.BattleID,
		Result:   outcome,
		Player1:  models.PlayerResult{UserID: state.Player1.UserID, Outcome: outcome1},
		Player2:  models.PlayerResult{UserID: state.Player2.UserID, Outcome: outcome2},
		Duration: int(state.CompletedAt.Sub(state.StartedAt).Seconds()),
	}, nil
}

func (f *fakeFinalizer) waitState(t *testing.T) *service.BattleFinalState {
	t.Helper()

	select {
	case state := <-f.states:
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for battle finalization")
		return nil
	}
}

func testProblem() *models.Problem {
	return &models.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		Difficulty: models.DifficultyEasy,
		TestCases: []models.TestCase{
			{Input: json.RawMessage(`[1,2]`), ExpectedOutput: json.RawMessage(`3`)},
			{Input: json.RawMessage(`[5,7]`), ExpectedOutput: json.RawMessage(`12`)},
		},
	}
}

func newTestSession(grader Grader, finalizer Finalizer, cfg SessionConfig) (*Session, *fakeNotifier, chan string) {
	notifier := newFakeNotifier()
	done := make(chan string, 1)

	session := NewSession(
		"battle-test-1", "easy", testProblem(),
		queuedPlayer("u1"), queuedPlayer("u2"),
		notifier, grader, finalizer, cfg,
		func(battleID string) { done <- battleID },
	)
	go session.Run()

	return session, notifier, done
}

func waitDone(t *testing.T, done chan string) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session completion")
	}
}

func TestSession_BothSubmitPassBeatsFail(t *testing.T) {
	grader := &fakeGrader{results: map[string]*judge.GradeResult{
		"good": {Passed: true, TestsPassed: 2, TotalTests: 2, Score: 100},
		"bad":  {Passed: false, TestsPassed: 1, TotalTests: 2, Score: 50},
	}}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: time.Second,
	})

	session.Submit("u1", "good", "python")
	waitEvent(t, notifier, "u1", EventSubmissionReceived)
	waitEvent(t, notifier, "u2", EventOpponentSubmitted)

	session.Submit("u2", "bad", "javascript")

	state := finalizer.waitState(t)
	if !state.Player1.Submission.Passed || state.Player2.Submission.Passed {
		t.Errorf("expected only player1 to pass, got p1=%v p2=%v",
			state.Player1.Submission.Passed, state.Player2.Submission.Passed)
	}

	ev := waitEvent(t, notifier, "u1", EventBattleResult)
	payload := ev.Payload.(BattleResultPayload)
	if payload.Result != models.OutcomePlayer1Win {
		t.Errorf("result = %v, want %v", payload.Result, models.OutcomePlayer1Win)
	}
	waitEvent(t, notifier, "u2", EventBattleResult)
	waitDone(t, done)
}

func TestSession_TimerExpiryWithoutSubmissionsIsDraw(t *testing.T) {
	grader := &fakeGrader{}
	finalizer := newFakeFinalizer()
	_, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       100 * time.Millisecond,
		DisconnectGrace: time.Second,
	})

	state := finalizer.waitState(t)
	if state.Player1.Submission.Submitted || state.Player2.Submission.Submitted {
		t.Error("no player should have a submission")
	}
	if state.ForcedResult != nil {
		t.Error("timer expiry should not force a result")
	}

	ev := waitEvent(t, notifier, "u1", EventBattleResult)
	if ev.Payload.(BattleResultPayload).Result != models.OutcomeDraw {
		t.Errorf("result = %v, want draw", ev.Payload.(BattleResultPayload).Result)
	}
	waitDone(t, done)
}

func TestSession_LoneSubmitterWinsAtTimeout(t *testing.T) {
	// 제출이 테스트를 통과하지 못해도 유일한 제출자는 시간 만료 시 승리한다
	grader := &fakeGrader{results: map[string]*judge.GradeResult{
		"bad": {Passed: false, TestsPassed: 0, TotalTests: 2, Score: 0},
	}}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       300 * time.Millisecond,
		DisconnectGrace: time.Second,
	})

	session.Submit("u1", "bad", "python")
	waitEvent(t, notifier, "u1", EventSubmissionReceived)

	ev := waitEvent(t, notifier, "u1", EventBattleResult)
	if ev.Payload.(BattleResultPayload).Result != models.OutcomePlayer1Win {
		t.Errorf("result = %v, want %v", ev.Payload.(BattleResultPayload).Result, models.OutcomePlayer1Win)
	}
	waitDone(t, done)
}

func TestSession_SubmitAfterExpiryIgnored(t *testing.T) {
	// 시간 만료 후 도착한 제출은 무시된다. 만료 시점에 채점이 진행 중이면
	// 세션은 그 채점이 끝나기를 기다렸다가 만료 전 제출만으로 판정한다.
	grader := &fakeGrader{
		delay: 300 * time.Millisecond,
		results: map[string]*judge.GradeResult{
			"in-time":  {Passed: false, TestsPassed: 0, TotalTests: 2, Score: 0},
			"too-late": {Passed: true, TestsPassed: 2, TotalTests: 2, Score: 100},
		},
	}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       150 * time.Millisecond,
		DisconnectGrace: time.Second,
	})

	session.Submit("u1", "in-time", "python")

	// 타이머가 먼저 만료되도록 기다린 뒤에 제출한다
	time.Sleep(220 * time.Millisecond)
	session.Submit("u2", "too-late", "python")

	state := finalizer.waitState(t)
	if state.Player2.Submission.Submitted {
		t.Error("submission after expiry should not be recorded")
	}
	if !state.Player1.Submission.Submitted {
		t.Error("in-time submission should be recorded")
	}

	// 늦은 제출이 끼어들었다면 u2의 통과 제출이 승리를 가져갔을 것이다
	ev := waitEvent(t, notifier, "u1", EventBattleResult)
	if ev.Payload.(BattleResultPayload).Result != models.OutcomePlayer1Win {
		t.Errorf("result = %v, want %v", ev.Payload.(BattleResultPayload).Result, models.OutcomePlayer1Win)
	}

	if calls := atomic.LoadInt32(&grader.calls); calls != 1 {
		t.Errorf("grader calls = %d, want 1 (late submission must not be graded)", calls)
	}
	waitDone(t, done)
}

func TestSession_DisconnectGraceForfeits(t *testing.T) {
	grader := &fakeGrader{}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: 100 * time.Millisecond,
	})

	session.PlayerDisconnected("u2")

	ev := waitEvent(t, notifier, "u1", EventOpponentDisconnected)
	if ev.Payload.(OpponentDisconnectedPayload).UserName != "name-u2" {
		t.Errorf("unexpected disconnect payload: %+v", ev.Payload)
	}

	state := finalizer.waitState(t)
	if state.ForcedResult == nil || *state.ForcedResult != models.OutcomePlayer1Win {
		t.Errorf("expected forced player1 win, got %v", state.ForcedResult)
	}
	waitDone(t, done)
}

func TestSession_ReconnectCancelsGrace(t *testing.T) {
	grader := &fakeGrader{results: map[string]*judge.GradeResult{
		"ok": {Passed: true, TestsPassed: 2, TotalTests: 2, Score: 100},
	}}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: 500 * time.Millisecond,
	})

	session.PlayerDisconnected("u2")
	waitEvent(t, notifier, "u1", EventOpponentDisconnected)

	session.PlayerReconnected("u2")
	waitEvent(t, notifier, "u1", EventOpponentReconnected)

	// 재접속한 쪽은 배틀 상태를 다시 받는다
	ev := waitEvent(t, notifier, "u2", EventMatchFound)
	if ev.Payload.(MatchFoundPayload).BattleID != "battle-test-1" {
		t.Errorf("unexpected match-found payload: %+v", ev.Payload)
	}

	// 유예 타이머가 취소되어 몰수패가 일어나지 않는다
	expectNoEvent(t, notifier, "u1", EventBattleResult, 800*time.Millisecond)

	session.Submit("u1", "ok", "python")
	session.Submit("u2", "ok", "python")
	finalizer.waitState(t)
	waitDone(t, done)
}

func TestSession_DuplicateSubmissionIgnored(t *testing.T) {
	grader := &fakeGrader{results: map[string]*judge.GradeResult{
		"first": {Passed: true, TestsPassed: 2, TotalTests: 2, Score: 100},
	}}
	finalizer := newFakeFinalizer()
	session, _, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: time.Second,
	})

	session.Submit("u1", "first", "python")
	session.Submit("u1", "second", "python") // 무시되어야 함
	session.Submit("u2", "other", "python")

	state := finalizer.waitState(t)
	if state.Player1.Code != "first" {
		t.Errorf("player1 code = %q, want first submission to stand", state.Player1.Code)
	}
	if calls := atomic.LoadInt32(&grader.calls); calls != 2 {
		t.Errorf("grader calls = %d, want 2", calls)
	}
	waitDone(t, done)
}

func TestSession_GradingFailureResolvesAsFailedSubmission(t *testing.T) {
	grader := &fakeGrader{err: errors.New("judge unreachable")}
	finalizer := newFakeFinalizer()
	session, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: time.Second,
	})

	session.Submit("u1", "whatever", "python")
	session.Submit("u2", "whatever", "python")

	state := finalizer.waitState(t)
	if state.Player1.Submission.Passed || state.Player2.Submission.Passed {
		t.Error("failed grading should not count as passed")
	}
	if !state.Player1.Submission.Submitted || !state.Player2.Submission.Submitted {
		t.Error("submissions should still be recorded")
	}

	ev := waitEvent(t, notifier, "u1", EventBattleResult)
	if ev.Payload.(BattleResultPayload).Result != models.OutcomeDraw {
		t.Errorf("result = %v, want draw", ev.Payload.(BattleResultPayload).Result)
	}
	waitDone(t, done)
}

func TestSession_CodeRelayReachesOpponentOnly(t *testing.T) {
	grader := &fakeGrader{}
	finalizer := newFakeFinalizer()
	session, notifier, _ := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       5 * time.Second,
		DisconnectGrace: time.Second,
	})

	session.UpdateCode("u1", "print(1)", "python")

	ev := waitEvent(t, notifier, "u2", EventCodeUpdated)
	payload := ev.Payload.(CodeUpdatedPayload)
	if payload.Code != "print(1)" || payload.Language != "python" {
		t.Errorf("unexpected code-updated payload: %+v", payload)
	}

	expectNoEvent(t, notifier, "u1", EventCodeUpdated, 100*time.Millisecond)
}

func TestSession_PanicDuringResolutionFallsBackToDraw(t *testing.T) {
	grader := &fakeGrader{}
	finalizer := newFakeFinalizer()
	finalizer.panicLeft = 1

	_, notifier, done := newTestSession(grader, finalizer, SessionConfig{
		TimeLimit:       100 * time.Millisecond,
		DisconnectGrace: time.Second,
	})

	// 첫 번째 해결 시도는 패닉. 무승부로 한 번 더 저장을 시도한다
	state := finalizer.waitState(t)
	if state.ForcedResult == nil || *state.ForcedResult != models.OutcomeDraw {
		t.Errorf("fallback should force a draw, got %v", state.ForcedResult)
	}

	waitEvent(t, notifier, "u1", EventBattleError)
	waitEvent(t, notifier, "u2", EventBattleError)
	waitDone(t, done)
}
