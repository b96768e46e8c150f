package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/repository"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/distributed"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/leaderboard"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// resolutionLockTTL 결과 반영 작업이 끝나기에 충분한 잠금 유지 시간
const resolutionLockTTL = 10 * time.Second

type BattleService struct {
	battleRepo  *repository.BattleRepository
	userRepo    *repository.UserRepository
	problemRepo *repository.ProblemRepository
	eloService  *ELOService
	lock        *distributed.RedisLockManager
	leaderboard *leaderboard.RedisLeaderboard
}

func NewBattleService(
	battleRepo *repository.BattleRepository,
	userRepo *repository.UserRepository,
	problemRepo *repository.ProblemRepository,
	eloService *ELOService,
	lock *distributed.RedisLockManager,
	lb *leaderboard.RedisLeaderboard,
) *BattleService {
	return &BattleService{
		battleRepo:  battleRepo,
		userRepo:    userRepo,
		problemRepo: problemRepo,
		eloService:  eloService,
		lock:        lock,
		leaderboard: lb,
	}
}

// RandomProblem 난이도에 맞는 문제 선택 (배틀/연습 시작용)
func (s *BattleService) RandomProblem(difficulty string) (*models.Problem, error) {
	d := models.Difficulty(difficulty)
	switch d {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return nil, ErrInvalidDifficulty
	}

	problem, err := s.problemRepo.Random(d)
	if err != nil {
		return nil, fmt.Errorf("failed to pick problem: %w", err)
	}
	if problem == nil {
		return nil, ErrProblemNotFound
	}

	return problem, nil
}

// StartBattle 배틀 세션 시작을 기록
func (s *BattleService) StartBattle(battle *models.Battle) error {
	if err := s.battleRepo.CreateBattle(battle); err != nil {
		return fmt.Errorf("failed to record battle start: %w", err)
	}
	return nil
}

// BattlePlayerState 세션 종료 시점의 플레이어별 최종 상태
type BattlePlayerState struct {
	UserID      string
	Submission  PlayerSubmission
	Score       int
	Code        string
	Language    string
	SubmittedAt time.Time
}

// BattleFinalState 세션 액터가 넘겨주는 배틀 종료 상태
type BattleFinalState struct {
	BattleID    string
	BattleType  string
	Problem     *models.Problem
	StartedAt   time.Time
	CompletedAt time.Time
	Player1     BattlePlayerState
	Player2     BattlePlayerState

	// ForcedResult 제출 상태와 무관하게 확정된 결과 (몰수승 등)
	ForcedResult *models.BattleOutcome
}

// FinalizeBattle 배틀 결과 판정 + 레이팅 반영 + 저장.
// 분산 잠금으로 중복 해결을 줄이고, battle_id UNIQUE 제약이 최종 방어선이다.
// 같은 배틀을 두 번 넘겨받아도 레이팅은 한 번만 바뀌고 저장된 결과를 돌려준다.
func (s *BattleService) FinalizeBattle(ctx context.Context, state *BattleFinalState) (*models.BattleResult, error) {
	lock, err := s.lock.LockBattleResolution(ctx, state.BattleID, resolutionLockTTL)
	if err == nil {
		defer lock.Release(ctx)
	} else if errors.Is(err, distributed.ErrLockNotAcquired) {
		logger.Warn("Battle resolution lock held elsewhere, relying on idempotent write",
			"battleId", state.BattleID)
	} else {
		// Redis 장애로 배틀 완료를 막지 않는다
		logger.Warn("Failed to acquire resolution lock", "battleId", state.BattleID, "error", err)
	}

	player1, err := s.GetUserOrFail(state.Player1.UserID)
	if err != nil {
		return nil, err
	}
	player2, err := s.GetUserOrFail(state.Player2.UserID)
	if err != nil {
		return nil, err
	}

	outcome := ResolveOutcome(state.Player1.Submission, state.Player2.Submission)
	if state.ForcedResult != nil {
		outcome = *state.ForcedResult
	}
	score := ResultScore(outcome)

	newRating1, newRating2, change1, change2 := s.eloService.CalculateNewRatingsWithBattleCounts(
		player1.Rating, player2.Rating,
		player1.TotalBattles, player2.TotalBattles,
		score,
	)

	outcome1, outcome2 := PlayerOutcomes(outcome)

	result := &models.BattleResult{
		BattleID:    state.BattleID,
		BattleType:  state.BattleType,
		Result:      outcome,
		Player1:     buildPlayerResult(player1, &state.Player1, player1.Rating, newRating1, change1, outcome1),
		Player2:     buildPlayerResult(player2, &state.Player2, player2.Rating, newRating2, change2, outcome2),
		ProblemID:   state.Problem.ID,
		ProblemName: state.Problem.Title,
		Difficulty:  state.Problem.Difficulty,
		Duration:    int(state.CompletedAt.Sub(state.StartedAt).Seconds()),
		CompletedAt: state.CompletedAt,
	}

	inserted, err := s.battleRepo.RecordResult(result)
	if err != nil {
		return nil, fmt.Errorf("failed to record battle result: %w", err)
	}
	if !inserted {
		// 다른 경로에서 이미 반영됨. 저장된 결과를 반환한다
		stored, err := s.battleRepo.FindResultByBattleID(state.BattleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored result: %w", err)
		}
		if stored == nil {
			return nil, ErrBattleNotFound
		}
		return stored, nil
	}

	// 리더보드 캐시 갱신 (실패해도 배틀 완료는 진행)
	if err := s.leaderboard.SetRating(ctx, player1.ID, newRating1); err != nil {
		logger.Warn("Failed to update leaderboard", "userId", player1.ID, "error", err)
	}
	if err := s.leaderboard.SetRating(ctx, player2.ID, newRating2); err != nil {
		logger.Warn("Failed to update leaderboard", "userId", player2.ID, "error", err)
	}

	return result, nil
}

func buildPlayerResult(user *models.User, state *BattlePlayerState, ratingBefore, ratingAfter, change int, outcome string) models.PlayerResult {
	return models.PlayerResult{
		UserID:         user.ID,
		UserName:       user.Username,
		RatingBefore:   ratingBefore,
		RatingAfter:    ratingAfter,
		RatingChange:   change,
		Submitted:      state.Submission.Submitted,
		Passed:         state.Submission.Passed,
		TestsPassed:    state.Submission.TestsPassed,
		TotalTests:     state.Submission.TotalTests,
		Score:          state.Score,
		ElapsedSeconds: state.Submission.ElapsedSeconds,
		Code:           state.Code,
		Language:       state.Language,
		Outcome:        outcome,
		SubmittedAt:    state.SubmittedAt,
	}
}

// GetUserOrFail 사용자 조회 (없으면 에러)
func (s *BattleService) GetUserOrFail(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetResult 배틀 ID로 저장된 결과 조회
func (s *BattleService) GetResult(battleID string) (*models.BattleResult, error) {
	result, err := s.battleRepo.FindResultByBattleID(battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle result: %w", err)
	}
	if result == nil {
		return nil, ErrBattleNotFound
	}

	return result, nil
}

// LeaderboardEntry 리더보드 한 줄 (레이팅 순위 + 사용자 정보)
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Tier     string `json:"tier"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// GetLeaderboard 상위 N명 조회. Redis ZSET 캐시를 우선 사용하고,
// 캐시가 비어 있으면 DB에서 재구축한다.
func (s *BattleService) GetLeaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	size, err := s.leaderboard.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check leaderboard: %w", err)
	}
	if size == 0 {
		if err := s.rebuildLeaderboard(ctx); err != nil {
			return nil, err
		}
	}

	top, err := s.leaderboard.Top(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]*LeaderboardEntry, 0, len(top))
	for _, e := range top {
		user, err := s.userRepo.FindByID(e.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load leaderboard user: %w", err)
		}
		if user == nil {
			// 탈퇴한 사용자는 캐시에서 제거한다
			if err := s.leaderboard.Remove(ctx, e.UserID); err != nil {
				logger.Warn("Failed to evict stale leaderboard entry", "userId", e.UserID, "error", err)
			}
			continue
		}

		entries = append(entries, &LeaderboardEntry{
			Rank:     int(e.Rank),
			UserID:   user.ID,
			Username: user.Username,
			Rating:   e.Rating,
			Tier:     models.RankFromRating(e.Rating),
			Wins:     user.Wins,
			Losses:   user.Losses,
		})
	}

	return entries, nil
}

func (s *BattleService) rebuildLeaderboard(ctx context.Context) error {
	ratings, err := s.userRepo.AllRatings()
	if err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}
	if err := s.leaderboard.Rebuild(ctx, ratings); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}

	logger.Info("Leaderboard cache rebuilt", "entries", len(ratings))
	return nil
}

// GetStats 사용자 배틀 통계 조회
func (s *BattleService) GetStats(userID string) (*models.BattleStats, error) {
	user, err := s.GetUserOrFail(userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.battleRepo.StatsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle stats: %w", err)
	}

	stats.CurrentRating = user.Rating
	stats.Rank = models.RankFromRating(user.Rating)

	return stats, nil
}

// GetHistory 사용자 배틀 이력 조회 (최신순)
func (s *BattleService) GetHistory(userID string, limit, offset int) ([]*models.BattleHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	history, err := s.battleRepo.HistoryByUserID(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle history: %w", err)
	}

	return history, nil
}
