package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/repository"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/judge"
)

// PracticeService 상대 없이 혼자 문제를 푸는 연습 모드.
// 큐/세션/레이팅을 전혀 거치지 않는다.
type PracticeService struct {
	problemRepo *repository.ProblemRepository
	judge       *judge.Client
}

func NewPracticeService(problemRepo *repository.ProblemRepository, judgeClient *judge.Client) *PracticeService {
	return &PracticeService{
		problemRepo: problemRepo,
		judge:       judgeClient,
	}
}

// Start 난이도에 맞는 연습 문제 선택
func (s *PracticeService) Start(difficulty string) (*models.Problem, error) {
	var d models.Difficulty
	switch strings.ToLower(difficulty) {
	case "easy":
		d = models.DifficultyEasy
	case "medium":
		d = models.DifficultyMedium
	case "hard":
		d = models.DifficultyHard
	default:
		return nil, ErrInvalidDifficulty
	}

	problem, err := s.problemRepo.Random(d)
	if err != nil {
		return nil, fmt.Errorf("failed to pick practice problem: %w", err)
	}
	if problem == nil {
		return nil, ErrProblemNotFound
	}

	return problem.Public(), nil
}

// Submit 연습 제출 채점. 결과는 저장하지 않고 그대로 돌려준다.
func (s *PracticeService) Submit(ctx context.Context, problemID, code, language string) (*judge.GradeResult, error) {
	if problemID == "" || code == "" || language == "" {
		return nil, ErrInvalidInput
	}

	problem, err := s.problemRepo.FindByID(problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem: %w", err)
	}
	if problem == nil {
		return nil, ErrProblemNotFound
	}

	testCases := make([]judge.TestCase, len(problem.TestCases))
	for i, tc := range problem.TestCases {
		testCases[i] = judge.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	result, err := s.judge.Grade(ctx, judge.GradeRequest{
		SubmissionID: uuid.New().String(),
		ProblemID:    problem.ID,
		Code:         code,
		Language:     language,
		TestCases:    testCases,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	return result, nil
}
