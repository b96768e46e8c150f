package service

import (
	"testing"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
)

func TestResolveOutcome(t *testing.T) {
	passed := func(elapsed int) PlayerSubmission {
		return PlayerSubmission{Submitted: true, Passed: true, TestsPassed: 3, TotalTests: 3, ElapsedSeconds: elapsed}
	}
	failed := func(elapsed int) PlayerSubmission {
		return PlayerSubmission{Submitted: true, Passed: false, TestsPassed: 1, TotalTests: 3, ElapsedSeconds: elapsed}
	}
	noSubmission := PlayerSubmission{}

	tests := []struct {
		name     string
		p1       PlayerSubmission
		p2       PlayerSubmission
		expected models.BattleOutcome
	}{
		{
			name:     "only player1 passes",
			p1:       passed(300),
			p2:       failed(100),
			expected: models.OutcomePlayer1Win,
		},
		{
			name:     "only player2 passes",
			p1:       failed(100),
			p2:       passed(900),
			expected: models.OutcomePlayer2Win,
		},
		{
			name:     "both pass - faster player1 wins",
			p1:       passed(120),
			p2:       passed(480),
			expected: models.OutcomePlayer1Win,
		},
		{
			name:     "both pass - faster player2 wins",
			p1:       passed(600),
			p2:       passed(90),
			expected: models.OutcomePlayer2Win,
		},
		{
			name:     "both pass at identical time is a draw",
			p1:       passed(300),
			p2:       passed(300),
			expected: models.OutcomeDraw,
		},
		{
			name:     "both submit but fail is a draw",
			p1:       failed(100),
			p2:       failed(800),
			expected: models.OutcomeDraw,
		},
		{
			name:     "only player1 submitted at timeout wins even when failing",
			p1:       failed(1700),
			p2:       noSubmission,
			expected: models.OutcomePlayer1Win,
		},
		{
			name:     "only player2 submitted at timeout wins even when failing",
			p1:       noSubmission,
			p2:       failed(50),
			expected: models.OutcomePlayer2Win,
		},
		{
			name:     "neither submits is a draw",
			p1:       noSubmission,
			p2:       noSubmission,
			expected: models.OutcomeDraw,
		},
		{
			name:     "pass beats lone failing submission regardless of time",
			p1:       passed(1790),
			p2:       failed(10),
			expected: models.OutcomePlayer1Win,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := ResolveOutcome(tt.p1, tt.p2)
			if actual != tt.expected {
				t.Errorf("ResolveOutcome() = %v, want %v", actual, tt.expected)
			}

			// 입력을 뒤집으면 결과도 뒤집혀야 한다
			mirrored := ResolveOutcome(tt.p2, tt.p1)
			expectedMirrored := tt.expected
			switch tt.expected {
			case models.OutcomePlayer1Win:
				expectedMirrored = models.OutcomePlayer2Win
			case models.OutcomePlayer2Win:
				expectedMirrored = models.OutcomePlayer1Win
			}
			if mirrored != expectedMirrored {
				t.Errorf("mirrored ResolveOutcome() = %v, want %v", mirrored, expectedMirrored)
			}
		})
	}
}

func TestPlayerOutcomes(t *testing.T) {
	tests := []struct {
		result    models.BattleOutcome
		expected1 string
		expected2 string
	}{
		{models.OutcomePlayer1Win, "win", "loss"},
		{models.OutcomePlayer2Win, "loss", "win"},
		{models.OutcomeDraw, "draw", "draw"},
	}

	for _, tt := range tests {
		p1, p2 := PlayerOutcomes(tt.result)
		if p1 != tt.expected1 || p2 != tt.expected2 {
			t.Errorf("PlayerOutcomes(%v) = (%s, %s), want (%s, %s)",
				tt.result, p1, p2, tt.expected1, tt.expected2)
		}
	}
}

func TestResultScore(t *testing.T) {
	if ResultScore(models.OutcomePlayer1Win) != 1.0 {
		t.Error("player1 win should score 1.0")
	}
	if ResultScore(models.OutcomePlayer2Win) != 0.0 {
		t.Error("player2 win should score 0.0")
	}
	if ResultScore(models.OutcomeDraw) != 0.5 {
		t.Error("draw should score 0.5")
	}
}
