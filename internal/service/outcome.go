package service

import "github.com/HariomSharma2644/inturnX-sub000/internal/models"

// PlayerSubmission 승패 판정에 필요한 플레이어별 최종 제출 상태
type PlayerSubmission struct {
	Submitted      bool
	Passed         bool
	TestsPassed    int
	TotalTests     int
	ElapsedSeconds int
}

// ResolveOutcome 두 플레이어의 제출 상태로 배틀 결과를 판정한다.
// 판정 순서:
//  1. 한쪽만 전체 테스트 통과 → 통과한 쪽 승리
//  2. 양쪽 모두 통과 → 제출까지 걸린 시간이 짧은 쪽 승리, 같으면 무승부
//  3. 양쪽 모두 제출했지만 실패 → 무승부
//  4. 제한 시간까지 한쪽만 제출 → 제출한 쪽 승리 (통과 여부 무관)
//  5. 양쪽 모두 미제출 → 무승부
//
// 입력이 같으면 결과도 항상 같아 재해결 경쟁에서도 판정이 갈리지 않는다.
func ResolveOutcome(p1, p2 PlayerSubmission) models.BattleOutcome {
	// 한쪽만 통과
	if p1.Passed && !p2.Passed {
		return models.OutcomePlayer1Win
	}
	if p2.Passed && !p1.Passed {
		return models.OutcomePlayer2Win
	}

	// 양쪽 모두 통과 → 시간 싸움
	if p1.Passed && p2.Passed {
		if p1.ElapsedSeconds < p2.ElapsedSeconds {
			return models.OutcomePlayer1Win
		}
		if p2.ElapsedSeconds < p1.ElapsedSeconds {
			return models.OutcomePlayer2Win
		}
		return models.OutcomeDraw
	}

	// 양쪽 모두 실패한 경우 제출 여부로 판정
	if p1.Submitted && !p2.Submitted {
		return models.OutcomePlayer1Win
	}
	if p2.Submitted && !p1.Submitted {
		return models.OutcomePlayer2Win
	}

	return models.OutcomeDraw
}

// PlayerOutcomes 배틀 결과를 플레이어 관점 결과(win/loss/draw) 쌍으로 변환
func PlayerOutcomes(result models.BattleOutcome) (player1, player2 string) {
	switch result {
	case models.OutcomePlayer1Win:
		return "win", "loss"
	case models.OutcomePlayer2Win:
		return "loss", "win"
	default:
		return "draw", "draw"
	}
}

// ResultScore ELO 계산용 점수 변환 (player1 기준)
func ResultScore(result models.BattleOutcome) float64 {
	switch result {
	case models.OutcomePlayer1Win:
		return 1.0
	case models.OutcomePlayer2Win:
		return 0.0
	default:
		return 0.5
	}
}
