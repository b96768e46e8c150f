package service

import "math"

// ELOService ELO 레이팅 계산 서비스
type ELOService struct {
	defaultKFactor float64 // Default K-factor for established players
}

// NewELOService ELO 서비스 생성
func NewELOService() *ELOService {
	return &ELOService{
		defaultKFactor: 32, // K-factor: 레이팅 변동 폭 (기본값)
	}
}

// GetKFactor returns the appropriate K-factor based on the number of battles played.
// Implements a provisional rating system:
// - New players (< 10 battles): K=40 for faster convergence
// - Intermediate players (10-20 battles): K=32 for moderate adjustment
// - Established players (> 20 battles): K=24 for rating stability
func (s *ELOService) GetKFactor(battleCount int) float64 {
	if battleCount < 10 {
		return 40.0 // Provisional rating - faster convergence
	} else if battleCount < 20 {
		return 32.0 // Intermediate - moderate adjustment
	}
	return 24.0 // Established rating - stable
}

// CalculateNewRatings 배틀 결과에 따른 새로운 ELO 레이팅 계산
// result: 1.0 (player1 승), 0.5 (무승부), 0.0 (player2 승)
// Uses the default K-factor for both players.
func (s *ELOService) CalculateNewRatings(player1ELO, player2ELO int, result float64) (newPlayer1ELO, newPlayer2ELO, player1Change, player2Change int) {
	// 기대 승률 계산
	expectedPlayer1 := s.expectedScore(float64(player1ELO), float64(player2ELO))
	expectedPlayer2 := 1.0 - expectedPlayer1

	// 새 레이팅 계산 (기본 K-factor 사용)
	newPlayer1ELOFloat := float64(player1ELO) + s.defaultKFactor*(result-expectedPlayer1)
	newPlayer2ELOFloat := float64(player2ELO) + s.defaultKFactor*((1.0-result)-expectedPlayer2)

	newPlayer1ELO = clampRating(int(math.Round(newPlayer1ELOFloat)))
	newPlayer2ELO = clampRating(int(math.Round(newPlayer2ELOFloat)))

	player1Change = newPlayer1ELO - player1ELO
	player2Change = newPlayer2ELO - player2ELO

	return
}

// CalculateNewRatingsWithBattleCounts calculates new ELO ratings using dynamic K-factors.
// This method should be used when battle count data is available for provisional rating support.
// result: 1.0 (player1 wins), 0.5 (draw), 0.0 (player2 wins)
func (s *ELOService) CalculateNewRatingsWithBattleCounts(
	player1ELO, player2ELO int,
	player1Battles, player2Battles int,
	result float64,
) (newPlayer1ELO, newPlayer2ELO, player1Change, player2Change int) {
	// 기대 승률 계산
	expectedPlayer1 := s.expectedScore(float64(player1ELO), float64(player2ELO))
	expectedPlayer2 := 1.0 - expectedPlayer1

	// Use dynamic K-factors based on battle count (provisional rating system)
	kFactor1 := s.GetKFactor(player1Battles)
	kFactor2 := s.GetKFactor(player2Battles)

	// 새 레이팅 계산 (동적 K-factor 사용)
	newPlayer1ELOFloat := float64(player1ELO) + kFactor1*(result-expectedPlayer1)
	newPlayer2ELOFloat := float64(player2ELO) + kFactor2*((1.0-result)-expectedPlayer2)

	newPlayer1ELO = clampRating(int(math.Round(newPlayer1ELOFloat)))
	newPlayer2ELO = clampRating(int(math.Round(newPlayer2ELOFloat)))

	player1Change = newPlayer1ELO - player1ELO
	player2Change = newPlayer2ELO - player2ELO

	return
}

// expectedScore ELO에 기반한 기대 승률 계산
func (s *ELOService) expectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// clampRating 레이팅 하한 0
func clampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	return rating
}
