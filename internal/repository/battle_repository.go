package repository

import (
	"database/sql"
	"fmt"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/database"
)

type BattleRepository struct {
	db *database.DB
}

func NewBattleRepository(db *database.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

// CreateBattle 배틀 세션 시작 시 배틀 기록 생성
func (r *BattleRepository) CreateBattle(battle *models.Battle) error {
	query := `
		INSERT INTO battles (battle_id, battle_type, problem_id, player1_id, player2_id, status, time_limit, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(query,
		battle.BattleID,
		battle.BattleType,
		battle.ProblemID,
		battle.Player1ID,
		battle.Player2ID,
		battle.Status,
		battle.TimeLimit,
		battle.StartedAt,
	).Scan(&battle.ID)
	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}

	return nil
}

// RecordResult 배틀 결과 저장 + 양쪽 플레이어 레이팅/전적 반영.
// battle_id에 UNIQUE 제약이 있어 중복 저장 시 (false, nil)을 반환한다.
// 결과 반영이 멱등해야 재해결 경쟁에서 레이팅이 두 번 바뀌지 않는다.
func (r *BattleRepository) RecordResult(result *models.BattleResult) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO battle_results (
			battle_id, battle_type, result, problem_id, problem_name, difficulty, duration, completed_at,
			player1_user_id, player1_user_name, player1_rating_before, player1_rating_after, player1_rating_change,
			player1_submitted, player1_passed, player1_tests_passed, player1_total_tests, player1_score,
			player1_elapsed_seconds, player1_code, player1_language, player1_outcome,
			player2_user_id, player2_user_name, player2_rating_before, player2_rating_after, player2_rating_change,
			player2_submitted, player2_passed, player2_tests_passed, player2_total_tests, player2_score,
			player2_elapsed_seconds, player2_code, player2_language, player2_outcome
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36
		)
		ON CONFLICT (battle_id) DO NOTHING
	`

	p1, p2 := result.Player1, result.Player2
	res, err := tx.Exec(insertQuery,
		result.BattleID, result.BattleType, result.Result, result.ProblemID,
		result.ProblemName, result.Difficulty, result.Duration, result.CompletedAt,
		p1.UserID, p1.UserName, p1.RatingBefore, p1.RatingAfter, p1.RatingChange,
		p1.Submitted, p1.Passed, p1.TestsPassed, p1.TotalTests, p1.Score,
		p1.ElapsedSeconds, p1.Code, p1.Language, p1.Outcome,
		p2.UserID, p2.UserName, p2.RatingBefore, p2.RatingAfter, p2.RatingChange,
		p2.Submitted, p2.Passed, p2.TestsPassed, p2.TotalTests, p2.Score,
		p2.ElapsedSeconds, p2.Code, p2.Language, p2.Outcome,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert battle result: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert: %w", err)
	}
	if inserted == 0 {
		// 이미 기록된 배틀이므로 레이팅을 다시 건드리지 않는다
		return false, nil
	}

	if err := applyPlayerResult(tx, &p1); err != nil {
		return false, err
	}
	if err := applyPlayerResult(tx, &p2); err != nil {
		return false, err
	}

	_, err = tx.Exec(`UPDATE battles SET status = $1, completed_at = $2 WHERE battle_id = $3`,
		models.BattleStatusCompleted, result.CompletedAt, result.BattleID)
	if err != nil {
		return false, fmt.Errorf("failed to complete battle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit result: %w", err)
	}

	return true, nil
}

func applyPlayerResult(tx *sql.Tx, p *models.PlayerResult) error {
	var wins, losses, draws int
	switch p.Outcome {
	case "win":
		wins = 1
	case "loss":
		losses = 1
	default:
		draws = 1
	}

	query := `
		UPDATE users
		SET rating = $1,
			total_battles = total_battles + 1,
			wins = wins + $2,
			losses = losses + $3,
			draws = draws + $4,
			updated_at = NOW()
		WHERE id = $5
	`

	_, err := tx.Exec(query, p.RatingAfter, wins, losses, draws, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to apply rating for %s: %w", p.UserID, err)
	}

	return nil
}

// FindResultByBattleID 배틀 ID로 결과 조회
func (r *BattleRepository) FindResultByBattleID(battleID string) (*models.BattleResult, error) {
	query := `
		SELECT id, battle_id, battle_type, result, problem_id, problem_name, difficulty, duration, completed_at,
			player1_user_id, player1_user_name, player1_rating_before, player1_rating_after, player1_rating_change,
			player1_submitted, player1_passed, player1_tests_passed, player1_total_tests, player1_score,
			player1_elapsed_seconds, player1_language, player1_outcome,
			player2_user_id, player2_user_name, player2_rating_before, player2_rating_after, player2_rating_change,
			player2_submitted, player2_passed, player2_tests_passed, player2_total_tests, player2_score,
			player2_elapsed_seconds, player2_language, player2_outcome
		FROM battle_results WHERE battle_id = $1
	`

	result := &models.BattleResult{}
	p1 := &result.Player1
	p2 := &result.Player2
	err := r.db.QueryRow(query, battleID).Scan(
		&result.ID, &result.BattleID, &result.BattleType, &result.Result, &result.ProblemID,
		&result.ProblemName, &result.Difficulty, &result.Duration, &result.CompletedAt,
		&p1.UserID, &p1.UserName, &p1.RatingBefore, &p1.RatingAfter, &p1.RatingChange,
		&p1.Submitted, &p1.Passed, &p1.TestsPassed, &p1.TotalTests, &p1.Score,
		&p1.ElapsedSeconds, &p1.Language, &p1.Outcome,
		&p2.UserID, &p2.UserName, &p2.RatingBefore, &p2.RatingAfter, &p2.RatingChange,
		&p2.Submitted, &p2.Passed, &p2.TestsPassed, &p2.TotalTests, &p2.Score,
		&p2.ElapsedSeconds, &p2.Language, &p2.Outcome,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find battle result: %w", err)
	}

	return result, nil
}

// HistoryByUserID 사용자 관점의 배틀 이력 (최신순, 페이징)
func (r *BattleRepository) HistoryByUserID(userID string, limit, offset int) ([]*models.BattleHistoryEntry, error) {
	query := `
		SELECT battle_id, battle_type, problem_name, difficulty, duration, completed_at,
			CASE WHEN player1_user_id = $1 THEN player1_outcome ELSE player2_outcome END,
			CASE WHEN player1_user_id = $1 THEN player1_rating_change ELSE player2_rating_change END,
			CASE WHEN player1_user_id = $1 THEN player1_rating_after ELSE player2_rating_after END,
			CASE WHEN player1_user_id = $1 THEN player2_user_name ELSE player1_user_name END
		FROM battle_results
		WHERE player1_user_id = $1 OR player2_user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query battle history: %w", err)
	}
	defer rows.Close()

	history := []*models.BattleHistoryEntry{}
	for rows.Next() {
		entry := &models.BattleHistoryEntry{}
		err := rows.Scan(
			&entry.BattleID,
			&entry.BattleType,
			&entry.ProblemTitle,
			&entry.Difficulty,
			&entry.Duration,
			&entry.CompletedAt,
			&entry.Result,
			&entry.RatingChange,
			&entry.RatingAfter,
			&entry.OpponentName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		history = append(history, entry)
	}

	return history, nil
}

// StatsByUserID 사용자 배틀 통계 집계
func (r *BattleRepository) StatsByUserID(userID string) (*models.BattleStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE (player1_user_id = $1 AND player1_outcome = 'win')
				OR (player2_user_id = $1 AND player2_outcome = 'win')),
			COUNT(*) FILTER (WHERE (player1_user_id = $1 AND player1_outcome = 'loss')
				OR (player2_user_id = $1 AND player2_outcome = 'loss')),
			COUNT(*) FILTER (WHERE (player1_user_id = $1 AND player1_outcome = 'draw')
				OR (player2_user_id = $1 AND player2_outcome = 'draw')),
			COALESCE(SUM(CASE WHEN player1_user_id = $1 THEN player1_rating_change ELSE player2_rating_change END), 0)
		FROM battle_results
		WHERE player1_user_id = $1 OR player2_user_id = $1
	`

	stats := &models.BattleStats{}
	err := r.db.QueryRow(query, userID).Scan(
		&stats.TotalBattles,
		&stats.Wins,
		&stats.Losses,
		&stats.Draws,
		&stats.TotalRatingChange,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query battle stats: %w", err)
	}

	if stats.TotalBattles > 0 {
		stats.WinRate = stats.Wins * 100 / stats.TotalBattles
	}

	return stats, nil
}
