package models

import "time"

type BattleStatus string

const (
	BattleStatusActive    BattleStatus = "active"
	BattleStatusCompleted BattleStatus = "completed"
)

type BattleOutcome string

const (
	OutcomePlayer1Win BattleOutcome = "player1_win"
	OutcomePlayer2Win BattleOutcome = "player2_win"
	OutcomeDraw       BattleOutcome = "draw"
)

// Battle 저장용 배틀 레코드
type Battle struct {
	ID          string       `json:"id" db:"id"`
	BattleID    string       `json:"battleId" db:"battle_id"`
	BattleType  string       `json:"battleType" db:"battle_type"`
	ProblemID   string       `json:"problemId" db:"problem_id"`
	Player1ID   string       `json:"player1Id" db:"player1_id"`
	Player2ID   string       `json:"player2Id" db:"player2_id"`
	Status      BattleStatus `json:"status" db:"status"`
	TimeLimit   int          `json:"timeLimit" db:"time_limit"` // seconds
	StartedAt   time.Time    `json:"startedAt" db:"started_at"`
	CompletedAt *time.Time   `json:"completedAt,omitempty" db:"completed_at"`
}

// PlayerResult 배틀 결과의 플레이어별 항목
type PlayerResult struct {
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	RatingBefore   int       `json:"ratingBefore"`
	RatingAfter    int       `json:"ratingAfter"`
	RatingChange   int       `json:"ratingChange"`
	Submitted      bool      `json:"submitted"`
	Passed         bool      `json:"passed"`
	TestsPassed    int       `json:"testsPassed"`
	TotalTests     int       `json:"totalTests"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	Code           string    `json:"-"`
	Language       string    `json:"language"`
	Outcome        string    `json:"result"` // win, loss, draw
	SubmittedAt    time.Time `json:"submittedAt,omitempty"`
}

// BattleResult 완료된 배틀의 최종 결과 (생성 후 불변)
type BattleResult struct {
	ID          string        `json:"id" db:"id"`
	BattleID    string        `json:"battleId" db:"battle_id"`
	BattleType  string        `json:"battleType" db:"battle_type"`
	Result      BattleOutcome `json:"result" db:"result"`
	Player1     PlayerResult  `json:"player1"`
	Player2     PlayerResult  `json:"player2"`
	ProblemID   string        `json:"problemId" db:"problem_id"`
	ProblemName string        `json:"problemTitle" db:"problem_title"`
	Difficulty  Difficulty    `json:"difficulty" db:"difficulty"`
	Duration    int           `json:"duration" db:"duration"` // seconds
	CompletedAt time.Time     `json:"completedAt" db:"completed_at"`
}

// BattleStats 사용자 통계 (GET /battles/stats)
type BattleStats struct {
	TotalBattles      int    `json:"totalBattles"`
	Wins              int    `json:"wins"`
	Losses            int    `json:"losses"`
	Draws             int    `json:"draws"`
	WinRate           int    `json:"winRate"` // percent
	CurrentRating     int    `json:"currentRating"`
	Rank              string `json:"rank"`
	TotalRatingChange int    `json:"totalRatingChange"`
}

// BattleHistoryEntry 히스토리 목록 항목 (본인 관점)
type BattleHistoryEntry struct {
	BattleID     string     `json:"battleId"`
	Result       string     `json:"result"` // win, loss, draw
	RatingChange int        `json:"ratingChange"`
	RatingAfter  int        `json:"ratingAfter"`
	OpponentName string     `json:"opponentName"`
	ProblemTitle string     `json:"problemTitle"`
	Difficulty   Difficulty `json:"difficulty"`
	Duration     int        `json:"duration"`
	BattleType   string     `json:"battleType"`
	CompletedAt  time.Time  `json:"completedAt"`
}
