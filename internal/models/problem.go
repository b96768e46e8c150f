package models

import "encoding/json"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Problem 코딩 문제 (문제 은행)
type Problem struct {
	ID          string            `json:"id" db:"id"`
	Title       string            `json:"title" db:"title"`
	Difficulty  Difficulty        `json:"difficulty" db:"difficulty"`
	Category    string            `json:"category" db:"category"`
	Description string            `json:"description" db:"description"`
	Examples    []Example         `json:"examples" db:"examples"`
	Constraints []string          `json:"constraints" db:"constraints"`
	TestCases   []TestCase        `json:"testCases,omitempty" db:"test_cases"`
	Templates   map[string]string `json:"languageTemplates" db:"templates"` // language -> starter code
}

type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

type TestCase struct {
	Input          json.RawMessage `json:"input"`
	ExpectedOutput json.RawMessage `json:"expectedOutput"`
}

// Public 테스트 케이스를 제외한 공개용 복사본
// 배틀 상대에게 문제를 전달할 때 정답 검증 데이터가 새지 않도록 한다.
func (p *Problem) Public() *Problem {
	copied := *p
	copied.TestCases = nil
	return &copied
}
