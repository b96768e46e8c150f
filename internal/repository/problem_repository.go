package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/database"
)

type ProblemRepository struct {
	db *database.DB
}

func NewProblemRepository(db *database.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// scanProblem JSONB 컬럼 디코딩 포함
func scanProblem(row interface{ Scan(...interface{}) error }) (*models.Problem, error) {
	problem := &models.Problem{}
	var examples, constraints, testCases, templates []byte

	err := row.Scan(
		&problem.ID,
		&problem.Title,
		&problem.Difficulty,
		&problem.Category,
		&problem.Description,
		&examples,
		&constraints,
		&testCases,
		&templates,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(examples, &problem.Examples); err != nil {
		return nil, fmt.Errorf("failed to decode examples: %w", err)
	}
	if err := json.Unmarshal(constraints, &problem.Constraints); err != nil {
		return nil, fmt.Errorf("failed to decode constraints: %w", err)
	}
	if err := json.Unmarshal(testCases, &problem.TestCases); err != nil {
		return nil, fmt.Errorf("failed to decode test cases: %w", err)
	}
	if err := json.Unmarshal(templates, &problem.Templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	return problem, nil
}

const problemColumns = `id, title, difficulty, category, description,
	examples, constraints, test_cases, templates`

// FindByID ID로 문제 찾기
func (r *ProblemRepository) FindByID(id string) (*models.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE id = $1`

	problem, err := scanProblem(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find problem: %w", err)
	}

	return problem, nil
}

// Random 난이도에 맞는 문제 무작위 선택
func (r *ProblemRepository) Random(difficulty models.Difficulty) (*models.Problem, error) {
	query := `SELECT ` + problemColumns + `
		FROM problems WHERE difficulty = $1
		ORDER BY random() LIMIT 1`

	problem, err := scanProblem(r.db.QueryRow(query, difficulty))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick random problem: %w", err)
	}

	return problem, nil
}

// List 문제 목록 (페이징)
func (r *ProblemRepository) List(difficulty string, limit, offset int) ([]*models.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems`
	args := []interface{}{}

	if difficulty != "" {
		query += ` WHERE difficulty = $1`
		args = append(args, difficulty)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	defer rows.Close()

	problems := []*models.Problem{}
	for rows.Next() {
		problem, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		problems = append(problems, problem)
	}

	return problems, nil
}

// Create 새 문제 등록 (시드 스크립트에서 사용)
func (r *ProblemRepository) Create(problem *models.Problem) error {
	examples, err := json.Marshal(problem.Examples)
	if err != nil {
		return fmt.Errorf("failed to encode examples: %w", err)
	}
	constraints, err := json.Marshal(problem.Constraints)
	if err != nil {
		return fmt.Errorf("failed to encode constraints: %w", err)
	}
	testCases, err := json.Marshal(problem.TestCases)
	if err != nil {
		return fmt.Errorf("failed to encode test cases: %w", err)
	}
	templates, err := json.Marshal(problem.Templates)
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}

	query := `
		INSERT INTO problems (id, title, difficulty, category, description, examples, constraints, test_cases, templates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			difficulty = EXCLUDED.difficulty,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			examples = EXCLUDED.examples,
			constraints = EXCLUDED.constraints,
			test_cases = EXCLUDED.test_cases,
			templates = EXCLUDED.templates
	`

	_, err = r.db.Exec(query, problem.ID, problem.Title, problem.Difficulty, problem.Category,
		problem.Description, examples, constraints, testCases, templates)
	if err != nil {
		return fmt.Errorf("failed to create problem: %w", err)
	}

	return nil
}
