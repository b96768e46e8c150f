package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

// Client 채점 서비스 HTTP 클라이언트
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 채점 서비스 클라이언트 생성
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GradeRequest 채점 요청
type GradeRequest struct {
	SubmissionID string     `json:"submissionId"`
	ProblemID    string     `json:"problemId"`
	Code         string     `json:"code"`
	Language     string     `json:"language"`
	TestCases    []TestCase `json:"testCases"`
}

type TestCase struct {
	Input          json.RawMessage `json:"input"`
	ExpectedOutput json.RawMessage `json:"expectedOutput"`
}

// GradeResult 채점 결과
type GradeResult struct {
	Passed      bool    `json:"passed"`      // 모든 테스트 통과 여부
	TestsPassed int     `json:"testsPassed"` // 통과한 테스트 수
	TotalTests  int     `json:"totalTests"`
	Score       int     `json:"score"` // 0-100
	RuntimeMs   float64 `json:"runtimeMs"`
	ErrorMsg    string  `json:"error,omitempty"`
}

// Grade 제출 코드를 테스트 케이스에 대해 채점
func (c *Client) Grade(ctx context.Context, req GradeRequest) (*GradeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grade request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/grade", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build grade request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Info("Sending grade request to judge service",
		"problemId", req.ProblemID,
		"language", req.Language,
		"testCases", len(req.TestCases),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var result GradeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode grade result: %w", err)
	}

	logger.Info("Grade completed",
		"problemId", req.ProblemID,
		"passed", result.Passed,
		"testsPassed", result.TestsPassed,
		"totalTests", result.TotalTests,
	)

	return &result, nil
}

// HealthCheck 채점 서비스 상태 확인
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("judge health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("judge is not healthy (status %d)", resp.StatusCode)
	}

	return nil
}
