package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/HariomSharma2644/inturnX-sub000/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("test", "error")
	os.Exit(m.Run())
}

func TestClient_Grade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grade" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req GradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		if req.Language != "javascript" {
			t.Errorf("unexpected language: %s", req.Language)
		}

		json.NewEncoder(w).Encode(GradeResult{
			Passed:      true,
			TestsPassed: 3,
			TotalTests:  3,
			Score:       100,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	result, err := client.Grade(context.Background(), GradeRequest{
		ProblemID: "two-sum",
		Code:      "function twoSum(nums, target) {}",
		Language:  "javascript",
	})
	if err != nil {
		t.Fatalf("Grade failed: %v", err)
	}

	if !result.Passed {
		t.Error("expected passed result")
	}
	if result.TestsPassed != 3 || result.TotalTests != 3 {
		t.Errorf("unexpected test counts: %d/%d", result.TestsPassed, result.TotalTests)
	}
}

func TestClient_Grade_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.Grade(context.Background(), GradeRequest{ProblemID: "two-sum"})
	if err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestClient_Grade_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 50*time.Millisecond)

	_, err := client.Grade(context.Background(), GradeRequest{ProblemID: "two-sum"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
