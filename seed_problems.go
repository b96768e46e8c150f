package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/repository"
	"github.com/HariomSharma2644/inturnX-sub000/pkg/database"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		avatar_url TEXT,
		rating INTEGER NOT NULL DEFAULT 1200,
		total_battles INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		draws INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS problems (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		difficulty VARCHAR(10) NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		examples JSONB NOT NULL DEFAULT '[]',
		constraints JSONB NOT NULL DEFAULT '[]',
		test_cases JSONB NOT NULL DEFAULT '[]',
		templates JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS battles (
		id SERIAL PRIMARY KEY,
		battle_id TEXT UNIQUE NOT NULL,
		battle_type VARCHAR(20) NOT NULL,
		problem_id TEXT NOT NULL REFERENCES problems(id),
		player1_id UUID NOT NULL REFERENCES users(id),
		player2_id UUID NOT NULL REFERENCES users(id),
		status VARCHAR(20) NOT NULL,
		time_limit INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS battle_results (
		id SERIAL PRIMARY KEY,
		battle_id TEXT UNIQUE NOT NULL,
		battle_type VARCHAR(20) NOT NULL,
		result VARCHAR(20) NOT NULL,
		problem_id TEXT NOT NULL,
		problem_name TEXT NOT NULL,
		difficulty VARCHAR(10) NOT NULL,
		duration INTEGER NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		player1_user_id UUID NOT NULL REFERENCES users(id),
		player1_user_name VARCHAR(50) NOT NULL,
		player1_rating_before INTEGER NOT NULL,
		player1_rating_after INTEGER NOT NULL,
		player1_rating_change INTEGER NOT NULL,
		player1_submitted BOOLEAN NOT NULL,
		player1_passed BOOLEAN NOT NULL,
		player1_tests_passed INTEGER NOT NULL,
		player1_total_tests INTEGER NOT NULL,
		player1_score INTEGER NOT NULL,
		player1_elapsed_seconds INTEGER NOT NULL,
		player1_code TEXT NOT NULL DEFAULT '',
		player1_language VARCHAR(20) NOT NULL,
		player1_outcome VARCHAR(10) NOT NULL,
		player2_user_id UUID NOT NULL REFERENCES users(id),
		player2_user_name VARCHAR(50) NOT NULL,
		player2_rating_before INTEGER NOT NULL,
		player2_rating_after INTEGER NOT NULL,
		player2_rating_change INTEGER NOT NULL,
		player2_submitted BOOLEAN NOT NULL,
		player2_passed BOOLEAN NOT NULL,
		player2_tests_passed INTEGER NOT NULL,
		player2_total_tests INTEGER NOT NULL,
		player2_score INTEGER NOT NULL,
		player2_elapsed_seconds INTEGER NOT NULL,
		player2_code TEXT NOT NULL DEFAULT '',
		player2_language VARCHAR(20) NOT NULL,
		player2_outcome VARCHAR(10) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_battle_results_player1 ON battle_results (player1_user_id, completed_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_battle_results_player2 ON battle_results (player2_user_id, completed_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_problems_difficulty ON problems (difficulty)`,
}

func raw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Fatal("Failed to encode test case value:", err)
	}
	return b
}

func seedProblems() []*models.Problem {
	return []*models.Problem{
		{
			ID:         "two-sum",
			Title:      "Two Sum",
			Difficulty: models.DifficultyEasy,
			Category:   "Array",
			Description: "Given an array of integers nums and an integer target, return indices of the two numbers such that they add up to target.\n\n" +
				"You may assume that each input would have exactly one solution, and you may not use the same element twice.\n\n" +
				"You can return the answer in any order.",
			Examples: []models.Example{
				{Input: "nums = [2,7,11,15], target = 9", Output: "[0,1]", Explanation: "Because nums[0] + nums[1] == 9, we return [0, 1]."},
				{Input: "nums = [3,2,4], target = 6", Output: "[1,2]"},
			},
			Constraints: []string{
				"2 <= nums.length <= 10^4",
				"-10^9 <= nums[i] <= 10^9",
				"-10^9 <= target <= 10^9",
				"Only one valid answer exists.",
			},
			TestCases: []models.TestCase{
				{Input: raw([]interface{}{[]int{2, 7, 11, 15}, 9}), ExpectedOutput: raw([]int{0, 1})},
				{Input: raw([]interface{}{[]int{3, 2, 4}, 6}), ExpectedOutput: raw([]int{1, 2})},
				{Input: raw([]interface{}{[]int{3, 3}, 6}), ExpectedOutput: raw([]int{0, 1})},
			},
			Templates: map[string]string{
				"javascript": "function twoSum(nums, target) {\n    // Your code here\n\n}",
				"python":     "def two_sum(nums, target):\n    # Your code here\n    pass",
			},
		},
		{
			ID:         "fibonacci",
			Title:      "Fibonacci Number",
			Difficulty: models.DifficultyEasy,
			Category:   "Math",
			Description: "The Fibonacci numbers, commonly denoted F(n) form a sequence, called the Fibonacci sequence, " +
				"such that each number is the sum of the two preceding ones, starting from 0 and 1.\n\nGiven n, calculate F(n).",
			Examples: []models.Example{
				{Input: "n = 2", Output: "1", Explanation: "F(2) = F(1) + F(0) = 1 + 0 = 1."},
				{Input: "n = 3", Output: "2"},
			},
			Constraints: []string{"0 <= n <= 30"},
			TestCases: []models.TestCase{
				{Input: raw([]int{2}), ExpectedOutput: raw(1)},
				{Input: raw([]int{3}), ExpectedOutput: raw(2)},
				{Input: raw([]int{4}), ExpectedOutput: raw(3)},
				{Input: raw([]int{0}), ExpectedOutput: raw(0)},
				{Input: raw([]int{1}), ExpectedOutput: raw(1)},
			},
			Templates: map[string]string{
				"javascript": "var fib = function(n) {\n    // Your code here\n\n};",
				"python":     "def fib(n):\n    # Your code here\n    pass",
			},
		},
		{
			ID:         "valid-parentheses",
			Title:      "Valid Parentheses",
			Difficulty: models.DifficultyEasy,
			Category:   "String",
			Description: "Given a string s containing just the characters '(', ')', '{', '}', '[' and ']', determine if the input string is valid.\n\n" +
				"An input string is valid if:\n" +
				"1. Open brackets must be closed by the same type of brackets.\n" +
				"2. Open brackets must be closed in the correct order.\n" +
				"3. Every close bracket has a corresponding open bracket of the same type.",
			Examples: []models.Example{
				{Input: `s = "()"`, Output: "true"},
				{Input: `s = "()[]{}"`, Output: "true"},
				{Input: `s = "(]"`, Output: "false"},
			},
			Constraints: []string{
				"1 <= s.length <= 10^4",
				"s consists of parentheses only '()[]{}'.",
			},
			TestCases: []models.TestCase{
				{Input: raw([]string{"()"}), ExpectedOutput: raw(true)},
				{Input: raw([]string{"()[]{}"}), ExpectedOutput: raw(true)},
				{Input: raw([]string{"(]"}), ExpectedOutput: raw(false)},
				{Input: raw([]string{"([)]"}), ExpectedOutput: raw(false)},
				{Input: raw([]string{"{[]}"}), ExpectedOutput: raw(true)},
			},
			Templates: map[string]string{
				"javascript": "var isValid = function(s) {\n    // Your code here\n\n};",
				"python":     "def is_valid(s):\n    # Your code here\n    pass",
			},
		},
		{
			ID:          "longest-substring-without-repeating",
			Title:       "Longest Substring Without Repeating Characters",
			Difficulty:  models.DifficultyMedium,
			Category:    "String",
			Description: "Given a string s, find the length of the longest substring without duplicate characters.",
			Examples: []models.Example{
				{Input: `s = "abcabcbb"`, Output: "3", Explanation: `The answer is "abc", with the length of 3.`},
				{Input: `s = "bbbbb"`, Output: "1"},
				{Input: `s = "pwwkew"`, Output: "3"},
			},
			Constraints: []string{
				"0 <= s.length <= 5 * 10^4",
				"s consists of English letters, digits, symbols and spaces.",
			},
			TestCases: []models.TestCase{
				{Input: raw([]string{"abcabcbb"}), ExpectedOutput: raw(3)},
				{Input: raw([]string{"bbbbb"}), ExpectedOutput: raw(1)},
				{Input: raw([]string{"pwwkew"}), ExpectedOutput: raw(3)},
				{Input: raw([]string{""}), ExpectedOutput: raw(0)},
			},
			Templates: map[string]string{
				"javascript": "var lengthOfLongestSubstring = function(s) {\n    // Your code here\n\n};",
				"python":     "def length_of_longest_substring(s):\n    # Your code here\n    pass",
			},
		},
		{
			ID:         "trapping-rain-water",
			Title:      "Trapping Rain Water",
			Difficulty: models.DifficultyHard,
			Category:   "Array",
			Description: "Given n non-negative integers representing an elevation map where the width of each bar is 1, " +
				"compute how much water it can trap after raining.",
			Examples: []models.Example{
				{Input: "height = [0,1,0,2,1,0,1,3,2,1,2,1]", Output: "6", Explanation: "6 units of rain water are trapped between the bars."},
				{Input: "height = [4,2,0,3,2,5]", Output: "9"},
			},
			Constraints: []string{
				"n == height.length",
				"1 <= n <= 2 * 10^4",
				"0 <= height[i] <= 10^5",
			},
			TestCases: []models.TestCase{
				{Input: raw([]interface{}{[]int{0, 1, 0, 2, 1, 0, 1, 3, 2, 1, 2, 1}}), ExpectedOutput: raw(6)},
				{Input: raw([]interface{}{[]int{4, 2, 0, 3, 2, 5}}), ExpectedOutput: raw(9)},
				{Input: raw([]interface{}{[]int{1}}), ExpectedOutput: raw(0)},
			},
			Templates: map[string]string{
				"javascript": "var trap = function(height) {\n    // Your code here\n\n};",
				"python":     "def trap(height):\n    # Your code here\n    pass",
			},
		},
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using existing environment")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set in environment")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database successfully!")

	// Create tables
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatal("Failed to create schema:", err)
		}
	}

	fmt.Println("✅ Schema created!")

	// Upsert problems
	problemRepo := repository.NewProblemRepository(db)
	for _, p := range seedProblems() {
		if err := problemRepo.Create(p); err != nil {
			log.Fatalf("Failed to seed problem %s: %v", p.ID, err)
		}
		fmt.Printf("✅ Problem seeded: %s (%s)\n", p.Title, p.Difficulty)
	}

	// Verify
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM problems").Scan(&count); err != nil {
		log.Fatal("Failed to verify seeding:", err)
	}

	fmt.Printf("\n📋 %d problems available:\n", count)
	rows, err := db.Query("SELECT id, title, difficulty FROM problems ORDER BY difficulty, title")
	if err != nil {
		log.Fatal("Failed to query problems:", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, title, difficulty string
		if err := rows.Scan(&id, &title, &difficulty); err != nil {
			log.Fatal("Failed to scan problem:", err)
		}
		fmt.Printf("  - %s: %s (%s)\n", id, title, difficulty)
	}
}
