package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HariomSharma2644/inturnX-sub000/internal/arena"
	"github.com/HariomSharma2644/inturnX-sub000/internal/models"
	"github.com/HariomSharma2644/inturnX-sub000/internal/service"
)

type BattleHandler struct {
	battleService   *service.BattleService
	practiceService *service.PracticeService
	manager         *arena.Manager
}

func NewBattleHandler(
	battleService *service.BattleService,
	practiceService *service.PracticeService,
	manager *arena.Manager,
) *BattleHandler {
	return &BattleHandler{
		battleService:   battleService,
		practiceService: practiceService,
		manager:         manager,
	}
}

// GetLeaderboard 레이팅 순위 조회
func (h *BattleHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.battleService.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"count":       len(entries),
	})
}

// GetStats 현재 사용자의 배틀 통계
func (h *BattleHandler) GetStats(c *gin.Context) {
	userId, _ := c.Get("userId")

	stats, err := h.battleService.GetStats(userId.(string))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get battle stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetHistory 현재 사용자의 배틀 이력 (최신순, 페이징)
func (h *BattleHandler) GetHistory(c *gin.Context) {
	userId, _ := c.Get("userId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	history, err := h.battleService.GetHistory(userId.(string), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get battle history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"count":   len(history),
	})
}

// GetBattle 배틀 ID로 저장된 결과 조회
func (h *BattleHandler) GetBattle(c *gin.Context) {
	battleID := c.Param("battleId")
	userID := c.GetString("userId")

	result, err := h.battleService.GetResult(battleID)
	if err != nil {
		if errors.Is(err, service.ErrBattleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Battle not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get battle",
		})
		return
	}

	// 참가자만 상세 결과를 볼 수 있다
	if result.Player1.UserID != userID && result.Player2.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not a participant of this battle",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartPractice 연습 문제 요청 (레이팅 영향 없음)
func (h *BattleHandler) StartPractice(c *gin.Context) {
	difficulty := c.DefaultQuery("difficulty", string(models.DifficultyEasy))

	problem, err := h.practiceService.Start(difficulty)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDifficulty) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid difficulty",
			})
			return
		}
		if errors.Is(err, service.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No problems available for this difficulty",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start practice",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"problem": problem,
	})
}

type SubmitPracticeRequest struct {
	ProblemID string `json:"problemId" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required"`
}

// SubmitPractice 연습 제출 채점
func (h *BattleHandler) SubmitPractice(c *gin.Context) {
	var req SubmitPracticeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.practiceService.Submit(c.Request.Context(), req.ProblemID, req.Code, req.Language)
	if err != nil {
		if errors.Is(err, service.ErrProblemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to grade submission",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
	})
}

// GetArenaStatus 아레나 현황 (진행 중인 배틀 수)
func (h *BattleHandler) GetArenaStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"activeBattles": h.manager.ActiveBattles(),
	})
}
