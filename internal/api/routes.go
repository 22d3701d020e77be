package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chat-stats-bot/internal/models"
	"github.com/chat-stats-bot/internal/stats"
	"github.com/chat-stats-bot/internal/storage"
	"github.com/gin-gonic/gin"
)

// errorResponse is the uniform error body: {ok:false, error, code}.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{OK: false, Error: message, Code: code})
}

// handleHealth reports liveness of the store dependency.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Healthcheck failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type analyzeRequest struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
}

// handleAnalyze runs an LLM-backed analysis of one user's messages.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		fail(c, http.StatusBadRequest, "validation_error", "username is required")
		return
	}
	if req.ChatID == 0 {
		fail(c, http.StatusBadRequest, "validation_error", "chat_id is required")
		return
	}

	result, err := s.analyzer.AnalyzeByUsername(c.Request.Context(), req.ChatID, req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Analysis failed")
		fail(c, http.StatusBadGateway, "external_service_error", "analysis failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"analysis":      result.Analysis,
		"message_count": result.MessageCount,
		"display_name":  result.DisplayName,
		"lookback_days": result.LookbackDays,
	})
}

// handleChatStats serves top talkers plus totals, or one user's stats when
// the user query parameter is present.
func (s *Server) handleChatStats(c *gin.Context) {
	chatID, ok := parseChatID(c)
	if !ok {
		return
	}

	rangeKey, timeRange, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	if username := strings.TrimSpace(c.Query("user")); username != "" {
		user, err := s.store.FindUserByUsername(c.Request.Context(), username)
		if errors.Is(err, storage.ErrNotFound) {
			fail(c, http.StatusNotFound, "not_found", "user not found")
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Str("username", username).Msg("User lookup failed")
			fail(c, http.StatusInternalServerError, "service_error", "failed to look up user")
			return
		}

		userStats, err := s.stats.GetUserStats(c.Request.Context(), chatID, user.ID, timeRange, rangeKey)
		if err != nil {
			s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("User stats query failed")
			fail(c, http.StatusInternalServerError, "service_error", "failed to compute stats")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": user, "stats": userStats})
		return
	}

	result, err := s.stats.GetTopUsersStats(c.Request.Context(), chatID, timeRange, rangeKey)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Top users query failed")
		fail(c, http.StatusInternalServerError, "service_error", "failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": result.Users, "totals": result.Totals})
}

// handleChatKeywords serves the keyword-frequency ranking.
func (s *Server) handleChatKeywords(c *gin.Context) {
	chatID, ok := parseChatID(c)
	if !ok {
		return
	}

	rangeKey, timeRange, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			fail(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	keywords, err := s.stats.GetTopKeywords(c.Request.Context(), chatID, timeRange, rangeKey, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Keywords query failed")
		fail(c, http.StatusInternalServerError, "service_error", "failed to compute keywords")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "keywords": keywords})
}

func parseChatID(c *gin.Context) (int64, bool) {
	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "validation_error", "chat id must be an integer")
		return 0, false
	}
	return chatID, true
}

// parseRangeQuery reads either a symbolic range query parameter or an
// explicit from/to date pair. An explicit pair wins and marks the range as
// custom; an unrecognized symbolic key falls back to the unbounded window.
func parseRangeQuery(c *gin.Context) (models.RangeKey, models.TimeRange, bool) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from != "" || to != "" {
		timeRange := models.TimeRange{}
		if from != "" {
			parsed, err := time.Parse("2006-01-02", from)
			if err != nil {
				fail(c, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD")
				return "", models.TimeRange{}, false
			}
			timeRange.Start = &parsed
		}
		if to != "" {
			parsed, err := time.Parse("2006-01-02", to)
			if err != nil {
				fail(c, http.StatusBadRequest, "validation_error", "to must be YYYY-MM-DD")
				return "", models.TimeRange{}, false
			}
			timeRange.End = &parsed
		}
		return models.RangeCustom, timeRange, true
	}

	key := models.RangeAll
	if raw := c.Query("range"); raw != "" {
		if parsed, ok := stats.ParseRangeKey(raw); ok {
			key = parsed
		}
	}
	return key, stats.ResolveRange(key, time.Now()), true
}
