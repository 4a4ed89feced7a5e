package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felixgeelhaar/studyplan/internal/intake"
	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// HealthVersion is reported by GET /health.
const HealthVersion = "1.0.0"

func (s *Server) health(c *gin.Context) {
	ok(c, "", gin.H{"status": "healthy", "service": "studyplan", "version": HealthVersion})
}

type generateBody struct {
	Syllabus   string          `json:"syllabus"`
	Days       json.RawMessage `json:"days"`
	Difficulty string          `json:"difficulty"`
	UserID     string          `json:"user_id"`
	SessionID  string          `json:"session_id"`
}

func (s *Server) generate(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), nil)
		return
	}

	req := intake.Request{
		Syllabus:   body.Syllabus,
		Days:       strings.Trim(string(body.Days), `"`),
		Difficulty: body.Difficulty,
		UserID:     body.UserID,
	}
	req.Normalize()
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	check := s.policy.Validate(req)
	if !check.Valid {
		s.fail(c, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(check.Errors, "; ")), check)
		return
	}
	for _, w := range check.Warnings {
		s.obs.Log().Warn().Str("user_id", req.UserID).Msg(w)
	}

	result, err := s.planner.Process(c.Request.Context(), orchestrate.Request{
		Syllabus:   req.Syllabus,
		Days:       req.Days,
		Difficulty: req.Difficulty,
		SessionID:  strings.TrimSpace(body.SessionID),
		UserID:     req.UserID,
	})
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	ok(c, "study plan generated", result)
}

type progressBody struct {
	Topic  string `json:"topic"`
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

const (
	actionComplete   = "complete"
	actionUncomplete = "uncomplete"
)

func (s *Server) progress(c *gin.Context) {
	sessionID := c.Param("session_id")

	var body progressBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), nil)
		return
	}
	body.Topic = strings.TrimSpace(body.Topic)
	if body.Topic == "" {
		s.fail(c, fmt.Errorf("%w: topic is required", ErrInvalidRequest), nil)
		return
	}
	if body.Action == "" {
		body.Action = actionComplete
	}

	ctx := c.Request.Context()
	var message string
	switch body.Action {
	case actionComplete:
		if err := s.planner.MarkProgress(ctx, sessionID, body.Topic); err != nil {
			s.fail(c, err, nil)
			return
		}
		message = fmt.Sprintf("Marked %s as complete", body.Topic)
	case actionUncomplete:
		if _, err := s.planner.UnmarkProgress(ctx, sessionID, body.Topic); err != nil {
			s.fail(c, err, nil)
			return
		}
		message = fmt.Sprintf("Marked %s as incomplete", body.Topic)
	default:
		s.fail(c, fmt.Errorf("%w: action must be %q or %q", ErrInvalidRequest, actionComplete, actionUncomplete), nil)
		return
	}

	_, stats, err := s.planner.Progress(ctx, sessionID)
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	ok(c, message, gin.H{"stats": stats})
}

func (s *Server) getSession(c *gin.Context) {
	doc, stats, err := s.planner.Progress(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	ok(c, "", gin.H{"session": doc, "stats": stats})
}

func (s *Server) sessionMarkdown(c *gin.Context) {
	doc, _, err := s.planner.Progress(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.md"`, doc.SessionID))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(session.Markdown(doc)))
}

// SessionSummary is one row of GET /sessions/list/:user_id.
type SessionSummary struct {
	SessionID   string                      `json:"session_id"`
	CreatedAt   time.Time                   `json:"created_at"`
	LastUpdated time.Time                   `json:"last_updated"`
	Syllabus    string                      `json:"syllabus"`
	Days        string                      `json:"days"`
	Difficulty  string                      `json:"difficulty"`
	Progress    map[string]session.Progress `json:"progress"`
	session.Stats
}

func (s *Server) listSessions(c *gin.Context) {
	docs, err := s.sessions.List(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}

	out := make([]SessionSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, SessionSummary{
			SessionID:   d.SessionID,
			CreatedAt:   d.CreatedAt,
			LastUpdated: d.LastUpdated,
			Syllabus:    orNA(d.Syllabus),
			Days:        orNA(d.Days),
			Difficulty:  orNA(d.Difficulty),
			Progress:    d.Progress,
			Stats:       session.ComputeStats(d),
		})
	}
	ok(c, "", gin.H{"sessions": out, "count": len(out)})
}

func (s *Server) getHistory(c *gin.Context) {
	h, err := s.history.History(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	ok(c, "", h)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
