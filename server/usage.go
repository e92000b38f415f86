package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/storage"
)

const usageDateLayout = "2006-01-02"

type usageResponse struct {
	Records []*storage.UsageRecord `json:"records"`
}

type usageSummaryResponse struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
	storage.UsageSummary
}

func (s *Server) handleListUsage(c *fiber.Ctx) error {
	recs, err := s.driver.ListUsage(c.UserContext())
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(usageResponse{Records: recs})
}

// handleUsageSummary totals usage, optionally inside ?from=&to=. Both bounds
// are inclusive; a date-only "to" covers that whole day.
func (s *Server) handleUsageSummary(c *fiber.Ctx) error {
	fromRaw, toRaw := c.Query("from"), c.Query("to")

	if fromRaw == "" && toRaw == "" {
		recs, err := s.driver.ListUsage(c.UserContext())
		if err != nil {
			return s.sendError(c, err)
		}
		return c.JSON(usageSummaryResponse{UsageSummary: storage.Summarize(recs)})
	}

	from := time.Unix(0, 0).UTC()
	if fromRaw != "" {
		t, _, err := parseUsageTime(fromRaw)
		if err != nil {
			return s.sendError(c, badRequest("invalid from: %v", err))
		}
		from = t
	}

	to := time.Now().UTC()
	if toRaw != "" {
		t, dateOnly, err := parseUsageTime(toRaw)
		if err != nil {
			return s.sendError(c, badRequest("invalid to: %v", err))
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		to = t
	}

	if to.Before(from) {
		return s.sendError(c, badRequest("to is before from"))
	}

	recs, err := s.driver.UsageBetween(c.UserContext(), from, to)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(usageSummaryResponse{
		From:         &from,
		To:           &to,
		UsageSummary: storage.Summarize(recs),
	})
}

func (s *Server) handleClearUsage(c *fiber.Ctx) error {
	if err := s.driver.ClearUsage(c.UserContext()); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseUsageTime accepts a date or an RFC 3339 timestamp.
func parseUsageTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(usageDateLayout, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}
