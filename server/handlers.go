package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/fanout/auth"
	"github.com/jonwraymond/fanout/detail"
	"github.com/jonwraymond/fanout/observe"
	"github.com/jonwraymond/fanout/resilience"
)

// HeaderAggregationID carries the aggregation ID of a detail response.
const HeaderAggregationID = "X-Aggregation-Id"

func (s *Server) getAppointmentDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appointment id must be a positive integer"})
		return
	}

	ctx := c.Request.Context()
	d, err := s.deps.Detail.GetAppointmentDetail(ctx, auth.IdentityFromGin(c), id)
	switch {
	case err == nil:
	case errors.Is(err, detail.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	case errors.Is(err, detail.ErrNoStaff):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "staff identity required"})
		return
	default:
		s.deps.Logger.Error(ctx, "appointment lookup failed",
			observe.F("appointment_id", id),
			observe.F("error", err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "appointment lookup failed"})
		return
	}

	c.Header(HeaderAggregationID, d.AggregationID)
	c.JSON(http.StatusOK, d)
}

// BreakerView is the JSON form of one dependency's protection state.
type BreakerView struct {
	Name        string     `json:"name"`
	State       string     `json:"state,omitempty"`
	Calls       int        `json:"calls"`
	Failures    int        `json:"failures"`
	FailureRate float64    `json:"failure_rate"`
	Rejected    int64      `json:"rejected"`
	RetryAt     *time.Time `json:"retry_at,omitempty"`
	Bulkhead    *Bulkhead  `json:"bulkhead,omitempty"`
	Tokens      *float64   `json:"tokens,omitempty"`
	Timeout     string     `json:"timeout,omitempty"`
}

// Bulkhead is the JSON form of a bulkhead's occupancy.
type Bulkhead struct {
	Active        int   `json:"active"`
	MaxConcurrent int   `json:"max_concurrent"`
	Rejected      int64 `json:"rejected"`
}

func breakerView(d resilience.DependencySnapshot) BreakerView {
	v := BreakerView{Name: d.Name, Tokens: d.Tokens}
	if b := d.Breaker; b != nil {
		v.State = b.State.String()
		v.Calls = b.Calls
		v.Failures = b.Failures
		v.FailureRate = b.FailureRate
		v.Rejected = b.Rejected
		if !b.RetryAt.IsZero() {
			retryAt := b.RetryAt
			v.RetryAt = &retryAt
		}
	}
	if bh := d.Bulkhead; bh != nil {
		v.Bulkhead = &Bulkhead{Active: bh.Active, MaxConcurrent: bh.MaxConcurrent, Rejected: bh.Rejected}
	}
	if d.Timeout > 0 {
		v.Timeout = d.Timeout.String()
	}
	return v
}

func (s *Server) listBreakers(c *gin.Context) {
	snapshot := s.deps.Registry.Snapshot()
	views := make([]BreakerView, 0, len(snapshot))
	for _, d := range snapshot {
		views = append(views, breakerView(d))
	}
	c.JSON(http.StatusOK, gin.H{"dependencies": views})
}

func (s *Server) resetBreaker(c *gin.Context) {
	name := c.Param("name")
	if err := s.deps.Registry.Reset(name); err != nil {
		if errors.Is(err, resilience.ErrUnknownDependency) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown dependency"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}

	ctx := c.Request.Context()
	staff := ""
	if id := auth.IdentityFromGin(c); id != nil {
		staff = id.StaffID
	}
	s.deps.Logger.Info(ctx, "circuit breaker reset", observe.F("dependency", name), observe.F("staff_id", staff))

	p, _ := s.deps.Registry.Lookup(name)
	state := ""
	if b := p.Breaker(); b != nil {
		state = b.State().String()
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "state": state})
}
