// internal/web/handlers.go
package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"pingwatch/internal/history"
	"pingwatch/internal/probe"
	"pingwatch/internal/stats"
)

// HostView is the API representation of a host and its derived status.
type HostView struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Address             string              `json:"address"`
	State               stats.State         `json:"state"`
	AlarmActive         bool                `json:"alarm_active"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	UptimePct           float64             `json:"uptime_pct"`
	LossPct             float64             `json:"loss_pct"`
	Latency             *stats.LatencyStats `json:"latency,omitempty"`
	Samples             int                 `json:"samples"`
	LastMethod          probe.Method        `json:"last_method,omitempty"`
	LastSeen            time.Time           `json:"last_seen,omitempty"`
	Trend               []TrendPoint        `json:"trend"`
}

// TrendPoint is one recent sample for the dashboard sparkline. LatencyMS
// is null for failed probes so the chart can show gaps.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	LatencyMS *float64  `json:"latency_ms"`
}

const trendSamples = 60

func (s *Server) getHosts(c *gin.Context) {
	snapshots := s.core.ListHosts()

	response := make([]HostView, 0, len(snapshots))
	for _, snap := range snapshots {
		view, err := s.hostView(snap.Host.ID)
		if err != nil {
			logrus.WithError(err).WithField("host", snap.Host.Name).Error("Failed to build host view")
			continue
		}
		response = append(response, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  response,
		"count": len(response),
	})
}

func (s *Server) getHost(c *gin.Context) {
	id := c.Param("id")

	view, err := s.hostView(id)
	if err != nil {
		if errors.Is(err, history.ErrUnknownHost) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Host not found"})
			return
		}
		logrus.WithError(err).Error("Failed to get host")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get host"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) getHostHistory(c *gin.Context) {
	id := c.Param("id")

	lastN := 0
	if raw := c.Query("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid last parameter"})
			return
		}
		lastN = n
	}

	window, err := s.core.History(id, lastN)
	if err != nil {
		if errors.Is(err, history.ErrUnknownHost) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Host not found"})
			return
		}
		logrus.WithError(err).Error("Failed to get host history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get host history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  window,
		"count": len(window),
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"hosts":     len(s.core.Hosts()),
	})
}

func (s *Server) hostView(id string) (HostView, error) {
	host, ok := s.core.Host(id)
	if !ok {
		return HostView{}, history.ErrUnknownHost
	}

	status, err := s.core.Status(id)
	if err != nil {
		return HostView{}, err
	}

	window, err := s.core.History(id, trendSamples)
	if err != nil {
		return HostView{}, err
	}

	trend := make([]TrendPoint, 0, len(window))
	for _, outcome := range window {
		point := TrendPoint{Timestamp: outcome.Timestamp}
		if outcome.Success {
			latency := outcome.LatencyMS
			point.LatencyMS = &latency
		}
		trend = append(trend, point)
	}

	return HostView{
		ID:                  host.ID,
		Name:                host.Name,
		Address:             host.Address,
		State:               status.State,
		AlarmActive:         status.AlarmActive,
		ConsecutiveFailures: status.ConsecutiveFailures,
		UptimePct:           status.UptimePct,
		LossPct:             status.LossPct,
		Latency:             status.Latency,
		Samples:             status.Samples,
		LastMethod:          status.LastMethod,
		LastSeen:            status.LastSeen,
		Trend:               trend,
	}, nil
}
