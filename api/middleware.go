package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if session := c.Param("id"); session != "" {
			fields["session_id"] = session
		}
		entry := logger.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.WithField("error", c.Errors.Last().Error()).Warn("Request failed")
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request failed")
		default:
			entry.Info("Request completed")
		}
	}
}

// A client idle this long has a full bucket again, so its limiter can go.
const clientIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	limit  rate.Limit
	burst  int
	logger *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	lastSweep time.Time
}

// NewClientRateLimiter allows perMinute requests per client, all of which may
// arrive at once.
func NewClientRateLimiter(perMinute int, logger *logrus.Logger) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &ClientRateLimiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		logger:    logger,
		now:       time.Now,
		limiters:  make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}
}

func (l *ClientRateLimiter) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= clientIdleTTL {
		l.evictIdle(now)
	}

	entry, ok := l.limiters[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (l *ClientRateLimiter) evictIdle(now time.Time) {
	for client, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= clientIdleTTL {
			delete(l.limiters, client)
		}
	}
	l.lastSweep = now
}

func (l *ClientRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.get(ip).Allow() {
			l.logger.WithFields(logrus.Fields{"ip": ip, "path": c.Request.URL.Path}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many payment requests, try again later"})
			return
		}
		c.Next()
	}
}
