package api

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/btcutil/base58"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Request headers.
const (
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
	HeaderRequestID = "X-Request-ID"
)

const (
	ctxRequestID = "request_id"
	ctxSigner    = "signer"
	ctxBody      = "body"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency on the global meter.
func MetricsMiddleware() gin.HandlerFunc {
	meter := otel.Meter("hypernode/api")
	requests, _ := meter.Int64Counter(
		"hypernode.api.requests",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)
	latency, _ := meter.Float64Histogram(
		"hypernode.api.duration",
		metric.WithDescription("API request processing time"),
		metric.WithUnit("ms"),
	)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.route", route),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.status", strconv.Itoa(c.Writer.Status())),
		)
		if requests != nil {
			requests.Add(c.Request.Context(), 1, attrs)
		}
		if latency != nil {
			latency.Record(c.Request.Context(), float64(time.Since(start).Microseconds())/1000, attrs)
		}
	}
}

// SignedTxMiddleware authenticates a mutating request. It resolves the
// signer, bounds the body by the maximum transaction size, checks that the
// request timestamp is recent, verifies the ed25519 signature over the
// canonical request when verification is required and applies the
// per-signer rate limit.
func (s *Server) SignedTxMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderSigner)
		if raw == "" {
			s.fail(c, types.InputError(types.ErrMissingSigner, "%s header is required", HeaderSigner))
			return
		}
		signer, err := types.ParsePublicKey(raw)
		if err != nil {
			s.fail(c, err)
			return
		}

		limit := s.protocol.Security.MaxTransactionSize
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
		if err != nil {
			s.fail(c, malformed("failed to read request body: %v", err))
			return
		}
		if err := types.ValidateTransactionSize(s.protocol, int64(len(body))); err != nil {
			s.fail(c, err)
			return
		}

		if s.protocol.Security.RequireSignerVerification {
			timestamp, err := strconv.ParseInt(c.GetHeader(HeaderTimestamp), 10, 64)
			if err != nil {
				s.fail(c, types.InputError(types.ErrTimestampOutOfRange, "%s header must be unix seconds", HeaderTimestamp))
				return
			}
			if err := types.ValidateRecentTimestamp(time.Unix(timestamp, 0), s.now()); err != nil {
				s.fail(c, err)
				return
			}
			sig := base58.Decode(c.GetHeader(HeaderSignature))
			msg := CanonicalRequest(c.Request.Method, c.Request.URL.Path, timestamp, body)
			if !signer.Verify(msg, sig) {
				s.fail(c, types.InputError(types.ErrInvalidSignature, "signature does not match %s", signer))
				return
			}
		}

		if !s.limiter.allow(signer) {
			s.fail(c, types.InputError(types.ErrRateLimited, "signer %s exceeded %d requests per minute", signer, s.protocol.Security.RateLimit))
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(ctxSigner, signer)
		c.Set(ctxBody, body)
		c.Next()
	}
}

// signerLimiter keeps one token bucket per signer. The configured limit is
// requests per minute, with a burst of the same size.
type signerLimiter struct {
	mu       sync.Mutex
	perMin   int64
	limiters map[types.PublicKey]*rate.Limiter
}

func newSignerLimiter(perMinute int64) *signerLimiter {
	return &signerLimiter{
		perMin:   perMinute,
		limiters: make(map[types.PublicKey]*rate.Limiter),
	}
}

func (l *signerLimiter) allow(signer types.PublicKey) bool {
	if l.perMin <= 0 {
		return true
	}
	l.mu.Lock()
	limiter, ok := l.limiters[signer]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), int(l.perMin))
		l.limiters[signer] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

func signerFrom(c *gin.Context) types.PublicKey {
	v, _ := c.Get(ctxSigner)
	pk, _ := v.(types.PublicKey)
	return pk
}

// CanonicalRequest is the message a request signature covers: method,
// path, unix timestamp and raw body joined by newlines.
func CanonicalRequest(method, path string, timestamp int64, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(body)+24)
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '\n')
	return append(msg, body...)
}

// SignRequest signs a request for the X-Signature header.
func SignRequest(sign func([]byte) []byte, method, path string, timestamp int64, body []byte) string {
	return base58.Encode(sign(CanonicalRequest(method, path, timestamp, body)))
}
