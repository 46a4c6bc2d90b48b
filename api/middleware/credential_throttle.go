package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/filmex-backend/api/responses"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
)

const maxThrottledBody = 64 << 10

type attemptCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ThrottlePolicy caps credential attempts on one storefront surface, login
// or register, per caller address and per submitted email. A zero limit
// disables that dimension.
type ThrottlePolicy struct {
	Surface  string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

type throttleCheck struct {
	dimension string
	subject   string
	limit     int
}

func (p ThrottlePolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

func (p ThrottlePolicy) surface() string {
	if s := strings.ToLower(strings.TrimSpace(p.Surface)); s != "" {
		return s
	}
	return "credentials"
}

func (p ThrottlePolicy) key(c throttleCheck) string {
	return fmt.Sprintf("%s:%s:%s", p.surface(), c.dimension, c.subject)
}

// checks lists the counters a request must pass. Emails are hashed so raw
// addresses never reach the counter store or the logs.
func (p ThrottlePolicy) checks(r *http.Request) ([]throttleCheck, error) {
	var out []throttleCheck
	if p.PerIP > 0 {
		if ip := remoteAddress(r); ip != "" {
			out = append(out, throttleCheck{dimension: "ip", subject: ip, limit: p.PerIP})
		}
	}
	if p.PerEmail > 0 {
		email, err := peekEmail(r)
		if err != nil {
			return nil, err
		}
		if email != "" {
			out = append(out, throttleCheck{dimension: "email", subject: digest(email), limit: p.PerEmail})
		}
	}
	return out, nil
}

// CredentialThrottle rejects login and register attempts over the policy
// limits with 429. Without a counter the handler is returned untouched.
func CredentialThrottle(policy ThrottlePolicy, counter attemptCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || counter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checks(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			for _, check := range checks {
				allowed, attempts, err := counter.FixedWindowAllow(ctx, policy.key(check), int64(check.limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attempt counter"))
					return
				}
				if !allowed {
					logThrottled(ctx, logg, policy, check, attempts)
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func logThrottled(ctx context.Context, logg *logger.Logger, policy ThrottlePolicy, check throttleCheck, attempts int64) {
	if logg == nil {
		return
	}
	subjectField := "ip"
	if check.dimension == "email" {
		subjectField = "email_digest"
	}
	logg.Warn(logg.WithFields(ctx, map[string]any{
		"surface":        policy.surface(),
		"dimension":      check.dimension,
		subjectField:     check.subject,
		"attempts":       attempts,
		"limit":          check.limit,
		"window_seconds": int(policy.Window.Seconds()),
	}), "credential attempts throttled")
}

// peekEmail reads the email field and puts the body back for the handler.
func peekEmail(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(body.Email)), nil
}

func remoteAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
