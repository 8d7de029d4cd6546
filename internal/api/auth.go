package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"mentorship/internal/config"
	"mentorship/internal/models"
)

const (
	permReadMentors  = "read:mentors"
	permReadBookings = "read:bookings"
	permBook         = "write:bookings"
	permAdmin        = "admin"
	clientKeyUnknown = "unknown"
)

var (
	errMissingAPIKey    = errors.New("missing api key header")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
	errMissingIdentity  = errors.New("missing or invalid caller identity")
)

type actorKey struct{}

// HTTPAuth guards the link to the upstream gateway: API keys, per-route
// permissions and per-key rate limiting. Caller identity is forwarded by the
// gateway in headers and read by RequireActor.
type HTTPAuth struct {
	cfg     config.APIAuthConfig
	clients []config.APIClientKey
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg.Auth,
		clients: cfg.Auth.APIKeys,
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Enabled {
			if err := a.checkAuth(r); err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					status = http.StatusForbidden
				}
				writeError(w, r, status, err.Error())
				return
			}
		}

		if !a.limiter.allow(a.clientKey(r)) {
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.cfg.HeaderAPIKey))
	if apiKey == "" {
		return errMissingAPIKey
	}

	client, ok := a.lookup(apiKey)
	if !ok {
		return errInvalidAPIKey
	}
	return checkPermissions(client, r)
}

func (a *HTTPAuth) lookup(apiKey string) (config.APIClientKey, bool) {
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(apiKey)) == 1 {
			return c, true
		}
	}
	return config.APIClientKey{}, false
}

// An empty permission list allows everything.
func checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/admin"):
		return permAdmin
	case strings.HasPrefix(path, "/mentors") && strings.HasSuffix(path, "/bookings"):
		return permAdmin
	case strings.HasPrefix(path, "/mentors"):
		return permReadMentors
	case strings.HasPrefix(path, "/bookings"):
		if r.Method == http.MethodGet {
			return permReadBookings
		}
		return permBook
	default:
		return ""
	}
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.cfg.HeaderAPIKey)); apiKey != "" {
		return apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

// RequireActor rejects requests without a usable identity and stores the
// caller in the request context.
func (a *HTTPAuth) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.actorFromHeaders(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// RequireAdmin must run after RequireActor.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.IsAdmin() {
			writeError(w, r, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) actorFromHeaders(r *http.Request) (models.Actor, error) {
	rawID := strings.TrimSpace(r.Header.Get(a.cfg.HeaderUserID))
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return models.Actor{}, errMissingIdentity
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(a.cfg.HeaderRole))))
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleMentor, models.RoleAdmin:
	default:
		return models.Actor{}, errMissingIdentity
	}
	return models.Actor{ID: id, Role: role}, nil
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	return actor, ok
}
