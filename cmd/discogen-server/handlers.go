package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"discogen/internal/audit"
	"discogen/internal/codegen"
	"discogen/internal/config"
	"discogen/internal/discovery"
	"discogen/internal/metrics"
	"discogen/internal/ratelimit"
	"discogen/internal/verify"
)

type server struct {
	cfg       *config.Config
	logger    *slog.Logger
	directory *discovery.Directory
	fetcher   *discovery.Fetcher
	collector *metrics.Collector
	auditLog  *audit.Logger       // nil when audit_db is unset
	limits    *ratelimit.Registry // nil when rate limiting is off
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /v1/{module}", s.handleGenerate)
	return mux
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	fmt.Fprint(w, s.collector.PrometheusFormat())
}

// parseModulePath splits "{api}:{version}[.ts]" into its parts.
func parseModulePath(module string) (api, version string, ok bool) {
	module = strings.TrimSuffix(module, ".ts")
	api, version, found := strings.Cut(module, ":")
	if !found || api == "" || version == "" {
		return "", "", false
	}
	return api, version, true
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	api, version, ok := parseModulePath(r.PathValue("module"))
	if !ok {
		http.Error(w, "expected /v1/{api}:{version}.ts", http.StatusBadRequest)
		return
	}

	clientAddr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		clientAddr = host
	}

	if s.limits != nil {
		if err := s.limits.Allow(clientAddr); err != nil {
			var limited *ratelimit.ErrRateLimited
			if errors.As(err, &limited) {
				w.Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())+1))
			}
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
	}

	module, err := s.generate(r, api, version)

	success := err == nil
	duration := time.Since(start)
	s.collector.RecordGeneration(api+":"+version, duration, success)
	if s.auditLog != nil {
		event := audit.Event{
			API:        api,
			Version:    version,
			ClientAddr: clientAddr,
			DurationMs: duration.Milliseconds(),
			OutputSize: int64(len(module)),
			Success:    success,
		}
		if err != nil {
			event.ErrorMsg = err.Error()
		}
		s.auditLog.Record(event)
	}

	if err != nil {
		var notFound *discovery.ErrNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("generation failed", "api", api, "version", version, "error", err)
		http.Error(w, "generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("generated module",
		"api", api, "version", version, "bytes", len(module), "duration_ms", duration.Milliseconds())

	// Browsers get plain text so the module renders inline; everyone
	// else gets the real media type.
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/typescript; charset=utf-8")
	}
	fmt.Fprint(w, module)
}

func (s *server) generate(r *http.Request, api, version string) (string, error) {
	ctx := r.Context()

	item, err := s.directory.Resolve(ctx, api, version)
	if err != nil {
		return "", err
	}

	raw, err := s.fetcher.Fetch(ctx, item.DiscoveryRestURL)
	if err != nil {
		return "", err
	}
	if err := discovery.ValidateDocument(raw); err != nil {
		return "", err
	}
	doc, err := discovery.ParseDocument(raw)
	if err != nil {
		return "", err
	}

	gen, err := codegen.New(doc, s.selfURL(r, api, version))
	if err != nil {
		return "", err
	}
	module, err := gen.Generate()
	if err != nil {
		return "", err
	}

	if s.cfg.VerifyOutput {
		if err := verify.Module(module); err != nil {
			return "", fmt.Errorf("output verification: %w", err)
		}
	}
	return module, nil
}

// selfURL is the canonical source URL embedded in the module header.
func (s *server) selfURL(r *http.Request, api, version string) string {
	base := s.cfg.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/v1/" + api + ":" + version + ".ts"
}
