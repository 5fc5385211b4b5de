// Package server exposes the class-group engine, the hash-to-group map and
// accumulator sessions over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/korthochain/classvdf/pkg/logger"
	"github.com/korthochain/classvdf/pkg/session"
	"github.com/korthochain/classvdf/pkg/storage/store/ldb"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errBadRequest = errors.New("bad request")
	errBadJSON    = errors.New("malformed request body")
)

type Config struct {
	Address string
	// RateLimit is the per-IP request rate; zero disables limiting.
	RateLimit float64
	RateBurst int
	// MaxIterations and MaxDiscriminantBits bound the work of one request.
	MaxIterations       uint64
	MaxDiscriminantBits int

	// Engine, Hasher and Sessions default to the native engine, a hasher
	// with default parameters and sessions kept in memory.
	Engine   classgroup.Engine
	Hasher   *hashtogroup.Hasher
	Sessions *session.Manager
	Logger   *zap.Logger
}

type Server struct {
	address       string
	maxIterations uint64
	maxBits       int

	engine   classgroup.Engine
	hasher   *hashtogroup.Hasher
	sessions *session.Manager
	limiter  *ipRateLimiter
	metrics  *metrics
	logger   *zap.Logger
	r        *fasthttprouter.Router
}

func NewServer(cfg Config) (*Server, error) {
	s := &Server{
		address:       cfg.Address,
		maxIterations: cfg.MaxIterations,
		maxBits:       cfg.MaxDiscriminantBits,
		engine:        cfg.Engine,
		hasher:        cfg.Hasher,
		sessions:      cfg.Sessions,
		metrics:       newMetrics(),
		logger:        logger.Named(cfg.Logger, "server"),
		r:             fasthttprouter.New(),
	}
	if s.engine == nil {
		s.engine = classgroup.New()
	}
	if s.hasher == nil {
		h, err := hashtogroup.NewHasher(s.engine, hashtogroup.DefaultParams(), hashtogroup.WithLogger(cfg.Logger))
		if err != nil {
			return nil, err
		}
		s.hasher = h
	}
	if s.sessions == nil {
		db, err := ldb.NewMemory()
		if err != nil {
			return nil, err
		}
		s.sessions = session.NewManager(session.Config{DB: db, Engine: s.engine, Logger: cfg.Logger})
	}
	if cfg.RateLimit > 0 {
		s.limiter = newIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.r.POST("/discriminant", s.handle("discriminant", s.createDiscriminant))
	s.r.POST("/hash", s.handle("hash", s.hash))
	s.r.POST("/evaluate", s.handle("evaluate", s.evaluate))
	s.r.POST("/verify", s.handle("verify", s.verify))
	s.r.POST("/sessions", s.handle("session_create", s.createSession))
	s.r.GET("/sessions", s.handle("session_list", s.listSessions))
	s.r.GET("/sessions/:id", s.handle("session_get", s.getSession))
	s.r.POST("/sessions/:id/fold", s.handle("session_fold", s.foldSession))
	s.r.POST("/sessions/:id/prove", s.handle("session_prove", s.proveSession))
	s.r.POST("/sessions/:id/verify", s.handle("session_verify", s.verifySession))
	s.r.DELETE("/sessions/:id", s.handle("session_delete", s.deleteSession))
	s.r.GET("/metrics", s.metrics.handler())
	return s, nil
}

// Handler is the root request handler, rate limiting included.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.ipInterceptor(s.r.Handler)
}

func (s *Server) RunServer() error {
	s.logger.Info("listening", zap.String("address", s.address))
	if err := fasthttp.ListenAndServe(s.address, s.Handler()); err != nil {
		s.logger.Error("failed to listen port", zap.Error(err), zap.String("port", s.address))
		return err
	}
	return nil
}

type handlerFunc func(ctx *fasthttp.RequestCtx) (interface{}, error)

// handle wraps fn with the JSON envelope, logging and metrics.
func (s *Server) handle(op string, fn handlerFunc) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")

		result, err := fn(ctx)
		s.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		s.metrics.ops.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
		if err != nil {
			status, code := errorStatus(err)
			if status == http.StatusInternalServerError {
				s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
			} else {
				s.logger.Debug("request rejected", zap.String("op", op), zap.Error(err))
			}
			s.metrics.requests.WithLabelValues(string(ctx.Path()), strconv.Itoa(status)).Inc()
			writeResult(ctx, status, code, err.Error(), nil)
			return
		}
		s.metrics.requests.WithLabelValues(string(ctx.Path()), strconv.Itoa(http.StatusOK)).Inc()
		writeResult(ctx, http.StatusOK, Success, "ok", result)
	}
}

func decodeBody(ctx *fasthttp.RequestCtx, v interface{}) error {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

func (s *Server) checkIterations(iterations uint64) error {
	if iterations == 0 {
		return fmt.Errorf("%w: iterations must be positive", errBadRequest)
	}
	if s.maxIterations > 0 && iterations > s.maxIterations {
		return fmt.Errorf("%w: iterations above %d", errBadRequest, s.maxIterations)
	}
	return nil
}

func (s *Server) discriminant(raw []byte) (*classgroup.Discriminant, error) {
	if s.maxBits > 0 && 8*len(raw) > s.maxBits {
		return nil, fmt.Errorf("%w: discriminant above %d bits", errBadRequest, s.maxBits)
	}
	return classgroup.NewDiscriminant(raw)
}
