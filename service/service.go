package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/arloliu/tracedsvc"
	tracedhttp "github.com/arloliu/tracedsvc/http"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/arloliu/tracedsvc/service"

// maxUserBytes bounds the POST /createUser body.
const maxUserBytes = 1 << 20

// EventPublisher publishes a user-created event.
type EventPublisher interface {
	PublishEvent(ctx context.Context, data []byte) error
}

// Service is the traced demo HTTP service.
type Service struct {
	cfg    tracedsvc.ServiceConfig
	tel    *tracedsvc.Telemetry
	logger *zap.Logger

	rest    *resty.Client
	relay   *Relay
	events  EventPublisher
	handler http.Handler
}

// Option configures a Service.
type Option func(*Service)

// WithEventPublisher publishes every relayed user to p as well.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithRESTClient replaces the outbound client. The client must send through
// a traced transport for outbound calls to produce client spans.
func WithRESTClient(c *resty.Client) Option {
	return func(s *Service) {
		s.rest = c
	}
}

// New builds the service. Spans, metrics and propagation all go through tel;
// nothing is read from OTel globals.
func New(cfg tracedsvc.ServiceConfig, tel *tracedsvc.Telemetry, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:    cfg,
		tel:    tel,
		logger: logger,
		relay:  NewRelay(tel, logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rest == nil {
		s.rest = tracedhttp.NewRESTClient(tel,
			tracedhttp.WithTimeout(cfg.ClientTimeout),
			tracedhttp.WithDialTimeout(cfg.DialTimeout),
			tracedhttp.WithTLSHandshakeTimeout(cfg.TLSHandshakeTimeout),
			tracedhttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
			tracedhttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
			tracedhttp.WithMaxConnsPerHost(cfg.MaxConnsPerHost),
			tracedhttp.WithMaxIdleConnsPerHost(maxIdleConnsPerHost(cfg.MaxClientSpans)),
		).SetLogger(logger.Sugar())
	}

	s.handler = s.routes()

	return s
}

// Handler returns the traced root handler.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Relay returns the tracker of detached outbound calls.
func (s *Service) Relay() *Relay {
	return s.relay
}

// routes registers the demo routes under the configured prefix and wraps the
// whole router, so unmatched requests get a server span too.
func (s *Service) routes() http.Handler {
	router := mux.NewRouter()

	metrics := s.tel.MetricsHandler()
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	api := router
	if prefix := strings.TrimRight(s.cfg.PathPrefix, "/"); prefix != "" {
		api = router.PathPrefix(prefix).Subrouter()
	}
	api.HandleFunc("/hello", s.hello).Methods(http.MethodGet)
	api.HandleFunc("/createUser", s.createUser).Methods(http.MethodPost)
	api.HandleFunc("/clientSpans", s.clientSpans).Methods(http.MethodGet)

	router.Use(tracedhttp.Route(routeTemplate))

	return tracedhttp.Middleware(s.tel)(router)
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}

	return tpl
}

// maxIdleConnsPerHost keeps idle connections for a full /clientSpans fan-out.
func maxIdleConnsPerHost(maxClientSpans int) int {
	if maxClientSpans <= 0 {
		return 0
	}

	return min(maxClientSpans, 100)
}
