// Package probe replays the service endpoints against a running instance.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/tracedsvc"
	tracedhttp "github.com/arloliu/tracedsvc/http"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/arloliu/tracedsvc/internal/probe"

// Scenario names a sequence of endpoint calls made in one probe round.
type Scenario string

const (
	ScenarioHello       Scenario = "hello"
	ScenarioCreateUser  Scenario = "createUser"
	ScenarioClientSpans Scenario = "clientSpans"
	ScenarioAll         Scenario = "all"
)

// Scenarios lists the known scenarios with a short description.
var Scenarios = []struct {
	Name        Scenario
	Description string
}{
	{ScenarioHello, "GET /hello"},
	{ScenarioCreateUser, "POST /createUser with a generated user"},
	{ScenarioClientSpans, "GET /clientSpans?n=<client-spans>"},
	{ScenarioAll, "every endpoint in turn"},
}

var (
	ErrUnknownScenario = errors.New("probe: unknown scenario")
	ErrBaseURLRequired = errors.New("probe: base URL is required")
)

// Config holds probe configuration.
type Config struct {
	BaseURL     string
	Scenario    Scenario
	ClientSpans int
	Timeout     time.Duration

	// Quick mode
	Count int

	// Continuous mode
	Duration  time.Duration
	Rate      float64
	JitterPct int
}

// Probe sends scenario rounds through a traced client. Every round is a
// root span, so the service's server spans become its grandchildren.
type Probe struct {
	cfg    Config
	tracer *tracedsvc.Tracer
	rest   *resty.Client
	logger *zap.Logger
	steps  []step
}

type step struct {
	name string
	call func(ctx context.Context, round int) (*resty.Response, error)
}

// New creates a Probe reporting through tel.
func New(cfg Config, tel *tracedsvc.Telemetry, logger *zap.Logger) (*Probe, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Probe{
		cfg:    cfg,
		tracer: tel.Tracer(instrumentationName),
		rest: tracedhttp.NewRESTClient(tel, tracedhttp.WithTimeout(cfg.Timeout)).
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		logger: logger,
	}

	steps, err := p.buildSteps(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	p.steps = steps

	return p, nil
}

func (p *Probe) buildSteps(s Scenario) ([]step, error) {
	hello := step{name: "hello", call: func(ctx context.Context, _ int) (*resty.Response, error) {
		return p.rest.R().SetContext(ctx).Get("/hello")
	}}
	createUser := step{name: "createUser", call: func(ctx context.Context, round int) (*resty.Response, error) {
		body, err := sonic.Marshal(map[string]any{
			"name":  "probe-" + strconv.Itoa(round),
			"email": fmt.Sprintf("probe-%d@example.com", round),
		})
		if err != nil {
			return nil, fmt.Errorf("encode user: %w", err)
		}

		return p.rest.R().SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post("/createUser")
	}}
	clientSpans := step{name: "clientSpans", call: func(ctx context.Context, _ int) (*resty.Response, error) {
		return p.rest.R().SetContext(ctx).
			SetQueryParam("n", strconv.Itoa(p.cfg.ClientSpans)).
			Get("/clientSpans")
	}}

	switch s {
	case ScenarioHello:
		return []step{hello}, nil
	case ScenarioCreateUser:
		return []step{createUser}, nil
	case ScenarioClientSpans:
		return []step{clientSpans}, nil
	case ScenarioAll, "":
		return []step{hello, createUser, clientSpans}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, s)
	}
}

// Round runs every step of the scenario once inside a root span and tags the
// outbound calls with the round number as baggage.
func (p *Probe) Round(ctx context.Context, round int) error {
	ctx, span := p.tracer.Start(ctx, "probe "+string(p.scenario()))
	defer span.End()
	tracedsvc.SetAttributes(ctx, attribute.Int("probe.round", round))

	// The round number travels as baggage, so the service's logs for this
	// round carry it too.
	if bctx, err := tracedsvc.SetBaggage(ctx, "probe.round", strconv.Itoa(round)); err == nil {
		ctx = bctx
	}

	for _, st := range p.steps {
		resp, err := st.call(ctx, round)
		if err != nil {
			err = fmt.Errorf("%s: %w", st.name, err)
			tracedsvc.RecordError(ctx, err)

			return err
		}
		if !resp.IsSuccess() {
			err := fmt.Errorf("%s: unexpected status %d", st.name, resp.StatusCode())
			tracedsvc.RecordError(ctx, err)

			return err
		}

		p.logger.Debug("probe step done",
			append(tracedsvc.LogFields(ctx),
				zap.String("step", st.name),
				zap.Int("status", resp.StatusCode()),
				zap.String("body", resp.String()),
			)...,
		)
	}
	tracedsvc.SetSuccess(ctx)

	return nil
}

// RunQuick runs Count rounds back to back and returns how many completed.
func (p *Probe) RunQuick(ctx context.Context) (int, error) {
	for i := range p.cfg.Count {
		if ctx.Err() != nil {
			return i, nil
		}
		if err := p.Round(ctx, i+1); err != nil {
			return i, fmt.Errorf("round %d: %w", i+1, err)
		}
	}

	return p.cfg.Count, nil
}

// RunContinuous runs rounds at Rate per second until Duration elapses or ctx
// is done. Failed rounds are logged and skipped.
func (p *Probe) RunContinuous(ctx context.Context) (int, error) {
	if p.cfg.Rate <= 0 {
		return 0, fmt.Errorf("probe: rate must be positive, got %v", p.cfg.Rate)
	}

	interval := time.Duration(float64(time.Second) / p.cfg.Rate)
	deadline := time.Now().Add(p.cfg.Duration)
	timer := time.NewTimer(p.applyJitter(interval))
	defer timer.Stop()

	rounds := 0
	for {
		select {
		case <-ctx.Done():
			return rounds, nil
		case <-timer.C:
			if time.Now().After(deadline) {
				return rounds, nil
			}

			if err := p.Round(ctx, rounds+1); err != nil {
				p.logger.Warn("probe round failed", zap.Int("round", rounds+1), zap.Error(err))
			} else {
				rounds++
			}
			timer.Reset(p.applyJitter(interval))
		}
	}
}

func (p *Probe) scenario() Scenario {
	if p.cfg.Scenario == "" {
		return ScenarioAll
	}

	return p.cfg.Scenario
}

// applyJitter adds random timing variation to a duration.
func (p *Probe) applyJitter(d time.Duration) time.Duration {
	if p.cfg.JitterPct <= 0 {
		return d
	}
	jitter := float64(d) * float64(p.cfg.JitterPct) / 100.0
	offset := (rand.Float64() * 2 * jitter) - jitter //nolint:gosec // weak rand is fine for jitter

	return d + time.Duration(offset)
}
