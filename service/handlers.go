package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/arloliu/tracedsvc"
	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	errNotObject   = errors.New("request body must be a JSON object")
	errInvalidN    = errors.New("n must be a non-negative integer")
	errTooManyCall = errors.New("n exceeds the maximum number of client spans")
)

// hello serves GET /hello.
func (s *Service) hello(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.cfg.Greeting)
}

// createUser serves POST /createUser. The user JSON is relayed to the users
// service in a detached call; the response does not wait for it.
func (s *Service) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUserBytes))
	if err != nil {
		tracedsvc.RecordError(ctx, err)
		writeText(w, http.StatusBadRequest, "invalid request body")

		return
	}

	var user map[string]any
	if err := sonic.Unmarshal(body, &user); err != nil || user == nil {
		tracedsvc.RecordError(ctx, errNotObject)
		writeText(w, http.StatusBadRequest, errNotObject.Error())

		return
	}

	tracedsvc.SetAttributes(ctx, attribute.Int("user.fields", len(user)))
	s.logger.Info("user created", tracedsvc.LogFields(ctx)...)

	s.relay.Go(ctx, "createUser", func(ctx context.Context) error {
		return s.relayUser(ctx, body)
	})

	writeText(w, http.StatusOK, "Users created!")
}

// relayUser posts the raw user JSON downstream and publishes the user event.
func (s *Service) relayUser(ctx context.Context, body []byte) error {
	if s.events != nil {
		if err := s.events.PublishEvent(ctx, body); err != nil {
			s.logger.Warn("publish user event", append(tracedsvc.LogFields(ctx), zap.Error(err))...)
		}
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.cfg.UsersURL)
	if err != nil {
		return fmt.Errorf("post user to %s: %w", s.cfg.UsersURL, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("post user to %s: unexpected status %d", s.cfg.UsersURL, resp.StatusCode())
	}

	s.logger.Info("got successful response",
		append(tracedsvc.LogFields(ctx), zap.Int("status", resp.StatusCode()))...,
	)

	return nil
}

// clientSpans serves GET /clientSpans?n=<count>. It fires n detached GET
// calls at the configured target and responds before any of them complete.
func (s *Service) clientSpans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := parseCount(r.URL.Query().Get("n"), s.cfg.MaxClientSpans)
	if err != nil {
		tracedsvc.RecordError(ctx, err)
		writeText(w, http.StatusBadRequest, err.Error())

		return
	}

	tracedsvc.SetAttributes(ctx, attribute.Int("client_spans.count", n))

	url := s.cfg.ClientSpansURL
	for i := range n {
		s.relay.Go(ctx, "clientSpans", func(ctx context.Context) error {
			return s.fetch(ctx, i, url)
		})
	}

	writeText(w, http.StatusOK, fmt.Sprintf("%d requests to %s", n, url))
}

// fetch issues one GET with the configured payload as its body.
func (s *Service) fetch(ctx context.Context, index int, url string) error {
	resp, err := s.rest.R().
		SetContext(ctx).
		SetBody(s.cfg.ClientSpansPayload).
		Get(url)
	if err != nil {
		return fmt.Errorf("request %d to %s: %w", index, url, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("request %d to %s: unexpected status %d", index, url, resp.StatusCode())
	}

	s.logger.Debug("client span request done",
		append(tracedsvc.LogFields(ctx), zap.Int("index", index), zap.Int("status", resp.StatusCode()))...,
	)

	return nil
}

// parseCount parses the n query parameter. A missing value counts as zero.
func parseCount(raw string, limit int) (int, error) {
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errInvalidN
	}
	if limit > 0 && n > limit {
		return 0, fmt.Errorf("%w (%d)", errTooManyCall, limit)
	}

	return n, nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
