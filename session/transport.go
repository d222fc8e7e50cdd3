// session/transport.go
package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-api-http-session/headers"
	"github.com/deploymenttheory/go-api-http-session/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestState is where a request is in the 401 recovery cycle.
type RequestState int

const (
	StateSent RequestState = iota
	StateRefreshing
	StateRetried
	StateDone
)

func (s RequestState) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateRefreshing:
		return "refreshing"
	case StateRetried:
		return "retried"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// PendingRequest is a snapshot of a request travelling through the Transport.
type PendingRequest struct {
	ID        string
	Method    string
	URL       string
	State     RequestState
	Retried   bool
	StartedAt time.Time
}

// Transport is an http.RoundTripper that secures every request with the Guard's credential and,
// on a 401, refreshes the credential once and replays the request. Requests whose context carries
// the retry marker are secured but never replayed.
type Transport struct {
	Guard *Guard
	// Base sends the requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper
	// OnStateChange, when set, observes every state transition.
	OnStateChange func(PendingRequest)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) transition(p *PendingRequest, s RequestState) {
	p.State = s
	if t.OnStateChange != nil {
		t.OnStateChange(*p)
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := t.Guard.log
	pending := &PendingRequest{
		ID:        uuid.NewString(),
		Method:    req.Method,
		URL:       req.URL.String(),
		StartedAt: time.Now(),
	}
	retryable := !IsRetryAttempt(req.Context())

	body, getBody, err := replayableBody(req, retryable)
	if err != nil {
		return nil, err
	}

	t.transition(pending, StateSent)
	resp, sentToken, err := t.send(req.Context(), req, body, getBody, pending)

	kind := status.Classify(resp, err)
	// A host that never received the credential cannot have rejected it.
	if kind != status.Unauthorized || !retryable || !t.Guard.securesHost(req.URL) {
		t.logOutcome(pending, kind, resp, err)
		t.transition(pending, StateDone)
		return resp, err
	}

	t.transition(pending, StateRefreshing)
	log.LogRetryAttempt("session_refresh", pending.Method, pending.URL, 1, "401 Unauthorized", 0, nil)

	// Another request may have refreshed while this one was in flight.
	if current := t.Guard.GetToken(req.Context()); sentToken != "" && current != "" && current != sentToken {
		log.Debug("Credential changed while request was in flight, retrying without refresh", zap.String("request_id", pending.ID))
	} else if _, rerr := t.Guard.Refresh(req.Context()); rerr != nil {
		log.LogAuthTokenError("session_refresh", pending.Method, pending.URL, resp.StatusCode, rerr)
		t.transition(pending, StateDone)
		return resp, nil
	}

	var retryBody io.ReadCloser
	if getBody != nil {
		if retryBody, err = getBody(); err != nil {
			log.Warn("Request body cannot be replayed, returning original response", zap.String("request_id", pending.ID), zap.Error(err))
			t.transition(pending, StateDone)
			return resp, nil
		}
	} else if body != nil && body != http.NoBody {
		log.Warn("Request body cannot be replayed, returning original response", zap.String("request_id", pending.ID))
		t.transition(pending, StateDone)
		return resp, nil
	}

	drainAndClose(resp.Body)

	log.Info("Retrying previous request.", zap.String("request_id", pending.ID), zap.String("url", pending.URL))
	pending.Retried = true
	t.transition(pending, StateRetried)

	resp, _, err = t.send(WithRetryAttempt(req.Context()), req, retryBody, getBody, pending)
	t.logOutcome(pending, status.Classify(resp, err), resp, err)
	t.transition(pending, StateDone)
	return resp, err
}

// send clones req onto ctx with the given body, secures it and hands it to the base transport.
// It also returns the credential attached, "" when none.
func (t *Transport) send(ctx context.Context, req *http.Request, body io.ReadCloser, getBody func() (io.ReadCloser, error), pending *PendingRequest) (*http.Response, string, error) {
	out := req.Clone(ctx)
	out.Body = body
	if getBody != nil {
		out.GetBody = getBody
	}
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	var token string
	if t.Guard.securesHost(out.URL) {
		token = t.Guard.secure(out)
	}

	log := t.Guard.log
	log.LogRequestStart("session_request", pending.ID, out.Method, pending.URL, headers.RedactedHeaders(out.Header, t.Guard.hideSensitiveData))
	start := time.Now()

	resp, err := t.base().RoundTrip(out)

	code := 0
	if resp != nil {
		code = resp.StatusCode
		headers.CheckDeprecationHeader(resp, log)
	}
	log.LogRequestEnd("session_request", pending.ID, out.Method, pending.URL, code, time.Since(start))
	return resp, token, err
}

// logOutcome writes the diagnostic line for anything that is not a success.
func (t *Transport) logOutcome(p *PendingRequest, kind status.Kind, resp *http.Response, err error) {
	if kind == status.OK {
		return
	}

	fields := []zap.Field{
		zap.String("request_id", p.ID),
		zap.String("method", p.Method),
		zap.String("url", p.URL),
		zap.String("kind", kind.String()),
		zap.Bool("retried", p.Retried),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status_code", resp.StatusCode), zap.String("status_message", status.TranslateStatusCode(resp)))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	t.Guard.log.Warn(kind.LogMessage(), fields...)
}

// replayableBody returns the body for the first send and, when the request may need a replay,
// a function producing fresh copies. Bodies without GetBody are buffered in memory.
func replayableBody(req *http.Request, retryable bool) (io.ReadCloser, func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil, nil
	}
	if !retryable || req.GetBody != nil {
		return req.Body, req.GetBody, nil
	}

	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	getBody := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	first, _ := getBody()
	return first, getBody, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}
