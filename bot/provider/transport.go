// Package provider implements the parser-api.com clients for registration
// history, compulsory insurance and inspection lookups.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

const (
	maxResponseSizeBytes = 2 << 20
	logBodyLimit         = 500
	maxUpstreamMessage   = 200
)

type transport struct {
	name       contractx.ProviderID
	apiKey     string
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// failure is a classified provider failure. A zero failure means the call
// produced a parseable JSON document.
type failure struct {
	outcome contractx.Outcome
	message string
}

func (f failure) failed() bool {
	return f.outcome != ""
}

// fetch executes one request and classifies transport-level failures.
func (t *transport) fetch(ctx context.Context, r request) (gjson.Result, failure) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	logger := log.With().Str("provider", string(t.name)).Str("path", r.path).Logger()

	endpoint := t.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			logger.Error().Err(err).Msg("marshal provider request")
			return gjson.Result{}, failure{outcome: contractx.OutcomeTransportError}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		logger.Error().Err(err).Msg("build provider request")
		return gjson.Result{}, failure{outcome: contractx.OutcomeTransportError}
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		outcome := classifyTransportError(err)
		logger.Warn().Err(err).Str("outcome", string(outcome)).Dur("duration", time.Since(start)).Msg("provider request failed")
		return gjson.Result{}, failure{outcome: outcome}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		outcome := classifyTransportError(err)
		logger.Warn().Err(err).Str("outcome", string(outcome)).Msg("read provider response")
		return gjson.Result{}, failure{outcome: outcome}
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("body", truncate(string(raw), logBodyLimit)).
		Msg("provider response")

	if !gjson.ValidBytes(raw) {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			logger.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(raw), logBodyLimit)).Msg("provider http error")
			return gjson.Result{}, failure{
				outcome: contractx.OutcomeUpstreamError,
				message: fmt.Sprintf("HTTP %d", resp.StatusCode),
			}
		}
		logger.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(raw), logBodyLimit)).Msg("provider returned malformed body")
		return gjson.Result{}, failure{outcome: contractx.OutcomeMalformed}
	}

	doc := gjson.ParseBytes(raw)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := upstreamMessage(doc)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		logger.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("provider http error")
		return gjson.Result{}, failure{outcome: contractx.OutcomeUpstreamError, message: msg}
	}
	if !doc.IsObject() {
		logger.Warn().Str("body", truncate(string(raw), logBodyLimit)).Msg("provider returned non-object json")
		return gjson.Result{}, failure{outcome: contractx.OutcomeMalformed}
	}
	return doc, failure{}
}

// checkSuccess inspects the success discriminators of a response document.
// A discriminator that is present and false is a failure. When none is
// present, a string "error" field is an upstream failure and otherwise the
// payload decides.
func checkSuccess(doc gjson.Result, flags ...string) failure {
	seen := false
	for _, flag := range flags {
		v := doc.Get(flag)
		if !v.Exists() {
			continue
		}
		seen = true
		if v.Bool() {
			return failure{}
		}
	}
	if !seen {
		if v := doc.Get("error"); v.Type == gjson.String {
			if msg := strings.TrimSpace(v.String()); msg != "" {
				return failure{outcome: contractx.OutcomeUpstreamError, message: truncate(msg, maxUpstreamMessage)}
			}
		}
		return failure{}
	}

	if msg := upstreamMessage(doc); msg != "" {
		return failure{outcome: contractx.OutcomeUpstreamError, message: msg}
	}
	return failure{outcome: contractx.OutcomeNotFound}
}

func upstreamMessage(doc gjson.Result) string {
	for _, key := range []string{"error", "message"} {
		v := doc.Get(key)
		if !v.Exists() {
			continue
		}
		if v.IsObject() {
			v = v.Get("message")
		}
		if msg := strings.TrimSpace(v.String()); msg != "" && v.Type == gjson.String {
			return truncate(msg, maxUpstreamMessage)
		}
	}
	return ""
}

func classifyTransportError(err error) contractx.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return contractx.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return contractx.OutcomeTimeout
	}
	return contractx.OutcomeTransportError
}

// str extracts a trimmed string field; numbers and booleans are rendered as-is.
func str(v gjson.Result, path string) string {
	f := v.Get(path)
	if !f.Exists() || f.Type == gjson.Null || f.IsObject() || f.IsArray() {
		return ""
	}
	return strings.TrimSpace(f.String())
}

func empty(v gjson.Result) bool {
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return true
	case v.IsArray():
		return len(v.Array()) == 0
	case v.IsObject():
		return len(v.Map()) == 0
	default:
		return strings.TrimSpace(v.String()) == ""
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}

func result(name contractx.ProviderID, report contractx.ReportKind, f failure) contractx.ProviderResult {
	return contractx.ProviderResult{
		Provider: name,
		Report:   report,
		Outcome:  f.outcome,
		Message:  f.message,
	}
}
