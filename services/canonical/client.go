// Package canonical talks to the optional name-canonicalization
// service, which maps free-text program/university labels onto
// canonical ones. The service is best-effort by contract: any failure,
// timeout, or empty answer keeps the original text unchanged.
package canonical

import (
	"context"
	"log/slog"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"

	"gradintake/lib/restyutil"
)

var tracer = otel.Tracer("gradintake.services.canonical")

// candidates below this similarity are considered a mismatch and the
// original label is kept
const minSimilarity = 0.8

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl string) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetTimeout(time.Second * 10)
	restyutil.InstrumentClient(httpClient, tracer)
	return &Client{http: httpClient}
}

type labelQuery struct {
	Program    string `json:"program"`
	University string `json:"university"`
}

type labelCandidate struct {
	Program    string `json:"program"`
	University string `json:"university"`
}

type labelResponse struct {
	Candidates []labelCandidate `json:"candidates"`
}

// Canonicalize asks the service for canonical forms of a
// program/university pair and returns the best candidate, or the
// originals when the service is unavailable, errors, or answers with
// nothing convincing.
func (c *Client) Canonicalize(ctx context.Context, program, university string) (string, string) {
	var res labelResponse
	httpRes, err := c.http.R().
		SetContext(ctx).
		SetBody(labelQuery{Program: program, University: university}).
		SetResult(&res).
		Post("/canonicalize")
	if err != nil {
		slog.DebugContext(ctx, "canonicalization unavailable", "err", err)
		return program, university
	}
	if httpRes.IsError() || len(res.Candidates) == 0 {
		return program, university
	}

	best := labelCandidate{}
	bestScore := 0.0
	for _, cand := range res.Candidates {
		score := matchr.JaroWinkler(program, cand.Program, false) +
			matchr.JaroWinkler(university, cand.University, false)
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	if bestScore/2 < minSimilarity {
		return program, university
	}

	out := labelCandidate{Program: program, University: university}
	if best.Program != "" {
		out.Program = best.Program
	}
	if best.University != "" {
		out.University = best.University
	}
	return out.Program, out.University
}
