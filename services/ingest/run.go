package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gradintake/lib/scrapers/gradcafe"
)

var tracer = otel.Tracer("gradintake.services.ingest")
var meter = otel.Meter("gradintake.services.ingest")

type RunOptions struct {
	StartPage int
	PageCount int
	// ExhaustedAfter is the number of consecutive empty pages after
	// which the query space is considered exhausted and the run stops
	// early. Zero means never stop early.
	ExhaustedAfter int
	DataDir        string
}

// RunReport is the accounting of one fetch pass. Every skipped or
// dropped page is counted here so silent data loss cannot go unnoticed.
type RunReport struct {
	PagesFetched int
	PagesFailed  int
	FailedPages  []int
	ParseMisses  int
	EmptyPages   int
	Entries      int
	StoppedEarly bool
	ShardPath    string
}

// Render formats the report as a terminal table.
func (r RunReport) Render() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	failed := "none"
	if len(r.FailedPages) > 0 {
		pages := make([]string, len(r.FailedPages))
		for i, p := range r.FailedPages {
			pages[i] = strconv.Itoa(p)
		}
		failed = strings.Join(pages, ", ")
	}

	t.AppendRows([]table.Row{
		{"pages fetched", r.PagesFetched},
		{"pages failed", r.PagesFailed},
		{"failed pages", failed},
		{"parse misses", r.ParseMisses},
		{"empty pages", r.EmptyPages},
		{"entries written", r.Entries},
		{"stopped early", r.StoppedEarly},
		{"shard", r.ShardPath},
	})
	t.SetStyle(table.StyleRounded)
	return t.Render()
}

// Runner drives one sequential fetch pass: fetch each page, extract,
// append to the shard. Sequential on purpose: politeness spacing is a
// correctness requirement for the target site, not a performance knob.
type Runner struct {
	client *gradcafe.Client
	opts   RunOptions

	pagesFailed metric.Int64Counter
	parseMisses metric.Int64Counter
	entriesOut  metric.Int64Counter
}

func NewRunner(client *gradcafe.Client, opts RunOptions) (*Runner, error) {
	pagesFailed, err := meter.Int64Counter("ingest.pages_failed")
	if err != nil {
		return nil, err
	}
	parseMisses, err := meter.Int64Counter("ingest.parse_misses")
	if err != nil {
		return nil, err
	}
	entriesOut, err := meter.Int64Counter("ingest.entries_written")
	if err != nil {
		return nil, err
	}
	return &Runner{
		client:      client,
		opts:        opts,
		pagesFailed: pagesFailed,
		parseMisses: parseMisses,
		entriesOut:  entriesOut,
	}, nil
}

// Run executes the pass. A transient page failure is skipped and
// counted; a non-retryable request error aborts with the partial
// report. Resuming after an interruption is re-invoking with a later
// start page; completed pages never need replaying because the shard
// flushes per page.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{}

	writer, err := NewShardWriter(r.opts.DataDir, r.opts.StartPage)
	if err != nil {
		return report, err
	}
	defer writer.Close()
	report.ShardPath = writer.Path()

	emptyStreak := 0
	for page := r.opts.StartPage; page < r.opts.StartPage+r.opts.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		pageCtx, span := tracer.Start(ctx, "ingest.page")
		span.SetAttributes(attribute.Int("page", page))

		html, err := r.client.FetchPage(pageCtx, page)
		if err != nil {
			span.RecordError(err)
			span.End()
			if gradcafe.IsFatal(err) {
				return report, err
			}
			slog.WarnContext(pageCtx, "skipping page after retry exhaustion", "page", page, "err", err)
			report.PagesFailed++
			report.FailedPages = append(report.FailedPages, page)
			r.pagesFailed.Add(pageCtx, 1)
			// a failed page breaks the run of consecutive empty pages
			emptyStreak = 0
			continue
		}
		report.PagesFetched++

		entries, err := gradcafe.ExtractEntries(html, page)
		if err != nil {
			span.RecordError(err)
			span.End()
			if !errors.Is(err, gradcafe.ErrNoStrategy) {
				return report, err
			}
			slog.WarnContext(pageCtx, "page matched no extraction strategy", "page", page)
			report.ParseMisses++
			r.parseMisses.Add(pageCtx, 1)
			emptyStreak = 0
			continue
		}
		span.End()

		if len(entries) == 0 {
			report.EmptyPages++
			emptyStreak++
			slog.InfoContext(ctx, "empty page", "page", page, "streak", emptyStreak)
			if r.opts.ExhaustedAfter > 0 && emptyStreak >= r.opts.ExhaustedAfter {
				slog.InfoContext(ctx, "query space likely exhausted, stopping early", "page", page)
				report.StoppedEarly = true
				break
			}
			continue
		}
		emptyStreak = 0

		err = writer.AppendPage(page, entries)
		if err != nil {
			return report, err
		}
		report.Entries += len(entries)
		r.entriesOut.Add(ctx, int64(len(entries)))
		slog.InfoContext(ctx, "page ingested", "page", page, "entries", len(entries))
	}

	slog.Info(
		"fetch pass finished",
		"pages_fetched", report.PagesFetched,
		"pages_failed", report.PagesFailed,
		"parse_misses", report.ParseMisses,
		"entries", report.Entries,
	)
	return report, nil
}
