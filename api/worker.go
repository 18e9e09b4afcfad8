package api

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/copylens/analyzer"
	"github.com/copylens/analyzer/metrics"
	"github.com/copylens/analyzer/models"
	"github.com/copylens/analyzer/slug"
)

// task is one queued analysis job.
type task struct {
	id  string
	url string
}

// jobTimeout bounds a single analysis run end to end, including the
// generative rewrite when enabled.
const jobTimeout = 3 * time.Minute

func (s *Server) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *Server) worker() {
	defer s.wg.Done()
	for t := range s.queue {
		metrics.QueueDepth.Set(float64(len(s.queue)))
		s.processTask(t)
	}
}

// processTask runs the fetch -> extract -> score pipeline for one job and
// makes a single terminal write: completed with results, or failed with an
// error message. Only the fetch and the rewrite service can fail a job.
func (s *Server) processTask(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	tracer := otel.Tracer("copylens/api")
	ctx, span := tracer.Start(ctx, "analysis.process")
	span.SetAttributes(
		attribute.String("analysis.id", t.id),
		attribute.String("analysis.url", t.url),
	)
	defer span.End()

	start := time.Now()

	record, err := s.db.GetByID(t.id)
	if err != nil || record == nil {
		s.logger.Error("queued analysis disappeared", "id", t.id, "error", err)
		span.SetStatus(codes.Error, "record not found")
		return
	}

	content, scores, html, err := s.analyzer.AnalyzePage(ctx, t.url)
	if err != nil {
		s.failTask(record, "fetch failed: "+err.Error())
		metrics.FetchErrorsTotal.Inc()
		span.SetStatus(codes.Error, err.Error())
		return
	}

	// The rewrite call is slow, so it overlaps with snapshot and slug work.
	type rewriteOutcome struct {
		result *models.RewriteResult
		err    error
	}
	var rewriteCh chan rewriteOutcome
	if s.rewriter != nil {
		rewriteCh = make(chan rewriteOutcome, 1)
		go func(c *models.ExtractedContent) {
			result, err := s.rewriter.RewriteContent(ctx, c)
			rewriteCh <- rewriteOutcome{result: result, err: err}
		}(content)
	}

	// Refine the URL-derived placeholder slug using the extracted headline.
	// The extractor's stand-in headline must not become the slug.
	headline := content.Headline
	if headline == analyzer.FallbackHeadline {
		headline = ""
	}
	desired := slug.FromHeadline(headline, t.url)
	if desired != record.Slug {
		if refined, err := s.uniqueSlug(desired); err == nil {
			record.Slug = refined
		} else {
			s.logger.Warn("keeping placeholder slug", "id", t.id, "error", err)
		}
	}

	snapshotPath, err := s.store.SaveSnapshot(html, record.Slug)
	if err != nil {
		// Losing the snapshot is not worth failing the analysis over.
		s.logger.Warn("failed to save snapshot", "id", t.id, "error", err)
	} else {
		record.SnapshotPath = snapshotPath
	}

	if rewriteCh != nil {
		outcome := <-rewriteCh
		if outcome.err != nil {
			metrics.RewriteErrorsTotal.Inc()
			if ctx.Err() != nil {
				s.failTask(record, "rewrite timed out")
			} else {
				s.failTask(record, "rewrite failed: "+outcome.err.Error())
			}
			span.SetStatus(codes.Error, outcome.err.Error())
			return
		}
		record.Rewrite = outcome.result
	}

	record.Status = models.StatusCompleted
	record.Error = ""
	record.Content = content
	record.Scores = scores
	record.ProcessingTime = time.Since(start).Seconds()

	if err := s.db.Update(record); err != nil {
		s.logger.Error("failed to persist analysis", "id", t.id, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	// Archive the final report next to the snapshot, best-effort.
	if report, err := json.MarshalIndent(record, "", "  "); err == nil {
		if _, err := s.store.SaveReport(report, record.Slug); err != nil {
			s.logger.Warn("failed to save report", "id", t.id, "error", err)
		}
	}

	metrics.AnalysesTotal.WithLabelValues(string(models.StatusCompleted)).Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if s.analyzer.ModelAvailable() {
		metrics.ModelAvailable.Set(1)
	} else {
		metrics.ModelAvailable.Set(0)
	}

	s.logger.Info("analysis completed",
		"id", t.id,
		"url", t.url,
		"slug", record.Slug,
		"overall", scores.Overall.Score,
		"model_used", scores.ModelUsed,
		"duration", time.Since(start),
	)
}

// failTask records a terminal failure for the job.
func (s *Server) failTask(record *models.Analysis, message string) {
	record.Status = models.StatusFailed
	record.Error = message
	if err := s.db.Update(record); err != nil {
		s.logger.Error("failed to mark analysis failed", "id", record.ID, "error", err)
		return
	}
	metrics.AnalysesTotal.WithLabelValues(string(models.StatusFailed)).Inc()
	s.logger.Warn("analysis failed", "id", record.ID, "url", record.URL, "error", message)
}
