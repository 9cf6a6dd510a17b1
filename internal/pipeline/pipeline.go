// Package pipeline runs the end-to-end audit: text acquisition and field
// extraction happen in parallel across a worker pool, then results are
// matched against the reference records and checked for duplicates.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoiceaudit/internal/extract"
	"invoiceaudit/internal/logger"
	"invoiceaudit/internal/match"
	"invoiceaudit/internal/textract"
	"invoiceaudit/pkg/models"
)

// DocumentResult is the outcome for a single input file. ExtractionErr is
// set when the document could not be read at all; the batch continues and
// the result is reported as unmatched.
type DocumentResult struct {
	FileName      string
	Index         int
	Invoice       models.InvoiceRecord
	Result        *models.MatchResult
	ExtractionErr error
}

type workerJob struct {
	filePath string
	index    int
}

// ProgressFunc is called after each document finishes processing.
type ProgressFunc func(done, total int, fileName string, err error)

// Options configures a pipeline run.
type Options struct {
	Rules            *extract.RuleSet
	Locale           extract.Locale
	ExtraDateLayouts []string
	Workers          int
	PerSource        bool
	Progress         ProgressFunc
}

// Pipeline wires the extractor, the rule engine, and the matcher.
type Pipeline struct {
	extractor textract.Extractor
	matcher   *match.Matcher
	opts      Options
	runID     string
	log       zerolog.Logger
}

// New builds a pipeline. Workers below 1 are clamped to 1.
func New(extractor textract.Extractor, matcher *match.Matcher, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Rules == nil {
		opts.Rules = extract.DefaultRules()
	}
	runID := uuid.NewString()
	return &Pipeline{
		extractor: extractor,
		matcher:   matcher,
		opts:      opts,
		runID:     runID,
		log:       logger.WithRun("pipeline", runID),
	}
}

// RunID identifies this pipeline instance in logs and summaries.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run processes the given files against the reference records. The returned
// slice preserves input order. A per-document failure never aborts the
// batch.
func (p *Pipeline) Run(ctx context.Context, files []string, refs []models.ReferenceRecord) ([]DocumentResult, error) {
	if len(files) == 0 {
		return nil, nil
	}

	p.log.Info().
		Int("files", len(files)).
		Int("references", len(refs)).
		Int("workers", p.opts.Workers).
		Msg("Starting audit run")

	results := p.extractAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit run cancelled: %w", err)
	}

	// Matching is deterministic and cheap next to OCR, so it runs
	// sequentially over the extraction results.
	matchResults := make([]*models.MatchResult, len(results))
	for i := range results {
		if results[i].ExtractionErr != nil {
			mr := &models.MatchResult{
				Invoice: results[i].Invoice,
				Status:  models.StatusUnmatched,
			}
			mr.AddReason(models.ReasonExtractionFailed)
			results[i].Result = mr
			matchResults[i] = mr
			continue
		}
		mr := p.matcher.Match(results[i].Invoice, refs)
		results[i].Result = &mr
		matchResults[i] = &mr
	}

	match.FlagDuplicates(matchResults, p.opts.PerSource)

	p.log.Info().
		Int("total", len(results)).
		Msg("Audit run completed")

	return results, nil
}

func (p *Pipeline) extractAll(ctx context.Context, files []string) []DocumentResult {
	jobs := make(chan workerJob, len(files))
	results := make([]DocumentResult, len(files))

	var processed int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				p.log.Debug().
					Int("worker", workerID).
					Str("file", job.filePath).
					Msg("Worker processing document")

				result := p.processDocument(ctx, job.filePath)
				result.Index = job.index
				results[job.index] = result

				mu.Lock()
				processed++
				done := processed
				mu.Unlock()

				if p.opts.Progress != nil {
					p.opts.Progress(done, len(files), result.FileName, result.ExtractionErr)
				}
			}
		}(w)
	}

	for i, file := range files {
		jobs <- workerJob{filePath: file, index: i}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) processDocument(ctx context.Context, path string) DocumentResult {
	result := DocumentResult{FileName: filepath.Base(path)}

	file, err := os.Open(path)
	if err != nil {
		result.ExtractionErr = fmt.Errorf("failed to open document: %w", err)
		return result
	}
	defer file.Close()

	text, err := p.extractor.ExtractText(ctx, file)
	if err != nil {
		result.ExtractionErr = fmt.Errorf("text extraction failed: %w", err)
		return result
	}

	result.Invoice = extract.Extract(text.Text, p.opts.Rules, extract.Options{
		Locale:           p.opts.Locale,
		ExtraDateLayouts: p.opts.ExtraDateLayouts,
	})

	p.log.Debug().
		Str("file", result.FileName).
		Str("source", text.Source).
		Str("invoice_number", result.Invoice.InvoiceNumber).
		Strs("low_confidence", result.Invoice.LowConfidence).
		Msg("Document extracted")

	return result
}

// FindPDFFiles walks the folder and returns every PDF path, sorted by the
// walk order of filepath.Walk.
func FindPDFFiles(folderPath string) ([]string, error) {
	var pdfFiles []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, path)
		}
		return nil
	})

	return pdfFiles, err
}
