// Package batch runs the matcher over every spreadsheet found in a folder.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/muaazl/product-matcher/internal/fileio"
	"github.com/muaazl/product-matcher/internal/match/loader"
	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/match/service"
)

var ErrNoInputs = errors.New("no input files found")

type Options struct {
	Input   string
	Pattern string
	// OutDir пусто: результат кладётся рядом со входным файлом.
	OutDir  string
	InPlace bool
	Queries loader.SheetSpec
	Extra   []string
}

// FileReport is the outcome of one input file.
type FileReport struct {
	Path     string        `json:"path"`
	Output   string        `json:"output,omitempty"`
	Total    int           `json:"total"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Skipped  int           `json:"skipped"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      error         `json:"-"`
}

type Summary struct {
	RunID    string       `json:"runId"`
	Files    []FileReport `json:"files"`
	Total    int          `json:"total"`
	Accepted int          `json:"accepted"`
	Rejected int          `json:"rejected"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
}

// Runner shares one prepared matcher (and its dictionary index) across all files.
type Runner struct {
	matcher *service.Matcher
	opt     Options
	logger  zerolog.Logger
}

func NewRunner(m *service.Matcher, opt Options, logger zerolog.Logger) *Runner {
	opt.Queries = opt.Queries.Merge(loader.DefaultQueries)
	return &Runner{matcher: m, opt: opt, logger: logger}
}

// Run processes every discovered file. Ошибка одного файла не останавливает остальные;
// Run возвращает ошибку только если файлов нет или контекст отменён.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	files, err := Discover(r.opt.Input, r.opt.Pattern)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, fmt.Errorf("%s: %w", r.opt.Input, ErrNoInputs)
	}

	sum := Summary{RunID: uuid.NewString()}
	log := r.logger.With().Str("run", sum.RunID).Logger()
	log.Info().Int("files", len(files)).Msg("batch started")

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fr := r.ProcessFile(ctx, path)
		sum.add(fr)
		if fr.Err != nil {
			log.Error().Err(fr.Err).Str("file", path).Msg("file failed")
			continue
		}
		log.Info().
			Str("file", path).
			Str("output", fr.Output).
			Int("total", fr.Total).
			Int("accepted", fr.Accepted).
			Int("rejected", fr.Rejected).
			Int("skipped", fr.Skipped).
			Dur("elapsed", fr.Elapsed).
			Msg("file done")
	}

	log.Info().
		Int("files", len(sum.Files)).
		Int("failed", sum.Failed).
		Int("total", sum.Total).
		Int("accepted", sum.Accepted).
		Int("rejected", sum.Rejected).
		Int("skipped", sum.Skipped).
		Msg("batch finished")
	return sum, nil
}

// ProcessFile matches one input file and writes its results. Nothing is written on error.
func (r *Runner) ProcessFile(ctx context.Context, path string) FileReport {
	start := time.Now()
	fr := FileReport{Path: path}

	src, err := loader.ReadSource(path)
	if err != nil {
		fr.Err = err
		return fr
	}
	names, err := src.Queries(r.opt.Queries)
	if err != nil {
		fr.Err = err
		return fr
	}
	rep, err := r.matcher.MatchAll(ctx, names)
	if err != nil {
		fr.Err = fmt.Errorf("match %s: %w", filepath.Base(path), err)
		return fr
	}

	out, err := r.write(path, rep.Results)
	if err != nil {
		fr.Err = fmt.Errorf("write %s: %w", filepath.Base(path), err)
		return fr
	}
	fr.Output = out
	fr.Total, fr.Accepted, fr.Rejected, fr.Skipped = rep.Total, rep.Accepted, rep.Rejected, rep.Skipped
	fr.Elapsed = time.Since(start)
	return fr
}

func (r *Runner) write(path string, results []model.MatchResult) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if r.opt.InPlace {
		if ext == ".xlsx" {
			return path, fileio.AppendResultSheet(path, fileio.DefaultResultSheet, results, r.opt.Extra)
		}
		r.logger.Warn().Str("file", path).Msg("in-place works only for xlsx, writing a separate file")
	}
	out := OutputPath(path, r.opt.OutDir)
	return out, fileio.WriteResultsFile(out, results, r.opt.Extra)
}

// OutputPath: <dir>/<base>_matched.csv для csv, .xlsx для книг (xls переписывается в xlsx).
func OutputPath(input, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outExt := ".xlsx"
	if ext == ".csv" {
		outExt = ".csv"
	}
	return filepath.Join(outDir, stem+outputSuffix+outExt)
}

func (s *Summary) add(fr FileReport) {
	s.Files = append(s.Files, fr)
	if fr.Err != nil {
		s.Failed++
		return
	}
	s.Total += fr.Total
	s.Accepted += fr.Accepted
	s.Rejected += fr.Rejected
	s.Skipped += fr.Skipped
}
