// Package seed bulk-creates products from newline-delimited JSON files.
package seed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/wire"
)

const (
	defaultConcurrency = 4
	progressEvery      = 100
	maxLineSize        = 1 << 20
)

// Creator creates products. It is satisfied by *catalog.Service.
type Creator interface {
	CreateProduct(ctx context.Context, req product.CreateRequest, n catalog.Notifier) (product.Product, error)
	Validator() *product.Validator
}

// Result counts the outcome of a seed run.
type Result struct {
	Created int
	Invalid int
	Failed  int
}

// LineError reports a line that was skipped.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Seeder creates products with bounded concurrency.
type Seeder struct {
	creator     Creator
	concurrency int
	onSkip      func(*LineError)
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithConcurrency sets how many creations run at once.
func WithConcurrency(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSkipHandler sets a callback for every invalid or failed line. It may be
// called from several goroutines at once.
func WithSkipHandler(fn func(*LineError)) Option {
	return func(s *Seeder) { s.onSkip = fn }
}

// New creates a Seeder.
func New(c Creator, opts ...Option) *Seeder {
	s := &Seeder{creator: c, concurrency: defaultConcurrency}
	for _, o := range opts {
		o(s)
	}
	return s
}

// File seeds from path. Files ending in .gz are decompressed.
func (s *Seeder) File(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return Result{}, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return s.Reader(ctx, r)
}

// Reader seeds from r, one CreateRequest object per line. Blank lines are
// ignored. Lines that do not decode or validate are skipped and counted as
// invalid; lines the catalog service rejects are counted as failed.
func (s *Seeder) Reader(ctx context.Context, r io.Reader) (Result, error) {
	lg := zctx.From(ctx)
	validator := s.creator.Validator()

	var created, invalid, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := gctx.Err(); err != nil {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		req, err := wire.DecodeCreateRequest(jx.DecodeStr(text))
		if err == nil {
			err = validator.Create(req)
		}
		if err != nil {
			invalid.Add(1)
			s.skip(&LineError{Line: line, Err: err})
			continue
		}

		n := line
		g.Go(func() error {
			if _, err := s.creator.CreateProduct(gctx, req, nil); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				s.skip(&LineError{Line: n, Err: err})
				return nil
			}
			if c := created.Add(1); c%progressEvery == 0 {
				lg.Info("Seed progress", zap.Int64("created", c))
			}
			return nil
		})
	}

	waitErr := g.Wait()
	res := Result{
		Created: int(created.Load()),
		Invalid: int(invalid.Load()),
		Failed:  int(failed.Load()),
	}
	if err := scanner.Err(); err != nil {
		return res, errors.Wrap(err, "scan")
	}
	if waitErr != nil {
		return res, waitErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	lg.Info("Seed complete",
		zap.Int("created", res.Created),
		zap.Int("invalid", res.Invalid),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *Seeder) skip(err *LineError) {
	if s.onSkip != nil {
		s.onSkip(err)
	}
}
