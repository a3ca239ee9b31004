package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/calvinalkan/fastread"
)

// Pass names.
const (
	PassNaive   = "naive"
	PassBatch   = "batch"
	PassFlatten = "flatten"
)

// Pass is the outcome of reading a dataset once.
type Pass struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Digest   Digest        `json:"digest"`
	Errors   int           `json:"errors"`

	// Err aggregates per-file failures, or holds the error that stopped the
	// pass.
	Err error `json:"-"`
}

// FilesPerSec is the pass throughput.
func (p Pass) FilesPerSec() float64 {
	if p.Duration <= 0 {
		return 0
	}

	return float64(p.Digest.Files) / p.Duration.Seconds()
}

// ReadNaive reads dir sequentially with os.ReadDir and os.ReadFile, skipping
// everything that is not a regular file. It is the baseline.
func ReadNaive(ctx context.Context, dir string) Pass {
	pass := Pass{Name: PassNaive}
	start := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		pass.Err = fmt.Errorf("read dir: %w", err)

		return pass
	}

	var errs *multierror.Error

	for _, e := range entries {
		if ctx.Err() != nil {
			pass.Err = context.Cause(ctx)

			return pass
		}

		if !e.Type().IsRegular() {
			continue
		}

		data, readErr := os.ReadFile(filepath.Join(dir, e.Name()))
		if readErr != nil {
			errs = multierror.Append(errs, readErr)
			pass.Errors++

			continue
		}

		pass.Digest.Add(e.Name(), data)
	}

	pass.Duration = time.Since(start)
	pass.Err = errs.ErrorOrNil()

	return pass
}

// ReadBatches reads dir with a [fastread.FilesBatchIterator].
func ReadBatches(ctx context.Context, dir string, batchSize int, opts ...fastread.Option) Pass {
	pass := Pass{Name: PassBatch}
	start := time.Now()

	it, err := fastread.NewFilesBatchIterator(ctx, dir, batchSize, opts...)
	if err != nil {
		pass.Err = err

		return pass
	}

	defer func() { _ = it.Close() }()

	var errs *multierror.Error

	for it.Next() {
		for _, item := range it.Batch() {
			errs = pass.add(item, errs)
		}
	}

	pass.finish(ctx, start, it.Err(), errs)

	return pass
}

// ReadFlatten reads dir with a [fastread.FlattenFilesIterator].
func ReadFlatten(ctx context.Context, dir string, opts ...fastread.Option) Pass {
	pass := Pass{Name: PassFlatten}
	start := time.Now()

	it, err := fastread.NewFlattenFilesIterator(ctx, dir, opts...)
	if err != nil {
		pass.Err = err

		return pass
	}

	defer func() { _ = it.Close() }()

	var errs *multierror.Error

	for item, iterErr := range it.All() {
		if iterErr != nil {
			break
		}

		errs = pass.add(item, errs)
	}

	pass.finish(ctx, start, it.Err(), errs)

	return pass
}

func (p *Pass) add(item fastread.Item, errs *multierror.Error) *multierror.Error {
	if item.Err != nil {
		p.Errors++

		return multierror.Append(errs, item.Err)
	}

	p.Digest.Add(item.Name, item.Data)

	return errs
}

func (p *Pass) finish(ctx context.Context, start time.Time, iterErr error, errs *multierror.Error) {
	p.Duration = time.Since(start)

	switch {
	case iterErr != nil:
		p.Err = iterErr
	case ctx.Err() != nil:
		p.Err = context.Cause(ctx)
	default:
		p.Err = errs.ErrorOrNil()
	}
}

// Verify returns an error unless every pass saw the same files with the same
// content.
func Verify(passes []Pass) error {
	var errs *multierror.Error

	for _, p := range passes {
		if p.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.Name, p.Err))
		}
	}

	if len(passes) > 1 {
		ref := passes[0]
		for _, p := range passes[1:] {
			if p.Digest != ref.Digest {
				errs = multierror.Append(errs, fmt.Errorf("%s digest %+v differs from %s digest %+v", p.Name, p.Digest, ref.Name, ref.Digest))
			}
		}
	}

	return errs.ErrorOrNil()
}
