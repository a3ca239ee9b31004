package fastread

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// ReadDir reads every regular file in dir and returns the items in delivery
// order (listing order with [OrderStrict]).
//
// Per-file failures stay in their items and are also aggregated into the
// returned *multierror.Error; a directory-level failure is returned alone
// with no items. Successful items are returned even when some files failed.
// Unlike the iterators, ReadDir reports cancellation, together with the
// items read so far.
func ReadDir(ctx context.Context, dir string, opts ...Option) ([]Item, error) {
	it, err := NewFlattenFilesIterator(ctx, dir, opts...)
	if err != nil {
		return nil, err
	}

	defer func() { _ = it.Close() }()

	n, err := it.Len()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, n)

	var fileErrs *multierror.Error

	for it.Next() {
		item := it.Item()
		if item.Err != nil {
			fileErrs = multierror.Append(fileErrs, item.Err)
		}

		items = append(items, item)
	}

	if err := it.Err(); err != nil {
		return nil, err
	}

	if ctx != nil && ctx.Err() != nil {
		return items, context.Cause(ctx)
	}

	return items, fileErrs.ErrorOrNil()
}
