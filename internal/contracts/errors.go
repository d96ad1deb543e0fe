package contracts

import "errors"

var (
	// ErrInsufficientData fewer than two aligned trading days
	ErrInsufficientData = errors.New("insufficient data: need at least two trading days")
	// ErrMisalignedSeries series do not share the same date index
	ErrMisalignedSeries = errors.New("misaligned price series")
	// ErrDegenerateReturns zero-variance return series, Sharpe ratio undefined
	ErrDegenerateReturns = errors.New("degenerate returns: zero variance")
	// ErrInvalidPrice non-positive or missing price where a return is required
	ErrInvalidPrice = errors.New("invalid price")
	// ErrAllocationLength allocation length differs from symbol count
	ErrAllocationLength = errors.New("allocation length does not match symbol count")
	// ErrNoScoredAllocations every allocation was skipped or excluded
	ErrNoScoredAllocations = errors.New("no scored allocations")
	// ErrCellWritten event matrix cell written more than once
	ErrCellWritten = errors.New("event matrix cell already written")
	// ErrNoEvents no event usable for a profile
	ErrNoEvents = errors.New("no events")
)
