package netgate

import "context"

// Call invokes fn once the network is reachable.
//
// It probes once; when the probe fails it blocks in WaitUntilReachable
// before invoking fn. fn runs at most once and its result is returned as is:
// application-level failures are never retried here. The error is non-nil
// only when waiting was abandoned, in which case fn was not invoked.
func Call[R any](ctx context.Context, c Checker, fn func(context.Context) R) (R, error) {
	if !c.IsReachable(ctx) {
		if err := c.WaitUntilReachable(ctx); err != nil {
			var zero R
			return zero, err
		}
	}
	return fn(ctx), nil
}

// Run is Call for operations that only return an error.
func Run(ctx context.Context, c Checker, fn func(context.Context) error) error {
	opErr, err := Call(ctx, c, fn)
	if err != nil {
		return err
	}
	return opErr
}
