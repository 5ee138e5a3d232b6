// Package netgate answers whether the network is reachable and lets callers
// block until it is.
//
// A Gate probes a well-known host with a short, bounded TCP connect. Probes
// share no state, so one Gate may be used from any number of goroutines.
// Call and Run wrap an operation so that a dropped connection stalls the
// caller until connectivity returns instead of failing the operation:
//
//	gate, _ := netgate.New("www.google.com:80")
//	result, err := netgate.Call(ctx, gate, func(ctx context.Context) model.AuditResult {
//	    return runner.Audit(ctx, target)
//	})
//
// The wrapped operation is invoked at most once per call. Only the
// connectivity check is retried.
package netgate
