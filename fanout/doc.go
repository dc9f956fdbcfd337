// Package fanout runs many independent, failure-prone calls concurrently and
// assembles their results into one response without letting any single call
// sink the whole operation.
//
// The building blocks are:
//
//   - Task: a named call with a fallback value and optional timeout,
//     dependency name and retry policy.
//   - Guard: runs a Task on a bounded pool.Pool, consults the dependency's
//     resilience.Policy, and converts every failure (error, panic, timeout,
//     open circuit, saturation) into the task's fallback. Run never returns
//     an error.
//   - Aggregator: joins N branches, waits for all of them to settle under an
//     overall deadline, and returns their outcomes in request order.
//
// A typical composite:
//
//	res := agg.Join(ctx, fanout.Request{
//	    Name: "appointment-detail",
//	    Branches: []fanout.Branch{
//	        fanout.NewTask("treatment", getTreatment, ErrorTreatment, fanout.WithDependency("treatment")),
//	        fanout.NewTask("payment", getPayment, ErrorPayment, fanout.WithDependency("payment")),
//	    },
//	})
//	res.MustLen(2)
//	treatment := fanout.Value[Treatment](res, 0)
//	payment := fanout.Value[Payment](res, 1)
//
// Outcomes are Success (actual value), Failed (fallback plus cause) or
// TimedOut (fallback plus ErrTimeout). Nothing escapes Join; programming
// errors such as nil branches or slot type mismatches panic.
package fanout
