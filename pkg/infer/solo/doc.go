// Package solo contains single-value, synchronous helpers over
// signal.Signal[T]. A failed signal short-circuits every helper and keeps its
// message.
//
// Highlights:
// - Succeed/Fail: construct Signal[T]
// - Validate/AndValidate: turn a rejected value into a failure
// - Switch/Map/Try: move from Signal[In] to Signal[Out]
// - Tee/DoubleTee: side effects without changing the signal
// - Finally: reduce to a concrete value via success/error handlers
package solo
