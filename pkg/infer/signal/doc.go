// Package signal contains the result carrier used to hand results of
// asynchronous work back to a waiting caller.
//
// Highlights:
// - Ok/Err/FromError: construct Signal[T] with a fresh identity
// - IsOk/IsErr: exactly one is true; branch before reading Value or Message
// - Erase/As: move between Signal[T] and the type-erased Any
//
// Correlating a Signal with the request that produced it is left to the
// caller, typically by comparing ID values.
package signal
