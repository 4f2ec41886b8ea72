// Package executor maps node types to the code that computes them.
//
// A Registry holds one Spec per node type: the Executor plus what the
// engine needs to know about the type ahead of time (cacheability, whether
// it emits a pulse, whether its stream is previewed, its timeout).
//
//	reg := executor.NewDefaultRegistry()
//	reg.Register("prompt", executor.Spec{
//	    Executor: executor.NewPromptExecutor(model),
//	    Timeout:  executor.TextTimeout,
//	    Preview:  true,
//	})
//	reg.Use(executor.WithLogging(log), executor.WithTracing())
//
// Executors receive a Context with the node snapshot and its resolved
// inputs. They prefer a wired input over the inline config value, return
// an error rather than a partial result, and never modify the snapshot.
package executor
