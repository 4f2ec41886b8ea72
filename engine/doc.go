// Package engine runs flows: it schedules nodes in dependency order,
// reuses cached results where their fingerprints still match, and collects
// outputs and errors keyed by node label.
//
// A run starts from the entry nodes (no incoming edges and at least one
// outgoing edge, plus unconnected output nodes). Each node task resolves
// its inputs, consults the cache, calls its executor on a miss, and then
// starts every downstream node whose sources have all succeeded as a
// concurrent child task. A failed node is recorded and its descendants are
// never reached; they appear in neither Outputs nor Errors.
//
//	eng := engine.New(registry, cacheManager, engine.WithMaxParallel(8))
//	res, err := eng.Run(ctx, graph, engine.RunOptions{
//	    Overrides: map[string]string{"topic": "hello"},
//	})
package engine
