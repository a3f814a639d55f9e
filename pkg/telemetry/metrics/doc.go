// Package metrics provides Prometheus metrics collection for mdast.
//
// # Metrics Categories
//
//   - Parse Metrics: parse count by status and error kind, duration, input size, node count
//   - Engine Metrics: bundle initialization count and duration
//   - Cache Metrics: hits, misses, size, and pruning evictions per backend
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	start := time.Now()
//	tree, err := parser.Parse(text)
//	collector.RecordParse(kindOf(err), time.Since(start), len(text))
//
//	// At exit
//	collector.WriteTextfile(cfg.Telemetry.Metrics.Textfile)
//
// A nil *Collector is valid and records nothing.
package metrics
