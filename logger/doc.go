// Package logger provides structured logging for flowkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying run and node fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "flowkit").WithComponent("engine")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id))
package logger
