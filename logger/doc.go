// Package logger is the structured logging layer, a thin wrapper over zerolog.
//
// Components take a *Logger through a WithLogger option and otherwise fall
// back to Get with their component name:
//
//	log := logger.Get("autosave")
//	log.Info("snapshot saved", logger.Fields(logger.FieldSessionKey, key))
//
// The process-wide sink is configured once at startup with Init:
//
//	logging:
//	  level: info
//	  format: console   # or json
//	  output: stderr    # or stdout
package logger
