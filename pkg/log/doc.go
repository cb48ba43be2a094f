package log

// Package log provides a very small opinionated wrapper around Go's standard
// library logging facilities. Its goal is to offer a consistent way to emit
// logs per service while keeping migration friction low.
//
// Key Features
//
//   - Per service loggers via ForService(name)
//   - Automatic prefix in every line: `[name>]`  (example: `[broker>] enqueued`)
//   - Convenience level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug logging can be enabled globally (SetGlobalDebug) or per service
//     (EnableDebugFor / DisableDebugFor)
//   - Uses the standard library *log.Logger* under the hood (no external deps)
//   - Central output writer (SetOutput) that updates existing loggers
//
// Basic Usage
//
//	func main() {
//		// Enable global debug logs if desired.
//		log.SetGlobalDebug(true)
//
//		// Acquire a logger for a service.
//		br := log.ForService("broker")
//
//		br.Infof("broker ready")
//		br.Warnf("queue overflow for device d1")
//		br.Debugf("payload: %v", "...") // printed because global debug enabled
//	}
//
// Selective Debug
//
//	// Only enable debug for the 'stream' service.
//	log.EnableDebugFor("stream")
//	log.ForService("stream").Debugf("visible")
//	log.ForService("api").Debugf("NOT visible")
//
// Thread Safety
//
// All exported functions are safe for concurrent use. Internally the package
// relies on sync.Map and atomic primitives for minimal locking.
//
// Testing
//
// Tests can redirect output by calling SetOutput with a bytes.Buffer,
// enabling assertions on log contents.
