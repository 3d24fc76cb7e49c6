// Package calllog records the requests a mock server handles so tests can
// assert on them.
//
// A Log is either idle or recording. Requests are appended only while
// recording:
//
//	log.Record(false)   // idle -> recording; fails if entries are left over
//	log.StopRecording() // recording -> idle; entries kept
//	log.Flush()         // any -> idle; entries dropped
//
// Record refuses to start while entries from a previous recording remain,
// unless bypass is set. This catches tests that forget to flush between
// cases. Starting twice is always an error.
package calllog
