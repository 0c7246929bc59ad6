package godb

// config.go holds the handful of tunables named in §6 of the design:
// page size, the bounded-length string type's width, and the buffer pool's
// default capacity. PageSize and StringLength are package vars (mirroring
// the teacher's original PageSize var) with test-only mutators so property
// tests can exercise small pages/strings without rebuilding the package.

// PageSize is the size, in bytes, of every on-disk and in-memory page.
// Default is 4096; tests may shrink it via [SetPageSize] to exercise page
// growth (§8 scenario S2) without allocating huge files.
var PageSize = 4096

// StringLength is the fixed encoded width, in bytes, of a STRING field.
var StringLength = 32

// DefaultBufferPoolPages is the buffer pool capacity hint used when a
// caller doesn't specify one explicitly.
const DefaultBufferPoolPages = 50

// SetPageSize overrides PageSize for the duration of a test. Callers must
// call [ResetPageSize] (typically via defer) before the next test runs,
// since PageSize is process-wide state.
func SetPageSize(n int) {
	PageSize = n
}

// ResetPageSize restores PageSize to its default (4096).
func ResetPageSize() {
	PageSize = 4096
}

// SetStringLength overrides StringLength for the duration of a test.
func SetStringLength(n int) {
	StringLength = n
}

// ResetStringLength restores StringLength to its default (32).
func ResetStringLength() {
	StringLength = 32
}
