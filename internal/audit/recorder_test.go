package audit

import (
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestFileRecorderReleasesLockBetweenWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r := &FileRecorder{Path: path}

	assert.NilError(t, r.Record(Entry{User: "alice", Result: "success"}))
	assert.NilError(t, r.Record(Entry{User: "bob", Result: "failure"}))

	// A second handle would block on the flock if the recorder still held it.
	s, err := Open(path)
	assert.NilError(t, err)
	defer s.Close()

	got, err := s.Recent(0)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(got, 2))
}
