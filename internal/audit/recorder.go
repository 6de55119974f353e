package audit

// FileRecorder appends entries to the database at Path, opening it for each
// write. Concurrent logins each hold the file lock only while recording.
type FileRecorder struct {
	Path string
}

func (r *FileRecorder) Record(e Entry) error {
	s, err := Open(r.Path)
	if err != nil {
		return err
	}
	if err := s.Record(e); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}
