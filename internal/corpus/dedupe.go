package corpus

// seenSet tracks (source, title) pairs already emitted during one evaluation.
// Aggregator feeds mirror the other outlets, so identical pairs show up more
// than once per fetch.
type seenSet struct {
	keys map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{keys: make(map[string]struct{})}
}

// add records the pair and reports whether it was new.
func (s *seenSet) add(source, title string) bool {
	key := source + "|" + title
	if _, dup := s.keys[key]; dup {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}
