package cart

// TrackedSessions reports how many in-process session locks are held or awaited.
func TrackedSessions(s *Service) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
