package sessions

// Retry runs the backoff decision for s as a connection failure would.
func (r *Registry) Retry(s *Session) {
	r.retry(s)
}
