package studio

// Subscribe returns a channel that receives the session state after every
// change, starting with the current one. Slow readers only ever see the
// latest snapshot. Call cancel to stop receiving; the channel is then
// closed.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	ch <- s.Snapshot()

	s.subMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[key]; ok {
			delete(s.subs, key)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Session) publish() {
	s.touch()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// closeSubscribers ends every open subscription.
func (s *Session) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for key, ch := range s.subs {
		delete(s.subs, key)
		close(ch)
	}
}
