package playback

import "story-playback/internal/models"

type Position struct {
	Collection int `json:"collection"`
	Segment    int `json:"segment"`
}

// Sequencer walks the segments of an ordered list of story collections.
// Collections without segments are skipped in both directions. Once closed it
// stays closed.
type Sequencer struct {
	collections []models.UserStory
	pos         Position
	closed      bool
}

func NewSequencer(collections []models.UserStory, start int) *Sequencer {
	s := &Sequencer{collections: collections}
	if start < 0 || start >= len(collections) {
		s.closed = true
		return s
	}
	idx, ok := s.nextNonEmpty(start)
	if !ok {
		s.closed = true
		return s
	}
	s.pos = Position{Collection: idx}
	return s
}

// Advance moves to the next segment, crossing into the next collection when the
// current one is exhausted. It returns false when there is nothing left, in which
// case the sequencer is closed.
func (s *Sequencer) Advance() bool {
	if s.closed {
		return false
	}
	if s.pos.Segment < len(s.collections[s.pos.Collection].Segments)-1 {
		s.pos.Segment++
		return true
	}
	idx, ok := s.nextNonEmpty(s.pos.Collection + 1)
	if !ok {
		s.closed = true
		return false
	}
	s.pos = Position{Collection: idx}
	return true
}

// Retreat moves to the previous segment, or to the last segment of the previous
// collection. At the very first segment it does nothing and returns false.
func (s *Sequencer) Retreat() bool {
	if s.closed {
		return false
	}
	if s.pos.Segment > 0 {
		s.pos.Segment--
		return true
	}
	idx, ok := s.prevNonEmpty(s.pos.Collection - 1)
	if !ok {
		return false
	}
	s.pos = Position{Collection: idx, Segment: len(s.collections[idx].Segments) - 1}
	return true
}

func (s *Sequencer) Close() {
	s.closed = true
}

func (s *Sequencer) Closed() bool {
	return s.closed
}

func (s *Sequencer) Position() Position {
	return s.pos
}

func (s *Sequencer) Current() (models.Segment, bool) {
	if s.closed {
		return nil, false
	}
	return s.collections[s.pos.Collection].Segments[s.pos.Segment], true
}

func (s *Sequencer) Collection() (models.UserStory, bool) {
	if s.closed {
		return models.UserStory{}, false
	}
	return s.collections[s.pos.Collection], true
}

func (s *Sequencer) nextNonEmpty(from int) (int, bool) {
	for i := from; i < len(s.collections); i++ {
		if len(s.collections[i].Segments) > 0 {
			return i, true
		}
	}
	return 0, false
}

func (s *Sequencer) prevNonEmpty(from int) (int, bool) {
	for i := from; i >= 0; i-- {
		if len(s.collections[i].Segments) > 0 {
			return i, true
		}
	}
	return 0, false
}
