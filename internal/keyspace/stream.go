package keyspace

import (
	"fmt"
	"sort"
)

// StreamID is a (ms, seq) pair. IDs order lexicographically on (ms,seq),
// per spec.md §3.
type StreamID struct {
	Ms  int64
	Seq uint64
}

func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

func (id StreamID) String() string {
	return fmt.Sprintf("%d-%d", id.Ms, id.Seq)
}

// MinStreamID / MaxStreamID bound the ID space, used by XRANGE's "-"/"+".
var (
	MinStreamID = StreamID{Ms: 0, Seq: 0}
	MaxStreamID = StreamID{Ms: int64(^uint64(0) >> 1), Seq: ^uint64(0)}
)

// StreamField is one field/value pair attached to a stream entry.
type StreamField struct {
	Field, Value []byte
}

// StreamEntry is one appended record.
type StreamEntry struct {
	ID     StreamID
	Fields []StreamField
}

// stream holds entries ordered by ID plus the last-assigned ID, so `*`
// auto-assignment and the monotonicity check (spec.md §3) are O(1).
type stream struct {
	entries []StreamEntry // ascending by ID
	lastID  StreamID
}

func newStream() *stream { return &stream{} }

// Entries returns a defensive copy of the stream's entries in ascending
// ID order, for internal/persistence's snapshot encoder.
func (s *stream) Entries() []StreamEntry {
	out := make([]StreamEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// LastID returns the stream's last-assigned ID, for internal/persistence
// to preserve monotonicity across a save/load round-trip even when the
// stream is empty (XADD NOMKSTREAM-adjacent edge case: a trimmed-to-empty
// stream must still reject IDs at or below its former high-water mark).
func (s *stream) LastID() StreamID { return s.lastID }

func (s *stream) clone() *stream {
	cp := &stream{lastID: s.lastID, entries: make([]StreamEntry, len(s.entries))}
	copy(cp.entries, s.entries)
	return cp
}

// append adds entry if its ID strictly exceeds lastID, returning
// ErrStreamIDTooSmall otherwise (spec.md §3/§8 invariant 6).
func (s *stream) append(id StreamID, fields []StreamField) error {
	if len(s.entries) > 0 || s.lastID != (StreamID{}) {
		if !s.lastID.Less(id) {
			return ErrStreamIDTooSmall
		}
	}
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: fields})
	s.lastID = id
	return nil
}

// rangeBetween returns entries with start <= ID <= end, ascending.
func (s *stream) rangeBetween(start, end StreamID, count int) []StreamEntry {
	lo := sort.Search(len(s.entries), func(i int) bool { return !s.entries[i].ID.Less(start) })
	var out []StreamEntry
	for i := lo; i < len(s.entries); i++ {
		if end.Less(s.entries[i].ID) {
			break
		}
		out = append(out, s.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// rangeBetweenRev is rangeBetween in descending order (XREVRANGE).
func (s *stream) rangeBetweenRev(start, end StreamID, count int) []StreamEntry {
	fwd := s.rangeBetween(start, end, 0)
	out := make([]StreamEntry, len(fwd))
	for i, e := range fwd {
		out[len(fwd)-1-i] = e
	}
	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out
}

func (s *stream) del(ids []StreamID) int {
	want := make(map[StreamID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	kept := s.entries[:0:0]
	n := 0
	for _, e := range s.entries {
		if _, ok := want[e.ID]; ok {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return n
}

// trim removes entries from the head until length <= maxlen, returning
// the number removed.
func (s *stream) trim(maxlen int) int {
	if len(s.entries) <= maxlen {
		return 0
	}
	removed := len(s.entries) - maxlen
	s.entries = s.entries[removed:]
	return removed
}
