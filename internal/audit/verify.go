package audit

import "fmt"

// ChainResult describes the outcome of walking the whole chain.
type ChainResult struct {
	Valid      bool   `json:"valid"`
	EntryCount uint64 `json:"entry_count"`
	// BrokenAt is the first sequence that failed verification.
	BrokenAt uint64 `json:"broken_at,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VerifyChain checks every entry's hash, its link to the previous entry,
// and that sequences have no gaps.
func (s *Store) VerifyChain() (*ChainResult, error) {
	entries, err := s.All()
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	result := &ChainResult{Valid: true, EntryCount: uint64(len(entries))}
	prevHash := ""
	want := FirstSequence
	for _, e := range entries {
		switch {
		case e.Sequence != want:
			result.fail(want, fmt.Sprintf("sequence gap: expected %d, found %d", want, e.Sequence))
		case e.PrevHash != prevHash:
			result.fail(e.Sequence, fmt.Sprintf("entry %d does not link to entry %d", e.Sequence, e.Sequence-1))
		case !e.Verify():
			result.fail(e.Sequence, fmt.Sprintf("entry %d hash mismatch", e.Sequence))
		}
		if !result.Valid {
			return result, nil
		}
		prevHash = e.Hash
		want++
	}
	return result, nil
}

func (r *ChainResult) fail(seq uint64, msg string) {
	r.Valid = false
	r.BrokenAt = seq
	r.Error = msg
}
