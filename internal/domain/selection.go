package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Selection is a candidate's choice for one question: either an option index
// or unanswered. The zero value is unanswered.
type Selection struct {
	index    int
	answered bool
}

// Choose selects the option at index i.
func Choose(i int) Selection {
	return Selection{index: i, answered: true}
}

// Unanswered is the explicit "no choice" selection.
func Unanswered() Selection {
	return Selection{}
}

// Index returns the chosen option and whether one was chosen.
func (s Selection) Index() (int, bool) {
	return s.index, s.answered
}

// Ptr returns the chosen index as a pointer, nil when unanswered.
func (s Selection) Ptr() *int {
	if !s.answered {
		return nil
	}
	i := s.index
	return &i
}

// MarshalJSON encodes an index or null.
func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.answered {
		return []byte("null"), nil
	}
	return json.Marshal(s.index)
}

// UnmarshalJSON accepts an integer index or null.
func (s *Selection) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Unanswered()
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("selection must be an option index or null: %w", err)
	}
	*s = Choose(i)
	return nil
}

// AnswerSheet maps question IDs to the candidate's selections. Questions
// missing from the sheet are treated as unanswered.
type AnswerSheet map[string]Selection
