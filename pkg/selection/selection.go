// Package selection implements fixed-size batches of generated,
// mutually exclusive options presented for a single user choice.
package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyChosen indicates a second choice was attempted on a set that
// already has a chosen option.
var ErrAlreadyChosen = errors.New("selection already chosen")

// OutOfRangeError indicates a choice index outside the option range.
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("choice index %d out of range [0, %d)", e.Index, e.Count)
}

// InsufficientOptionsError indicates generation produced fewer distinct
// parseable options than requested. Sets are never padded or deduplicated
// up to size.
type InsufficientOptionsError struct {
	Want int
	Got  int
}

func (e *InsufficientOptionsError) Error() string {
	return fmt.Sprintf("insufficient options: wanted %d, got %d", e.Want, e.Got)
}

// Option is a single labeled candidate with a stable index.
type Option[T any] struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Value T      `json:"value"`
}

// Set is an ordered batch of exactly N candidates for one user choice.
// Once an option is chosen the set is immutable.
type Set[T any] struct {
	Kind        string      `json:"kind"`
	Options     []Option[T] `json:"options"`
	ChosenIndex *int        `json:"chosen_index,omitempty"`
}

// New builds a Set from generated values. Values with duplicate labels
// (case-insensitive) are collapsed before the count check, so a generation
// that repeats itself fails with InsufficientOptionsError rather than
// presenting the same option twice.
func New[T any](kind string, values []T, label func(T) string, count int) (*Set[T], error) {
	seen := make(map[string]bool, len(values))
	options := make([]Option[T], 0, count)
	for _, v := range values {
		l := strings.TrimSpace(label(v))
		if l == "" || seen[strings.ToLower(l)] {
			continue
		}
		seen[strings.ToLower(l)] = true
		options = append(options, Option[T]{Index: len(options), Label: l, Value: v})
		if len(options) == count {
			break
		}
	}
	if len(options) < count {
		return nil, &InsufficientOptionsError{Want: count, Got: len(options)}
	}
	return &Set[T]{Kind: kind, Options: options}, nil
}

// Choose marks the option at index as chosen and returns its value.
// Choosing twice fails with ErrAlreadyChosen; an index outside the option
// range fails with OutOfRangeError. Neither failure mutates the set.
func (s *Set[T]) Choose(index int) (T, error) {
	var zero T
	if s.ChosenIndex != nil {
		return zero, ErrAlreadyChosen
	}
	if index < 0 || index >= len(s.Options) {
		return zero, &OutOfRangeError{Index: index, Count: len(s.Options)}
	}
	s.ChosenIndex = &index
	return s.Options[index].Value, nil
}

// Chosen returns the chosen value, if any.
func (s *Set[T]) Chosen() (T, bool) {
	var zero T
	if s.ChosenIndex == nil {
		return zero, false
	}
	return s.Options[*s.ChosenIndex].Value, true
}

// Labels returns the option labels in presentation order.
func (s *Set[T]) Labels() []string {
	labels := make([]string, len(s.Options))
	for i, opt := range s.Options {
		labels[i] = opt.Label
	}
	return labels
}
