package destination

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty is the effort rating of a destination's itinerary.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ErrInvalidDraft is wrapped by every validation failure returned from Draft.Validate.
var ErrInvalidDraft = errors.New("invalid destination")

// ParseDifficulty accepts a difficulty in any casing and returns its canonical form.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidDraft, s)
}

// Details holds the trip parameters of a destination.
type Details struct {
	Duration   int        `json:"duration"`
	Difficulty Difficulty `json:"difficulty"`
	Price      float64    `json:"price"`
}

// Destination is a travel destination as served by the remote API.
// ID is assigned by the server and omitted when creating.
type Destination struct {
	ID          string   `json:"_id,omitempty"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Details     Details  `json:"details"`
	Highlights  []string `json:"highlights"`
}

// Draft is an editable destination that has not been submitted yet.
type Draft struct {
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Details     Details  `json:"details"`
	Highlights  []string `json:"highlights"`
}

// NewDraft returns an empty draft with the defaults of the add form:
// difficulty Easy and a single blank highlight row.
func NewDraft() Draft {
	return Draft{
		Details:    Details{Difficulty: Easy},
		Highlights: []string{""},
	}
}

// DraftFrom returns a draft pre-filled from an existing destination, for editing.
func DraftFrom(d Destination) Draft {
	return Draft{
		Name:        d.Name,
		Country:     d.Country,
		Description: d.Description,
		Details:     d.Details,
		Highlights:  append([]string(nil), d.Highlights...),
	}
}

// CleanHighlights drops highlights that are empty after trimming whitespace.
// The result is never nil.
func CleanHighlights(highlights []string) []string {
	out := make([]string, 0, len(highlights))
	for _, h := range highlights {
		if strings.TrimSpace(h) == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Validate checks the fields the add and edit forms require.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDraft)
	}
	if strings.TrimSpace(d.Country) == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidDraft)
	}
	if d.Details.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of days", ErrInvalidDraft)
	}
	if d.Details.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidDraft)
	}
	if _, err := ParseDifficulty(string(d.Details.Difficulty)); err != nil {
		return err
	}
	return nil
}

// Submission validates the draft and returns the record to send to the API,
// with blank highlights removed and the difficulty canonicalised.
func (d Draft) Submission() (Destination, error) {
	if err := d.Validate(); err != nil {
		return Destination{}, err
	}
	difficulty, _ := ParseDifficulty(string(d.Details.Difficulty))

	return Destination{
		Name:        strings.TrimSpace(d.Name),
		Country:     strings.TrimSpace(d.Country),
		Description: d.Description,
		Details: Details{
			Duration:   d.Details.Duration,
			Difficulty: difficulty,
			Price:      d.Details.Price,
		},
		Highlights: CleanHighlights(d.Highlights),
	}, nil
}
