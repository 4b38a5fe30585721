package petition

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Petition is one feed entry. Values are copied, never shared.
type Petition struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	SignatureCount int    `json:"signatureCount"`
}

// Row is what a presentation surface needs to draw one list line.
type Row struct {
	Title string
	Body  string
}

func Rows(records []Petition) []Row {
	rows := make([]Row, len(records))
	for i, p := range records {
		rows[i] = Row{Title: p.Title, Body: p.Body}
	}
	return rows
}

var ErrMalformed = errors.New("malformed petition feed")

// DecodeError reports why a feed document was rejected. Index is -1 for
// document-level problems.
type DecodeError struct {
	Index int
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("decoding feed: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("decoding feed: result %d: %v", e.Index, e.Err)
	default:
		return fmt.Sprintf("decoding feed: result %d: field %q: %v", e.Index, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

var (
	errMissing  = errors.New("missing or null")
	errNegative = errors.New("must not be negative")
)

type wireFeed struct {
	Results *[]*wirePetition `json:"results"`
}

type wirePetition struct {
	Title          *string `json:"title"`
	Body           *string `json:"body"`
	SignatureCount *int    `json:"signatureCount"`
}

// Decode parses a {"results": [...]} document. Either every element decodes
// or none is returned.
func Decode(data []byte) ([]Petition, error) {
	var doc wireFeed
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Index: -1, Err: err}
	}
	if doc.Results == nil {
		return nil, &DecodeError{Index: -1, Field: "results", Err: errMissing}
	}

	items := *doc.Results
	out := make([]Petition, 0, len(items))
	for i, w := range items {
		if w == nil {
			return nil, &DecodeError{Index: i, Err: errMissing}
		}
		switch {
		case w.Title == nil:
			return nil, &DecodeError{Index: i, Field: "title", Err: errMissing}
		case w.Body == nil:
			return nil, &DecodeError{Index: i, Field: "body", Err: errMissing}
		case w.SignatureCount == nil:
			return nil, &DecodeError{Index: i, Field: "signatureCount", Err: errMissing}
		case *w.SignatureCount < 0:
			return nil, &DecodeError{Index: i, Field: "signatureCount", Err: errNegative}
		}
		out = append(out, Petition{
			Title:          *w.Title,
			Body:           *w.Body,
			SignatureCount: *w.SignatureCount,
		})
	}
	return out, nil
}
