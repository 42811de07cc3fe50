// Package query builds public-inbox search queries from commits and raw text.
package query

import (
	"net/url"
	"strings"
)

// Mode selects how the positional input is turned into a search query.
type Mode int

const (
	// ModePatchID searches by the commit's patch content fingerprint.
	ModePatchID Mode = iota
	// ModeSubject searches by the commit's subject line.
	ModeSubject
	// ModeQuery passes the input through as a raw search-language query.
	ModeQuery
)

func (m Mode) String() string {
	switch m {
	case ModePatchID:
		return "patchid"
	case ModeSubject:
		return "subject"
	case ModeQuery:
		return "query"
	}
	return "unknown"
}

// ResultMode selects how the archive shapes its response.
type ResultMode int

const (
	// ResultsOnly returns only the directly matching messages.
	ResultsOnly ResultMode = iota
	// FullThreads expands every match into its entire discussion thread.
	FullThreads
)

// Token returns the form-body parameter the archive expects for this mode.
func (r ResultMode) Token() string {
	if r == FullThreads {
		return "x=full+threads"
	}
	return "z=results+only"
}

func (r ResultMode) String() string {
	if r == FullThreads {
		return "full-threads"
	}
	return "results-only"
}

// Field prefixes from the public-inbox search language.
const (
	// PrefixFilename scopes a term to filenames appearing in diffs.
	PrefixFilename = "dfn:"
	// PrefixFunction scopes a term to diff hunk headers (function context).
	PrefixFunction = "dfhh:"
)

// Resolve decides the effective search mode. Input containing a colon is
// always a raw query, as is input carrying an explicit field prefix.
func Resolve(flagMode Mode, input, prefix string) Mode {
	if strings.Contains(input, ":") || prefix != "" {
		return ModeQuery
	}
	return flagMode
}

// Query is an encoded search string plus the response-shaping mode, passed
// verbatim to the fetch step.
type Query struct {
	Encoded string
	Result  ResultMode
}

// ForPatchID builds a full-thread query for a patch fingerprint.
func ForPatchID(patchID string) Query {
	return Query{Encoded: "patchid:" + Escape(patchID), Result: FullThreads}
}

// ForSubject builds a results-only query scoped to the subject field.
func ForSubject(subject string) Query {
	return Query{Encoded: "s:" + Escape(subject), Result: ResultsOnly}
}

// ForRaw builds a results-only query from user text, keeping an explicit
// field prefix (if any) unencoded in front.
func ForRaw(text, prefix string) Query {
	return Query{Encoded: prefix + Escape(text), Result: ResultsOnly}
}

// WithResult returns a copy with the result mode forced.
func (q Query) WithResult(r ResultMode) Query {
	q.Result = r
	return q
}

// Escape percent-encodes text for the q= parameter. Spaces become '+'; a
// literal '+' in the input is encoded as %2B and never reinterpreted as a
// space.
func Escape(s string) string {
	return url.QueryEscape(s)
}

// Slug replaces every non-alphanumeric byte with '.', preserving length and
// the case of alphanumeric runs. The result is safe as a filename, and also
// works as a display-highlight pattern since '.' matches whatever character
// it replaced.
func Slug(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			out[i] = '.'
		}
	}
	return string(out)
}
