// Package retrieval resolves a reference code in a query to a single record.
package retrieval

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"procintel/internal/logging"
	"procintel/internal/types"
)

// codePattern matches SEI-style reference codes such as 12345-678.2024.
var codePattern = regexp.MustCompile(`\d+-\d+\.\d+`)

// ErrNoMatch is matched by every *NoMatchError.
var ErrNoMatch = errors.New("no matching record")

// NoMatchError reports that no record contains Code. Code is empty when the
// query carried no reference code at all.
type NoMatchError struct {
	Code string
}

func (e *NoMatchError) Error() string {
	if e.Code == "" {
		return "no reference code in query"
	}
	return fmt.Sprintf("no record matches %s", e.Code)
}

// Is reports whether target is ErrNoMatch.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// ExtractCode returns the first reference code in text.
func ExtractCode(text string) (string, bool) {
	code := codePattern.FindString(text)
	return code, code != ""
}

// Kind says which collection a match came from.
type Kind int

const (
	KindProcess Kind = iota
	KindBidding
)

// Match is a resolved record. Exactly one of Process or Bidding is set.
type Match struct {
	Code    string
	Kind    Kind
	Process *types.ProcessRecord
	Bidding *types.BiddingRecord
}

// Resolver looks records up by reference code.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve finds the first record whose SEI contains the code found in query.
// Active processes are searched first, then completed processes, then
// biddings.
func (r *Resolver) Resolve(query string, active, completed []types.ProcessRecord, biddings []types.BiddingRecord) (Match, error) {
	code, ok := ExtractCode(query)
	if !ok {
		return Match{}, &NoMatchError{}
	}
	return r.ResolveCode(code, active, completed, biddings)
}

// ResolveCode is Resolve with an already extracted code.
func (r *Resolver) ResolveCode(code string, active, completed []types.ProcessRecord, biddings []types.BiddingRecord) (Match, error) {
	if code == "" {
		return Match{}, &NoMatchError{}
	}
	for _, set := range [][]types.ProcessRecord{active, completed} {
		for i := range set {
			if strings.Contains(set[i].SEI, code) {
				p := set[i]
				logging.RetrievalDebug("code %s resolved to process %s", code, p.ID)
				return Match{Code: code, Kind: KindProcess, Process: &p}, nil
			}
		}
	}
	for i := range biddings {
		if strings.Contains(biddings[i].SEI, code) {
			b := biddings[i]
			logging.RetrievalDebug("code %s resolved to bidding %s", code, b.ID)
			return Match{Code: code, Kind: KindBidding, Bidding: &b}, nil
		}
	}
	logging.RetrievalDebug("code %s matched nothing", code)
	return Match{}, &NoMatchError{Code: code}
}
