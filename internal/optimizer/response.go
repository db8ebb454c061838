package optimizer

import (
	"encoding/json"

	"atsmatch/internal/schemas"
)

// ResponseKind tags how a generator reply was interpreted
type ResponseKind int

const (
	// ResponseParsed means the reply matched {resume, changes}
	ResponseParsed ResponseKind = iota
	// ResponseRawFallback means the reply is used verbatim as the resume
	ResponseRawFallback
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseParsed:
		return "parsed"
	case ResponseRawFallback:
		return "raw_fallback"
	default:
		return "unknown"
	}
}

// ParsedResponse is the tagged interpretation of a generator reply. Reason
// explains a fallback and is empty otherwise.
type ParsedResponse struct {
	Kind    ResponseKind
	Resume  string
	Changes []string
	Reason  error
}

type structuredReply struct {
	Resume  string   `json:"resume"`
	Changes []string `json:"changes"`
}

// ParseResponse interprets raw generator output. It never fails: anything that
// is not a schema-valid {resume, changes} object becomes a raw fallback whose
// resume is the untouched reply and whose only change is fallbackNote.
func ParseResponse(raw, fallbackNote string) ParsedResponse {
	doc := schemas.StripCodeFences(raw)
	if err := schemas.OptimizationResponse.Validate(doc); err != nil {
		return rawFallback(raw, fallbackNote, err)
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(doc), &reply); err != nil {
		return rawFallback(raw, fallbackNote, err)
	}
	if reply.Changes == nil {
		reply.Changes = []string{}
	}
	return ParsedResponse{Kind: ResponseParsed, Resume: reply.Resume, Changes: reply.Changes}
}

func rawFallback(raw, note string, reason error) ParsedResponse {
	return ParsedResponse{
		Kind:    ResponseRawFallback,
		Resume:  raw,
		Changes: []string{note},
		Reason:  reason,
	}
}
