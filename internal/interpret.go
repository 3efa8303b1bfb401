package internal

import "strings"

// DoneText is shown for a successful result that printed nothing
const DoneText = "Done."

// Outcome discriminates a query response
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

func (o Outcome) String() string {
	if o == OutcomeFailure {
		return "failure"
	}
	return "success"
}

// ResponsePayload is the body of a query response. Every field is optional;
// nil means the backend did not send it.
type ResponsePayload struct {
	OK            *bool    `json:"ok,omitempty"`
	Stdout        *string  `json:"stdout,omitempty"`
	Table         []Row    `json:"table,omitempty"`
	Columns       []string `json:"columns,omitempty"`
	Charts        []string `json:"charts,omitempty"`
	GeneratedCode *string  `json:"generated_code,omitempty"`
	Generated     *string  `json:"generated,omitempty"` // sent instead of generated_code when code was refused
	Stderr        *string  `json:"stderr,omitempty"`
	Error         *string  `json:"error,omitempty"`
}

// Outcome reports failure whenever a non-empty error is present, whatever
// the HTTP status was.
func (p *ResponsePayload) Outcome() Outcome {
	if p != nil && p.Error != nil && *p.Error != "" {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func (p *ResponsePayload) code() *string {
	if p.GeneratedCode != nil {
		return p.GeneratedCode
	}
	return p.Generated
}

// Interpret maps any payload to a bot entry. It never fails and never
// drops a field the backend sent.
func Interpret(p *ResponsePayload) MessageEntry {
	if p == nil {
		p = &ResponsePayload{}
	}

	entry := MessageEntry{
		Role:    RoleBot,
		Table:   cloneRows(p.Table),
		Columns: cloneStrings(p.Columns),
		Charts:  cloneStrings(p.Charts),
		Code:    cloneStringPtr(p.code()),
		Stderr:  cloneStringPtr(p.Stderr),
	}

	if p.Outcome() == OutcomeFailure {
		entry.Text = StringPtr("Error: " + *p.Error)
		entry.Error = cloneStringPtr(p.Error)
		return entry
	}

	text := strings.TrimSpace(deref(p.Stdout))
	if text == "" {
		text = DoneText
	}
	entry.Text = StringPtr(text)
	return entry
}
