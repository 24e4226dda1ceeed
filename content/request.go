package content

import (
	"fmt"
	"strings"
)

const (
	// MinLength and MaxLength bound the requested word count.
	MinLength = 100
	MaxLength = 5000

	// DefaultLength is used when no word count is requested.
	DefaultLength = 1000
)

// Request describes one piece of content to generate. Construct it with
// NewRequest so invalid combinations are rejected up front; a Request is
// never mutated after construction.
type Request struct {
	Topic              string   `json:"topic"`
	Country            Country  `json:"country"`
	Language           string   `json:"language"`
	Industry           Industry `json:"industry"`
	Platform           Platform `json:"platform"`
	Tone               Tone     `json:"tone"`
	Goal               Goal     `json:"goal"`
	Keywords           []string `json:"keywords,omitempty"`
	Length             int      `json:"length"`
	CustomInstructions string   `json:"custom_instructions,omitempty"`
}

// RequestOpts carries the optional fields of a Request; zero values fall
// back to defaults.
type RequestOpts struct {
	Country            Country
	Language           string
	Industry           Industry
	Platform           Platform
	Tone               Tone
	Goal               Goal
	Keywords           []string
	Length             int
	CustomInstructions string
}

// NewRequest validates and builds an immutable Request.
func NewRequest(topic string, opts RequestOpts) (Request, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Request{}, fmt.Errorf("topic must not be empty")
	}

	req := Request{
		Topic:              topic,
		Country:            opts.Country,
		Language:           opts.Language,
		Industry:           opts.Industry,
		Platform:           opts.Platform,
		Tone:               opts.Tone,
		Goal:               opts.Goal,
		Length:             opts.Length,
		CustomInstructions: strings.TrimSpace(opts.CustomInstructions),
	}

	if req.Country == "" {
		req.Country = CountryUS
	}
	if req.Industry == "" {
		req.Industry = IndustryGeneral
	}
	if req.Platform == "" {
		req.Platform = PlatformMedium
	}
	if req.Tone == "" {
		req.Tone = ToneProfessional
	}
	if req.Goal == "" {
		req.Goal = GoalEngagement
	}
	if req.Length == 0 {
		req.Length = DefaultLength
	}

	if !req.Country.Valid() {
		return Request{}, fmt.Errorf("unknown country %q", req.Country)
	}
	if !req.Industry.Valid() {
		return Request{}, fmt.Errorf("unknown industry %q", req.Industry)
	}
	if !req.Platform.Valid() {
		return Request{}, fmt.Errorf("unknown platform %q", req.Platform)
	}
	if !req.Tone.Valid() {
		return Request{}, fmt.Errorf("unknown tone %q", req.Tone)
	}
	if !req.Goal.Valid() {
		return Request{}, fmt.Errorf("unknown goal %q", req.Goal)
	}
	if req.Length < MinLength || req.Length > MaxLength {
		return Request{}, fmt.Errorf("length %d out of range [%d, %d]", req.Length, MinLength, MaxLength)
	}

	if req.Language == "" {
		req.Language = LanguageFor(req.Country)
	}

	for _, kw := range opts.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			req.Keywords = append(req.Keywords, kw)
		}
	}

	return req, nil
}
