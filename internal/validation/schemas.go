// Package validation checks request bodies against JSON schemas before they
// are decoded.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidBody wraps every validation failure.
var ErrInvalidBody = errors.New("invalid request body")

const chatSchema = `{
	"type": "object",
	"properties": {
		"question": {"type": ["string", "null"]},
		"history": {"type": ["array", "null"]},
		"itinerary_content": {"type": ["string", "null"]}
	}
}`

const tripSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": ["string", "null"]},
		"itinerary": {"type": ["string", "null"]},
		"metadata": {"type": ["object", "null"]}
	}
}`

const summarySchema = `{
	"type": "object",
	"properties": {
		"itinerary": {"type": ["string", "null"]}
	}
}`

// Validator checks documents against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

var (
	ChatRequest    = mustCompile(chatSchema)
	TripRequest    = mustCompile(tripSchema)
	SummaryRequest = mustCompile(summarySchema)
)

func mustCompile(src string) *Validator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return &Validator{schema: schema}
}

// Validate checks the raw JSON body.
func (v *Validator) Validate(body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidBody)
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidBody, strings.Join(errs, "; "))
	}
	return nil
}
