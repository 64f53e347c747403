package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"typequery/internal/connection"
)

// The server reports invalid taint models in two incompatible shapes:
// newer servers answer with a structured error list, legacy servers fail
// the query outright with one multi-line text payload. Both are
// normalized into InvalidModel records here.
var (
	// invalidModelName extracts the backtick-quoted entity name that
	// follows the fixed phrase in a structured error description.
	invalidModelName = regexp.MustCompile("Invalid model for `([^`]+)`")

	// invalidModelLine matches one full line of a legacy textual error.
	invalidModelLine = regexp.MustCompile("^Invalid model for `([^`]+)` defined in `(.*):([0-9]+)`: (.*)$")
)

// GetInvalidTaintModels validates all registered taint models and returns
// the failures as normalized records. A legacy server's textual failure
// is decomposed line by line; if any non-empty line does not parse, the
// original error is returned unchanged rather than a partial result, so a
// genuine server failure is never masked.
func GetInvalidTaintModels(ctx context.Context, conn connection.Connection) ([]InvalidModel, error) {
	reply, err := conn.QueryServer(ctx, "validate_taint_models()")
	if err != nil {
		var queryErr *connection.QueryError
		if errors.As(err, &queryErr) {
			return parseTextualModelErrors(err, queryErr.Message)
		}
		return nil, err
	}
	return parseStructuredModelErrors(reply)
}

// parseStructuredModelErrors handles the structured reply shape:
// {"errors": [{description, path, line, column}, ...]}. The entity name
// is lifted out of the description when present; descriptions about
// malformed annotations rather than unknown entities carry no name, which
// is not an error.
func parseStructuredModelErrors(reply json.RawMessage) ([]InvalidModel, error) {
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("invalid models: %w", err)
	}
	var body struct {
		Errors *[]struct {
			Description string `json:"description"`
			Path        string `json:"path"`
			Line        int    `json:"line"`
			Column      int    `json:"column"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(response, &body); err != nil {
		return nil, fmt.Errorf("invalid models: decoding response: %w", err)
	}
	if body.Errors == nil {
		return nil, fmt.Errorf("invalid models: reply has no errors field")
	}

	models := make([]InvalidModel, 0, len(*body.Errors))
	for _, serverError := range *body.Errors {
		name := ""
		if match := invalidModelName.FindStringSubmatch(serverError.Description); match != nil {
			name = match[1]
		}
		models = append(models, InvalidModel{
			FullyQualifiedName: name,
			Path:               serverError.Path,
			Line:               serverError.Line,
			FullErrorMessage:   serverError.Description,
		})
	}
	return models, nil
}

// parseTextualModelErrors handles the legacy shape: the query failed and
// the payload is one "Invalid model for ..." line per failure. Either
// every non-empty line parses, or the original failure is surfaced as-is;
// no line is silently dropped.
func parseTextualModelErrors(original error, payload string) ([]InvalidModel, error) {
	var models []InvalidModel
	for _, line := range strings.Split(payload, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		match := invalidModelLine.FindStringSubmatch(line)
		if match == nil {
			return nil, original
		}
		lineNumber, err := strconv.Atoi(match[3])
		if err != nil {
			return nil, original
		}
		models = append(models, InvalidModel{
			FullyQualifiedName: match[1],
			Path:               match[2],
			Line:               lineNumber,
			FullErrorMessage:   line,
		})
	}
	if len(models) == 0 {
		return nil, original
	}
	return models, nil
}
