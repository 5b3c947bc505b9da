package codeforces

import (
	"encoding/json"
	"errors"
	"fmt"

	"cfscaffold/internal/types"
)

var (
	// ErrFailed matches every *APIError: the service answered FAILED.
	ErrFailed = errors.New("codeforces: request failed")
	// ErrUnknownStatus is returned for a status tag other than OK or FAILED.
	ErrUnknownStatus = errors.New("codeforces: unknown response status")
	// ErrMalformedPayload is returned when a response does not match the
	// expected schema.
	ErrMalformedPayload = errors.New("codeforces: malformed payload")
	// ErrNotReady is returned when the standings never materialized within
	// the configured number of attempts.
	ErrNotReady = errors.New("codeforces: contest data not ready")
)

// APIError carries the comment of a FAILED response.
type APIError struct {
	Comment string
}

func (e *APIError) Error() string {
	if e.Comment == "" {
		return ErrFailed.Error()
	}
	return ErrFailed.Error() + ": " + e.Comment
}

// Is reports FAILED responses as ErrFailed.
func (e *APIError) Is(target error) bool {
	return target == ErrFailed
}

// Status is the tag of every API response.
type Status int

const (
	StatusOK Status = iota + 1
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// UnmarshalJSON accepts exactly the two known tags.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: status is not a string", ErrMalformedPayload)
	}
	switch raw {
	case "OK":
		*s = StatusOK
	case "FAILED":
		*s = StatusFailed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return nil
}

// Response is the envelope of every API call.
type Response struct {
	Status  Status           `json:"status"`
	Comment string           `json:"comment,omitempty"`
	Result  *StandingsResult `json:"result,omitempty"`
}

// StandingsResult is the subset of contest.standings this tool consumes.
// Rows are requested but ignored.
type StandingsResult struct {
	Contest  types.Contest   `json:"contest"`
	Problems []types.Problem `json:"problems" validate:"dive"`
}

func decodeResponse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		if errors.Is(err, ErrUnknownStatus) || errors.Is(err, ErrMalformedPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if resp.Status == 0 {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedPayload)
	}
	return &resp, nil
}
