package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrFetch         = errors.New("fetch failed")
	ErrMalformed     = errors.New("malformed input")
	ErrDraftPending  = errors.New("draft pending")
)

// NotFoundError reports a missing record by id.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id %d", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateNameError reports a dataset name collision on create or rename.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("dataset name %q already in use", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// DatasetNotFoundError reports a dangling symbolic reference during
// resolution. It names the missing dataset so the message is actionable.
type DatasetNotFoundError struct {
	Name string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset %q not found, the specification references it but no dataset with that name exists", e.Name)
}

func (e *DatasetNotFoundError) Unwrap() error { return ErrNotFound }

// QuotaExceededError reports a snippet write that would push the serialized
// collection past its byte quota. The store is left untouched.
type QuotaExceededError struct {
	Used      int64
	Quota     int64
	Attempted int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("snippet store quota exceeded: %d of %d bytes used, write of %d bytes rejected", e.Used, e.Quota, e.Attempted)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

type FetchKind string

const (
	FetchBlocked  FetchKind = "blocked"
	FetchNotFound FetchKind = "notfound"
	FetchNetwork  FetchKind = "network"
	FetchParse    FetchKind = "parse"
)

// FetchError reports a failed remote dataset fetch. Kind distinguishes
// access-blocked responses from missing resources, transport failures and
// unparseable payloads; prior cached metadata is retained by the caller.
type FetchError struct {
	URL  string
	Kind FetchKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %s: %s", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return ErrFetch }

// MalformedInputError aborts an import batch before any writes.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed import input: %s", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformed }
