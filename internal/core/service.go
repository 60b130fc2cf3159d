package core

// service.go orchestrates the pipeline: parse, validate, then import. The
// whole run is one synchronous pass inside the caller's request; nothing is
// retained between calls.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Pipeline-level sentinel errors, surfaced before any record is touched.
var (
	ErrUnknownRole   = errors.New("unknown meeting role")
	ErrNoRoles       = errors.New("at least one meeting role is required")
	ErrBatchTooLarge = errors.New("participant batch exceeds the configured maximum")
)

// ServiceOptions tunes the pipeline.
type ServiceOptions struct {
	// MaxRows caps the batch size. Zero means unlimited.
	MaxRows int

	// PasswordFunc overrides the fallback password generator.
	PasswordFunc func() string
}

// Service ties the parser, validator and importer together behind two
// operations: an advisory Validate and a mutating Import.
type Service struct {
	validator *Validator
	importer  *Importer
	maxRows   int
}

// NewService builds a Service from its registry collaborators.
func NewService(dir Directory, accounts Accounts, roles Roles, opts ServiceOptions) *Service {
	importer := NewImporter(dir, accounts, roles)
	if opts.PasswordFunc != nil {
		importer.SetPasswordGenerator(opts.PasswordFunc)
	}
	return &Service{
		validator: NewValidator(dir),
		importer:  importer,
		maxRows:   opts.MaxRows,
	}
}

// ImportResult summarizes one committed batch.
type ImportResult struct {
	BatchID      uuid.UUID  `json:"batch_id"`
	Count        int        `json:"count"`
	Participants []Imported `json:"participants"`
}

// Validate parses and checks the submitted text without touching any
// state. It returns nil when the batch would import cleanly, a
// *MalformedInputError when the text cannot be parsed, or a
// *ValidationError carrying the categorized report.
func (s *Service) Validate(ctx context.Context, text string) error {
	records, err := s.parse(text)
	if err != nil {
		return err
	}

	report, err := s.validator.Validate(ctx, records)
	if err != nil {
		return err
	}
	return report.Err()
}

// Import runs the full pipeline and materializes the batch. No account is
// created unless the whole batch validates; once materialization starts it
// runs to completion or fails with an *AccountCreationError that reports
// how many rows were already committed.
func (s *Service) Import(ctx context.Context, scope MeetingScope, text string, roles []Role) (*ImportResult, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	for _, r := range roles {
		if !ValidRole(r) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, r)
		}
	}

	records, err := s.parse(text)
	if err != nil {
		return nil, err
	}

	report, err := s.validator.Validate(ctx, records)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, err
	}

	batchID := uuid.New()
	logger := slog.Default().With("batch_id", batchID, "meeting_id", scope.MeetingID)
	logger.Info("importing participants", "rows", len(records), "roles", roles)

	participants, err := s.importer.Import(ctx, scope, records, roles)
	if err != nil {
		logger.Error("participant import failed",
			"imported", len(participants),
			"error", err,
		)
		return nil, err
	}

	logger.Info("participants imported", "count", len(participants))

	return &ImportResult{
		BatchID:      batchID,
		Count:        len(participants),
		Participants: participants,
	}, nil
}

// parse runs the record parser and applies the batch size cap.
func (s *Service) parse(text string) ([]Record, error) {
	records, err := ParseRecords(text)
	if err != nil {
		return nil, err
	}
	if s.maxRows > 0 && len(records) > s.maxRows {
		return nil, fmt.Errorf("%w: %d rows, maximum is %d", ErrBatchTooLarge, len(records), s.maxRows)
	}
	return records, nil
}
