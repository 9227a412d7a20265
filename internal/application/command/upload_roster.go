package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD ROSTER COMMAND
// Replaces a section's roster CSV. The upload is validated for the required
// columns before anything is written; a bad file leaves the old roster intact.
// ══════════════════════════════════════════════════════════════════════════════

// UploadRosterCommand contains a replacement roster file.
type UploadRosterCommand struct {
	// SectionLabel is the target section, any known alias.
	SectionLabel string

	// CSVData is the raw CSV file content.
	CSVData []byte

	// UploadedBy is the username performing the replacement.
	UploadedBy string
}

// Validate checks the command before any I/O happens.
func (c UploadRosterCommand) Validate() error {
	if c.SectionLabel == "" {
		return errors.New("upload_roster: section is required")
	}
	if len(c.CSVData) == 0 {
		return errors.New("upload_roster: empty file")
	}
	if c.UploadedBy == "" {
		return errors.New("upload_roster: uploaded_by is required")
	}
	return nil
}

// UploadRosterResult contains the outcome of a roster replacement.
type UploadRosterResult struct {
	// Section is the canonical section the roster was stored for.
	Section section.ID

	// Filename is where the roster was written.
	Filename string

	// Students is the entry count of the new roster.
	Students int
}

// UploadRosterHandler handles the UploadRosterCommand.
type UploadRosterHandler struct {
	catalog *section.Catalog
	rosters roster.Source
	log     *logger.Logger
}

// NewUploadRosterHandler creates a new UploadRosterHandler.
func NewUploadRosterHandler(catalog *section.Catalog, rosters roster.Source, log *logger.Logger) *UploadRosterHandler {
	return &UploadRosterHandler{catalog: catalog, rosters: rosters, log: log}
}

// Handle validates and stores the replacement roster, then loads it back to
// report the entry count actually on disk.
func (h *UploadRosterHandler) Handle(ctx context.Context, cmd UploadRosterCommand) (*UploadRosterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sec := h.catalog.Resolve(cmd.SectionLabel)
	filename, err := h.rosters.Save(ctx, sec, cmd.CSVData)
	if err != nil {
		return nil, fmt.Errorf("upload_roster: %w", err)
	}

	ros, err := h.rosters.Load(ctx, sec)
	if err != nil {
		return nil, fmt.Errorf("upload_roster: reload after save: %w", err)
	}

	h.log.Info("roster replaced",
		logger.Section(string(sec)),
		logger.Username(cmd.UploadedBy),
		logger.String("filename", filename),
		logger.Int("students", ros.Len()),
	)

	return &UploadRosterResult{Section: sec, Filename: filename, Students: ros.Len()}, nil
}
