// ABOUTME: Contact import MCP tool handlers
// ABOUTME: Runs an import from a named source and reports per-source import state
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/contactshq/contacts"
	"github.com/harperreed/contactshq/models"
)

// SourceFunc builds a contact source by name; file only applies to vcard.
type SourceFunc func(name, file string) (contacts.Source, error)

type ImportHandlers struct {
	importer *contacts.Importer
	sources  SourceFunc
}

func NewImportHandlers(importer *contacts.Importer, sources SourceFunc) *ImportHandlers {
	return &ImportHandlers{importer: importer, sources: sources}
}

type ImportContactsInput struct {
	Source string `json:"source,omitempty" jsonschema:"vcard (default) or google"`
	File   string `json:"file,omitempty" jsonschema:"Path of the vCard file for the vcard source"`
}

type ImportContactsOutput struct {
	Source     string `json:"source"`
	Authorized bool   `json:"authorized"`
	Fetched    int    `json:"fetched"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
}

type ImportStatusInput struct {
	Source string `json:"source" jsonschema:"Source name, e.g. vcard or google"`
}

type ImportStatusOutput struct {
	Source       string `json:"source"`
	Status       string `json:"status"`
	LastImport   string `json:"last_import,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (h *ImportHandlers) ImportContacts(ctx context.Context, request *mcp.CallToolRequest, input ImportContactsInput) (*mcp.CallToolResult, ImportContactsOutput, error) {
	src, err := h.sources(input.Source, input.File)
	if err != nil {
		return nil, ImportContactsOutput{}, err
	}

	res, err := h.importer.Import(ctx, src)
	if errors.Is(err, contacts.ErrImportInProgress) {
		return nil, ImportContactsOutput{}, fmt.Errorf("an import is already running, try again shortly")
	}
	if err != nil {
		return nil, ImportContactsOutput{}, fmt.Errorf("import failed: %w", err)
	}

	return nil, ImportContactsOutput{
		Source:     src.Name(),
		Authorized: res.Authorized,
		Fetched:    res.Fetched,
		Imported:   res.Imported,
		Skipped:    res.Skipped,
	}, nil
}

func (h *ImportHandlers) ImportStatus(ctx context.Context, request *mcp.CallToolRequest, input ImportStatusInput) (*mcp.CallToolResult, ImportStatusOutput, error) {
	if input.Source == "" {
		return nil, ImportStatusOutput{}, fmt.Errorf("source is required")
	}
	state, err := h.importer.Status(ctx, input.Source)
	if err != nil {
		return nil, ImportStatusOutput{}, fmt.Errorf("failed to read import status: %w", err)
	}
	if state == nil {
		return nil, ImportStatusOutput{Source: input.Source, Status: "never"}, nil
	}

	out := ImportStatusOutput{Source: state.Source, Status: string(state.Status)}
	if state.LastSyncTime != nil {
		out.LastImport = state.LastSyncTime.UTC().Format(time.RFC3339)
	}
	if state.Status == models.SyncError {
		out.ErrorMessage = models.Deref(state.ErrorMessage)
	}
	return nil, out, nil
}
