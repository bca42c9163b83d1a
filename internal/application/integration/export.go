package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// ExportLogLimit is the number of log entries included in an export
const ExportLogLimit = 100

// ExportArchiver stores a copy of an export document and returns a
// time-limited download URL for it
type ExportArchiver interface {
	Archive(ctx context.Context, key string, body []byte) (string, error)
}

// SetExportArchiver enables archiving of export documents
func (s *IntegrationService) SetExportArchiver(a ExportArchiver) {
	s.archiver = a
}

// Export builds the downloadable snapshot of an owned integration.
// A failing provider fetch is embedded in the document rather than returned.
func (s *IntegrationService) Export(ctx context.Context, userID, id uuid.UUID) (*ExportResult, error) {
	i, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	links, err := s.projects.FindByIntegration(ctx, i.ID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.FindRecent(ctx, i.ID, ExportLogLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &ExportDocument{
		Integration: ExportIntegration{
			ID:        i.ID,
			Name:      i.Name,
			Type:      i.Type,
			Status:    i.Status,
			Config:    i.Config,
			LastSync:  i.LastSync,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
			Projects:  projectIDs(links),
		},
		Logs:        ToLogResponses(logs),
		CurrentData: s.currentData(ctx, i),
		ExportDate:  now,
		Version:     ExportVersion,
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	result := &ExportResult{
		Document: doc,
		Body:     body,
		Filename: ExportFilename(i.Name, now.Format(integration.DateLayout)),
	}

	if s.archiver != nil {
		key := fmt.Sprintf("%s/%s", i.ID, result.Filename)
		url, err := s.archiver.Archive(ctx, key, body)
		if err != nil {
			s.logger.Warn("Failed to archive export",
				zap.String("integration_id", i.ID.String()), zap.Error(err))
		} else {
			result.ArchiveURL = url
		}
	}

	return result, nil
}

func (s *IntegrationService) currentData(ctx context.Context, i *integration.Integration) any {
	if !i.Type.IsSyncable() {
		return map[string]any{"message": "Data export not supported for this integration type"}
	}
	adapter, err := s.factory.Create(i.Type, i.Config)
	if err == nil {
		var data integration.ProviderData
		data, err = adapter.FetchData(ctx, nil)
		if err == nil {
			return data
		}
	}
	s.logger.Warn("Export could not fetch current data",
		zap.String("integration_id", i.ID.String()),
		zap.String("provider", i.Type.String()),
		zap.Error(err))
	return map[string]any{
		"error":   "Failed to fetch current data",
		"message": err.Error(),
	}
}

// ExportFilename returns "<name>-export-<day>.json" with characters that
// would break a Content-Disposition header replaced.
func ExportFilename(name, day string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20 || r == 0x7f:
			return '_'
		default:
			return r
		}
	}, name)
	return fmt.Sprintf("%s-export-%s.json", clean, day)
}
