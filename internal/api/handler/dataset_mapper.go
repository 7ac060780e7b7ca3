package handler

import (
	"time"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// timestampLayout renders UTC instants with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// --- Request → Service input ---

func toCreateInput(req createDatasetRequest, session *domain.UserSession) ports.CreateDatasetInput {
	return ports.CreateDatasetInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Data:        req.Data,
		Session:     session,
	}
}

func toUpdateInput(id string, req updateDatasetRequest) ports.UpdateDatasetInput {
	return ports.UpdateDatasetInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Data:        req.Data,
	}
}

// --- Domain → Response ---

func toDatasetResponse(d *domain.Dataset) datasetResponse {
	data := d.Data
	if data == nil {
		data = []string{}
	}
	return datasetResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Data:        data,
		ItemCount:   len(data),
		CreatedAt:   formatTime(d.CreatedAt),
		UpdatedAt:   formatTime(d.UpdatedAt),
		CreatedBy:   d.CreatedBy,
	}
}

func toDatasetResponses(items []*domain.Dataset) []datasetResponse {
	out := make([]datasetResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toDatasetResponse(d))
	}
	return out
}

func toPublicResponse(m map[string]domain.PublicDataset) map[string]publicDataset {
	out := make(map[string]publicDataset, len(m))
	for name, d := range m {
		data := d.Data
		if data == nil {
			data = []string{}
		}
		out[name] = publicDataset{Description: d.Description, Data: data}
	}
	return out
}

func toSessionUser(s *domain.UserSession) sessionUser {
	return sessionUser{ID: s.ID, Email: s.Email, Name: s.Name, Picture: s.Picture}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
