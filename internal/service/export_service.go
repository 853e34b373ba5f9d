package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/lms-portal/internal/dto"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/export"
)

// Roster export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// RosterFile is a rendered roster ready to be sent as an attachment.
type RosterFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders module rosters for download.
type ExportService struct {
	renderers map[string]renderer
	now       func() time.Time
}

// NewExportService constructs the service with the CSV and PDF renderers.
func NewExportService() *ExportService {
	return &ExportService{
		renderers: map[string]renderer{
			FormatCSV: export.NewCSVExporter(),
			FormatPDF: export.NewPDFExporter(),
		},
		now: time.Now,
	}
}

// Roster renders roster in format. An empty format means CSV.
func (s *ExportService) Roster(roster *dto.Roster, format string) (*RosterFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if roster == nil {
		return nil, appErrors.ErrModuleNotFound
	}

	body, err := r.Render(rosterDataset(roster))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	name := fmt.Sprintf("roster_%s_%s.%s", sanitizeFilename(roster.Module.Code), s.now().UTC().Format("20060102"), format)
	return &RosterFile{Filename: name, ContentType: r.ContentType(), Body: body}, nil
}

func rosterDataset(roster *dto.Roster) export.Dataset {
	m := roster.Module
	data := export.Dataset{
		Title:   fmt.Sprintf("%s %s (%d/%d)", m.Code, m.Name, m.EnrolledCount, m.Limit),
		Headers: []string{"Username", "Name", "Email", "Enrolled At"},
		Rows:    make([][]string, 0, len(roster.Students)),
	}
	for _, st := range roster.Students {
		enrolledAt := ""
		if !st.EnrolledAt.IsZero() {
			enrolledAt = st.EnrolledAt.UTC().Format("2006-01-02")
		}
		data.Rows = append(data.Rows, []string{st.Username, st.FullName, st.Email, enrolledAt})
	}
	return data
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "module"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}
