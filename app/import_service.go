package app

import (
	"context"

	"studentperf/adapters/excel"
	"studentperf/domain/core"
	apperrors "studentperf/internal/errors"
	"studentperf/ports"

	"github.com/rs/zerolog/log"
)

// ImportResult reports a student import
type ImportResult struct {
	Direction ports.Direction `json:"direction"`
	Imported  int             `json:"imported"`
}

// ImportService loads students from spreadsheet exports
type ImportService struct {
	directions ports.DirectionRepository
	students   ports.StudentRepository
}

// NewImportService creates an import service
func NewImportService(directions ports.DirectionRepository, students ports.StudentRepository) *ImportService {
	return &ImportService{directions: directions, students: students}
}

// ImportFile reads students from an xlsx sheet or a CSV file into a
// direction, creating the direction when needed. For xlsx files an empty
// sheet selects the first one; the direction defaults to the sheet name.
func (s *ImportService) ImportFile(ctx context.Context, path, sheet, direction string) (*ImportResult, error) {
	reader := excel.NewDataReader(path)
	if sheet == "" {
		sheets, err := reader.Sheets()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list sheets")
		}
		if len(sheets) > 0 {
			sheet = sheets[0]
		}
	}
	if direction == "" {
		direction = sheet
	}
	if direction == "" {
		return nil, apperrors.InvalidInput("a direction name is required for CSV imports")
	}

	data, err := reader.ReadData(sheet)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, err)
	}

	dir, err := s.getOrCreateDirection(ctx, direction)
	if err != nil {
		return nil, err
	}
	students, err := excel.ParseStudents(data, dir.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse students")
	}
	ids, err := s.students.CreateMany(ctx, students)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to store students", err)
	}

	log.Info().Str("file", path).Str("direction", dir.Name).Int("students", len(ids)).Msg("students imported")
	return &ImportResult{Direction: *dir, Imported: len(ids)}, nil
}

func (s *ImportService) getOrCreateDirection(ctx context.Context, name string) (*ports.Direction, error) {
	dir, err := s.directions.GetByName(ctx, name)
	if err == nil {
		return dir, nil
	}
	if !core.IsNotFoundError(err) {
		return nil, apperrors.DatabaseError("failed to get direction", err)
	}
	dir, err = s.directions.Create(ctx, name)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to create direction", err)
	}
	return dir, nil
}
