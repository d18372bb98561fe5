// Package export renders the usage ledger as downloadable documents.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/entity"
	"github.com/posterops/poster-translator/internal/repository"
)

// CSVHeader is the fixed header row of the CSV export.
const CSVHeader = "session_id,ts,language,file_count,success_count,error_count,zip_path,duration_ms"

const tsLayout = "2006-01-02 15:04:05"

// Service is a small façade over the session repository that produces CSV or
// XLSX bytes for exports.
type Service struct {
	sessions repository.SessionRepository
	logger   *slog.Logger
}

func NewService(sessions repository.SessionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sessions: sessions, logger: logger}
}

// SessionsCSV returns all sessions, newest first, as a flat CSV file.
// Values are comma-joined literally; embedded commas are not escaped
// (accepted limitation of the format).
func (s *Service) SessionsCSV(ctx context.Context) ([]byte, error) {
	start := time.Now()
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, common.WrapError(err, "query sessions")
	}

	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, sess := range sessions {
		b.WriteString(fmt.Sprintf("%d,%s,%s,%d,%d,%d,%s,%d\n",
			sess.ID,
			sess.TS.Format(tsLayout),
			sess.Language,
			sess.FileCount,
			sess.SuccessCount,
			sess.ErrorCount,
			sess.ZipPath,
			sess.DurationMS,
		))
	}

	s.logger.Info("export.csv.ok",
		"rows", len(sessions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(b.String()), nil
}

// SessionsXLSX returns all sessions, newest first, as an XLSX workbook.
func (s *Service) SessionsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, common.WrapError(err, "query sessions")
	}

	f := excelize.NewFile()
	const sheet = "Sessions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Session ID",
		"Timestamp",
		"Language",
		"Files",
		"Succeeded",
		"Failed",
		"Zip Path",
		"Duration (ms)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, sess := range sessions {
		writeSessionRow(f, sheet, row+2, sess)
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // id
	_ = f.SetColWidth(sheet, "B", "B", 20) // timestamp
	_ = f.SetColWidth(sheet, "C", "C", 20) // language
	_ = f.SetColWidth(sheet, "D", "F", 11) // counts
	_ = f.SetColWidth(sheet, "G", "G", 60) // zip path
	_ = f.SetColWidth(sheet, "H", "H", 14) // duration

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "xlsx write")
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(sessions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSessionRow(f *excelize.File, sheet string, row int, sess entity.Session) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	write(1, sess.ID)
	write(2, sess.TS.Format(tsLayout))
	write(3, sess.Language)
	write(4, sess.FileCount)
	write(5, sess.SuccessCount)
	write(6, sess.ErrorCount)
	write(7, sess.ZipPath)
	write(8, sess.DurationMS)
}
