package finance

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/covenant-hq/covenant/internal/ledger/chart"
	"github.com/covenant-hq/covenant/internal/ledger/subledger"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var amountPrinter = message.NewPrinter(language.English)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	if _, err := s.buf.WriteString(line); err != nil {
		return err
	}
	return nil
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func writeDelinquencyCSV(w io.Writer, tenantID int64, asOf time.Time, delinquents []subledger.Delinquent) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment("# Report: Delinquency List"); err != nil {
		return err
	}
	if err := streamer.writeComment(fmt.Sprintf("# Tenant: %d | As of: %s", tenantID, asOf.Format("2006-01-02"))); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Resident ID", "Name", "Unit", "Balance Due"}); err != nil {
		return err
	}
	for _, d := range delinquents {
		if err := streamer.writeRow([]string{
			strconv.FormatInt(d.ResidentID, 10),
			d.DisplayName,
			d.Unit,
			formatAmount(d.Balance),
		}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// ExportDelinquencies streams the delinquency list as a CSV download.
func (h *Handler) ExportDelinquencies(w http.ResponseWriter, r *http.Request) {
	tid := tenantID(r)
	delinquents, err := h.subledger.Delinquents(r.Context(), tid, chart.RoleReceivable)
	if err != nil {
		h.respondError(w, err)
		return
	}
	now := time.Now()
	filename := fmt.Sprintf("delinquencies-%s.csv", now.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writeDelinquencyCSV(w, tid, now, delinquents); err != nil {
		h.logger.Error("delinquency csv export", "error", err)
	}
}
