package views

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\uFEFF"

// File is an export ready for delivery.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportCSV renders rows as id,merchant,amount,date with a UTF-8 byte order
// mark. Fields are quoted as RFC 4180 requires.
func ExportCSV(rows []normalize.Receipt, now time.Time) File {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	_ = w.Write([]string{"id", "merchant", "amount", "date"})
	for _, r := range rows {
		_ = w.Write([]string{r.ID, r.Merchant, decimalText(r.Amount), r.Date})
	}
	w.Flush()

	return File{
		Name:        exportName(now, "csv"),
		ContentType: "text/csv;charset=utf-8",
		Data:        buf.Bytes(),
	}
}

// ExportXLSX renders rows as a single-sheet workbook.
func ExportXLSX(rows []normalize.Receipt, now time.Time) (File, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return File{}, fmt.Errorf("ExportXLSX: name sheet: %w", err)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for i, h := range []string{"ID", "Merchant", "Amount", "Date"} {
		write(i+1, 1, h)
	}
	for i, r := range rows {
		row := i + 2
		write(1, row, r.ID)
		write(2, row, r.Merchant)
		if r.Amount.Valid {
			write(3, row, r.Amount.Decimal.InexactFloat64())
		}
		write(4, row, normalize.DisplayDate(r.Date))
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return File{}, fmt.Errorf("ExportXLSX: write workbook: %w", err)
	}
	return File{
		Name:        exportName(now, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

func exportName(now time.Time, ext string) string {
	return fmt.Sprintf("transactions-%s.%s", now.Format("2006-01-02"), ext)
}

// Sharer hands a file to a platform share mechanism.
type Sharer interface {
	CanShare() bool
	Share(ctx context.Context, f File) error
}

// Downloader saves a file and returns where it went.
type Downloader interface {
	Download(ctx context.Context, f File) (string, error)
}

// Sink delivers exports, preferring the Sharer when it is available.
type Sink struct {
	Sharer     Sharer
	Downloader Downloader
	Log        zerolog.Logger
}

// Deliver shares f when possible and falls back to downloading it. It returns
// a description of where the file went.
func (s Sink) Deliver(ctx context.Context, f File) (string, error) {
	if s.Sharer != nil && s.Sharer.CanShare() {
		err := s.Sharer.Share(ctx, f)
		if err == nil {
			return "shared " + f.Name, nil
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("Deliver: %w", err)
		}
		s.Log.Warn().Err(err).Str("file", f.Name).Msg("Share failed, downloading instead")
	}
	if s.Downloader == nil {
		return "", fmt.Errorf("Deliver: no way to save %s", f.Name)
	}
	path, err := s.Downloader.Download(ctx, f)
	if err != nil {
		return "", fmt.Errorf("Deliver: %w", err)
	}
	return path, nil
}

// DirDownloader writes files into Dir.
type DirDownloader struct {
	Dir string
}

// Download implements Downloader.
func (d DirDownloader) Download(ctx context.Context, f File) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("Download: create dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("Download: write %s: %w", path, err)
	}
	return path, nil
}

// CommandSharer shares a file by running Command with the path of a temporary
// copy as its last argument.
type CommandSharer struct {
	Command string
	Args    []string
}

// CanShare implements Sharer.
func (c CommandSharer) CanShare() bool {
	if c.Command == "" {
		return false
	}
	_, err := exec.LookPath(c.Command)
	return err == nil
}

// Share implements Sharer.
func (c CommandSharer) Share(ctx context.Context, f File) error {
	dir, err := os.MkdirTemp("", "receipts-share-")
	if err != nil {
		return fmt.Errorf("Share: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Data, 0o600); err != nil {
		return fmt.Errorf("Share: write temp file: %w", err)
	}

	args := append(append([]string(nil), c.Args...), path)
	if out, err := exec.CommandContext(ctx, c.Command, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("Share: %s: %w: %s", c.Command, err, bytes.TrimSpace(out))
	}
	return nil
}
