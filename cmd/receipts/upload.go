package main

import (
	"bufio"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dvloznov/receipts-web/internal/upload"
	"github.com/dvloznov/receipts-web/internal/views"
	"github.com/spf13/cobra"
)

func uploadCmd(a *app) *cobra.Command {
	var (
		brokerURL string
		legacyURL string
		recent    bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a receipt photo and have it parsed",
		Long: `Upload a receipt photo. The file goes straight to storage through a signed
URL from the broker, or through the legacy multipart endpoint when
--legacy-url (LEGACY_UPLOAD_URL) is set. The backend then parses it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, closeFile, err := openUpload(args[0])
			if err != nil {
				return err
			}
			defer closeFile()

			httpClient := &http.Client{Timeout: a.cfg.HTTPTimeout}
			var stager upload.Stager = &upload.PresignedStager{BrokerURL: brokerURL, HTTP: httpClient}
			if legacyURL != "" {
				stager = &upload.MultipartStager{URL: legacyURL, HTTP: httpClient}
			}

			dash := views.NewDashboard(a.api, a.log)
			defer dash.Close()

			o := upload.New(stager, a.api, dash.RefreshReceipts, a.log)
			defer o.Close()
			o.OnChange(func(s upload.Status) {
				if s.State != upload.StateIdle && s.State != upload.StateError {
					fmt.Fprintln(cmd.ErrOrStderr(), s.Message)
				}
			})

			final := o.Upload(cmd.Context(), f)
			if final.State != upload.StateSuccess {
				return errors.New(final.Message)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, final.Message)
			fmt.Fprintf(out, "Image: %s\n", final.ImageID)
			if recent {
				if rows := dash.Snapshot().Receipts; rows.Phase == views.PhaseSuccess {
					fmt.Fprintln(out)
					printReceipts(out, rows.Data)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&brokerURL, "broker-url", a.cfg.BrokerURL, "upload URL broker endpoint (or set BROKER_URL env)")
	f.StringVar(&legacyURL, "legacy-url", a.cfg.LegacyUploadURL, "legacy multipart upload endpoint (or set LEGACY_UPLOAD_URL env)")
	f.BoolVar(&recent, "recent", true, "list recent receipts after the upload")
	return cmd
}

// openUpload opens path and works out its content type from the extension,
// falling back to sniffing the first bytes.
func openUpload(path string) (upload.File, func(), error) {
	fh, err := os.Open(path)
	if err != nil {
		return upload.File{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return upload.File{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	body := bufio.NewReaderSize(fh, 512)
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		head, _ := body.Peek(512)
		contentType = http.DetectContentType(head)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	f := upload.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        body,
	}
	return f, func() { fh.Close() }, nil
}

