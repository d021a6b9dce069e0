// cmd/curriculumctl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/export"
	"github.com/Corphon/CurriculumDesigner/internal/migrate"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.close()

			list, err := e.sessions.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODE\tTITLE\tUPDATED")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Mode, s.Title, s.UpdatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

// newImportCmd loads saved session files, enveloped or bare, into the store
// at the current schema version.
func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import saved session files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				rec, err := storage.DecodeRecord(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				var sess models.Session
				from := rec.Version
				if _, err := migrate.Decode(rec.State, rec.Version, &sess); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if sess.ID == "" {
					sess.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
				state, err := json.Marshal(&sess)
				if err != nil {
					return err
				}
				if err := e.store.Save(cmd.Context(), sess.ID, &storage.Record{Version: migrate.CurrentVersion, State: state}); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (v%d -> v%d)\n", sess.ID, from, migrate.CurrentVersion)
			}
			return nil
		},
	}
}

func newDumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump ID",
		Short: "Print a session's stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.close()

			rec, err := e.store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			data, err := storage.EncodeRecord(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// newMigrateCmd rewrites every stored session at the current schema version.
func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade every stored session to the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.close()

			ids, err := e.store.List(cmd.Context())
			if err != nil {
				return err
			}
			upgraded := 0
			for _, id := range ids {
				rec, err := e.store.Load(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("session %s: %w", id, err)
				}
				if rec.Version >= migrate.CurrentVersion {
					continue
				}
				if _, err := e.sessions.Update(cmd.Context(), id, func(*models.Session) error { return nil }); err != nil {
					return fmt.Errorf("session %s: %w", id, err)
				}
				upgraded++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d sessions upgraded to v%d\n", upgraded, len(ids), migrate.CurrentVersion)
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		format string
		out    string
		author string
		chrome string
	)
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Package a session as markdown zip, HTML slides or PDF zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.close()

			var renderer *export.RodRenderer
			if format == models.ExportPDF {
				renderer = export.NewRodRenderer(chrome)
				defer renderer.Close()
			}
			var pdf export.PDFRenderer
			if renderer != nil {
				pdf = renderer
			}
			exports := services.NewExportService(e.sessions, pdf, services.ExportOptions{Author: author, PDFConcurrency: 2}, nil, e.logger)

			var res *models.ExportResult
			switch format {
			case models.ExportMarkdown:
				res, err = exports.Markdown(cmd.Context(), args[0])
			case models.ExportSlides:
				res, err = exports.Slides(cmd.Context(), args[0])
			case models.ExportPDF:
				res, err = exports.PDF(cmd.Context(), args[0])
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, models.ExportMarkdown, models.ExportSlides, models.ExportPDF)
			}
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = res.FileName
			}
			if err := os.WriteFile(path, res.Data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, res.Size)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", models.ExportMarkdown, "markdown, slides or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: the export's file name)")
	cmd.Flags().StringVar(&author, "author", os.Getenv("EXPORT_AUTHOR"), "author shown on the title slide")
	cmd.Flags().StringVar(&chrome, "chrome", os.Getenv("CHROME_BIN"), "browser executable for pdf export")
	return cmd
}
