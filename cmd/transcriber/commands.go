package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"transcriber/internal/archive"
	"transcriber/internal/pipeline"
	"transcriber/internal/storage"

	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	var bucket, key string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe one audio object",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			proc, closeFn, err := pipeline.Build(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeFn()

			start := time.Now()
			res, err := proc.Process(ctx, bucket, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s (%q) in %v\n", bucket, res.OutputKey, res.Title, time.Since(start).Round(time.Second))
			if res.Notes != nil && res.Notes.PageID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "notes page %s\n", res.Notes.PageID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&key, "key", "", "audio object key")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (a *app) publishCmd() *cobra.Command {
	var title, file string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a text document as a notes page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.NotionEnabled() {
				return fmt.Errorf("notion is not configured: set NOTION_TOKEN and NOTION_DATABASE_ID or NOTION_PAGE_ID")
			}
			doc, err := readDoc(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if title == "" {
				title = titleFromKey(file)
			}

			res, err := pipeline.NewPublisher(a.cfg, a.logger).Publish(cmd.Context(), title, doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "page %s: %d blocks in %d requests\n", res.PageID, res.Written, res.Requests)
			for _, b := range res.FailedBatches {
				fmt.Fprintf(out, "  batch %d (%d blocks) failed: %v\n", b.Batch, b.Blocks, b.Err)
			}
			if len(res.FailedBatches) > 0 {
				return fmt.Errorf("%d append batches failed", len(res.FailedBatches))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "page title (defaults to the file name)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "document to publish, - for stdin")
	return cmd
}

func (a *app) indexCmd() *cobra.Command {
	var bucket, prefix, archivePath string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index stored transcripts into the local archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.archivePath(archivePath)
			if err != nil {
				return err
			}
			if prefix == "" {
				prefix = a.cfg.OutputPrefix
			}
			ctx := cmd.Context()

			store, err := storage.New(ctx, a.cfg.AWSRegion)
			if err != nil {
				return err
			}
			idx, err := archive.Open(p)
			if err != nil {
				return err
			}
			defer idx.Close()

			keys, err := store.List(ctx, bucket, prefix)
			if err != nil {
				return err
			}

			start := time.Now()
			indexed := 0
			for _, key := range keys {
				if !strings.HasSuffix(key, ".txt") {
					continue
				}
				text, err := store.GetText(ctx, bucket, key)
				if err != nil {
					a.logger.Warn("failed to fetch transcript", "key", key, "err", err)
					continue
				}
				entry := archive.Entry{ID: key, Title: titleFromKey(key), Text: text, CreatedAt: timeFromKey(key)}
				if err := idx.Add(entry); err != nil {
					a.logger.Warn("failed to index transcript", "key", key, "err", err)
					continue
				}
				indexed++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d objects in %v\n", indexed, len(keys), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "", "transcript prefix (defaults to OUTPUT_PREFIX)")
	cmd.Flags().StringVar(&archivePath, "archive", "", "archive index path")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var archivePath string
	var top int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local transcript archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.archivePath(archivePath)
			if err != nil {
				return err
			}
			idx, err := archive.Open(p)
			if err != nil {
				return err
			}
			defer idx.Close()

			hits, err := idx.Search(strings.Join(args, " "), top)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}
			for i, h := range hits {
				fmt.Fprintf(out, "%d. %s  [%.3f]\n   %s\n", i+1, h.Title, h.Score, h.ID)
				if h.Snippet != "" {
					fmt.Fprintf(out, "   %s\n", h.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&archivePath, "archive", "", "archive index path")
	cmd.Flags().IntVarP(&top, "top", "n", 10, "number of results")
	return cmd
}

func readDoc(stdin io.Reader, file string) (string, error) {
	var raw []byte
	var err error
	if file == "" || file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", errors.New("document is empty")
	}
	return string(raw), nil
}

const keyTimeLayout = "2006-01-02_15-04-05"

// titleFromKey recovers a readable title from an output key such as
// transcriptions/2025-03-14_09-26-53_weekly-sync.txt.
func titleFromKey(key string) string {
	name := strings.TrimSuffix(path.Base(key), path.Ext(key))
	if len(name) > len(keyTimeLayout) && name[len(keyTimeLayout)] == '_' {
		if _, err := time.Parse(keyTimeLayout, name[:len(keyTimeLayout)]); err == nil {
			name = name[len(keyTimeLayout)+1:]
		}
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "-", " "))
	if name == "" || name == "." {
		return pipeline.FallbackTitle
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func timeFromKey(key string) time.Time {
	name := path.Base(key)
	if len(name) >= len(keyTimeLayout) {
		if t, err := time.Parse(keyTimeLayout, name[:len(keyTimeLayout)]); err == nil {
			return t
		}
	}
	return time.Time{}
}
