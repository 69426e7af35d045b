package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docshelf"
	"github.com/poiesic/docshelf/config"
	"github.com/poiesic/docshelf/core"
	"github.com/poiesic/docshelf/ingest"
	"github.com/poiesic/docshelf/reader"
	"github.com/poiesic/docshelf/reread"
	"github.com/poiesic/docshelf/search"
	"github.com/poiesic/docshelf/server"
)

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	lib, err := docshelf.NewLibrary(cfg.DataDir, docshelf.WithReaderConfig(cfg.ReaderConfig()))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	orchOpts := []ingest.Option{ingest.WithReaderTimeout(cfg.Reader.Timeout)}
	if cfg.PoolSize > 0 {
		orchOpts = append(orchOpts, ingest.WithPoolSize(cfg.PoolSize))
	}
	orchestrator, err := lib.NewOrchestrator(orchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	srv, err := server.NewServer(orchestrator, lib.DocumentRepository(), lib.ShelfRepository(), searcher,
		server.WithMaxUploadBytes(cfg.MaxUploadBytes()))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, cfg.Addr)
}

func addCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file argument is required")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	readerOpts := []reader.ConfigOption{reader.WithTimeout(c.Duration("reader-timeout"))}
	if host := c.String("reader-host"); host != "" {
		readerOpts = append(readerOpts, reader.WithHost(host))
	}

	lib, err := docshelf.NewLibrary(c.String("db"),
		docshelf.WithReaderConfig(reader.NewConfig(readerOpts...)))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	orchestrator, err := lib.NewOrchestrator(ingest.WithReaderTimeout(c.Duration("reader-timeout")))
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Release()

	taskID, err := orchestrator.Submit(c.Context, ingest.SubmitRequest{
		Data:       data,
		SourceName: filepath.Base(path),
		Readers:    splitList(c.String("readers")),
		ShelfIDs:   splitList(c.String("shelves")),
	})
	if err != nil {
		return err
	}

	// Poll the task the same way an HTTP client would.
	lastMessage := ""
	for {
		record, err := orchestrator.GetTask(taskID)
		if err != nil {
			return err
		}
		if record.ProgressMessage != lastMessage {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", record.Status, record.ProgressMessage)
			lastMessage = record.ProgressMessage
		}
		if record.Status.Terminal() {
			if record.Status == ingest.StatusFailed {
				return fmt.Errorf("ingestion failed: %s", record.Error)
			}
			fmt.Printf("%s\n", record.DocumentID)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func listCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return err
	}

	docs, err := searcher.Search(c.Context, search.Query{
		ShelfID: c.String("shelf"),
		Sort:    search.SortKey(c.String("sort")),
	})
	if err != nil {
		return err
	}

	printDocuments(docs)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one search term is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return err
	}

	docs, err := searcher.Search(c.Context, search.Query{
		Term:    c.Args().First(),
		Field:   search.Field(c.String("field")),
		ShelfID: c.String("shelf"),
		Limit:   c.Int("limit"),
	})
	if err != nil {
		return err
	}

	printDocuments(docs)
	fmt.Fprintf(os.Stderr, "%d document(s) matched\n", len(docs))
	return nil
}

func exportCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}
	id := c.Args().First()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	doc, err := lib.DocumentRepository().GetDocument(c.Context, id)
	if err != nil {
		return err
	}
	text, err := lib.DocumentRepository().GetDocumentText(c.Context, id)
	if err != nil {
		return err
	}

	fmt.Print(core.RenderMarkdown(doc, text))
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.DocumentRepository().DeleteDocument(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "deleted")
	return nil
}

func shelvesListCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	infos, err := lib.ShelfRepository().ListShelves(c.Context)
	if err != nil {
		return err
	}

	for _, info := range infos {
		name := info.Name
		if info.NameJA != "" {
			name = fmt.Sprintf("%s / %s", info.Name, info.NameJA)
		}
		fmt.Printf("%-30s %4d  %s\n", info.ID, info.DocumentCount, name)
	}
	return nil
}

func shelvesCreateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one shelf name is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	shelf, err := lib.ShelfRepository().CreateShelf(c.Context, c.Args().First(), c.String("name-ja"))
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", shelf.ID)
	return nil
}

func shelvesRenameCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("shelf ID and new name are required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	var nameJA *string
	if c.IsSet("name-ja") {
		value := c.String("name-ja")
		nameJA = &value
	}

	shelf, err := lib.ShelfRepository().RenameShelf(c.Context, c.Args().Get(0), c.Args().Get(1), nameJA)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", shelf.ID)
	return nil
}

func shelvesDeleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one shelf ID is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.ShelfRepository().DeleteShelf(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "deleted")
	return nil
}

func rereadCommand(c *cli.Context) error {
	rereadConfig := &reread.Config{
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		ReadTimeout:    c.Duration("read-timeout"),
	}
	if rereadConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if rereadConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	var readerOpts []reader.ConfigOption
	if host := c.String("reader-host"); host != "" {
		readerOpts = append(readerOpts, reader.WithHost(host))
	}

	lib, err := docshelf.NewLibrary(c.String("db"),
		docshelf.WithReaderConfig(reader.NewConfig(readerOpts...)))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	rereader, err := reread.NewRereader(lib.DocumentRepository(), lib.ReaderProvider(),
		c.String("reader"), rereadConfig, os.Stderr)
	if err != nil {
		return err
	}

	if err := rereader.Run(c.Context); err != nil {
		return fmt.Errorf("reread failed: %w", err)
	}
	return nil
}

func openLibrary(c *cli.Context) (*docshelf.Library, error) {
	lib, err := docshelf.NewLibrary(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

func printDocuments(docs []*core.Document) {
	for _, doc := range docs {
		fmt.Printf("%-40s %-4s %4dp  %s  %s\n",
			doc.ID, doc.Kind, doc.PageCount, doc.UploadedAt.Format("2006-01-02"), doc.Title)
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
