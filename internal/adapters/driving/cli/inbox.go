package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/inbox"
	"github.com/medisimplify/medisimplify/internal/core/domain"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Import documents handed off by the processing pipeline",
	Long: `The pipeline hands off each processed document as a JSON record with an
imageUri pointing at the scanned image. Imported hand-offs are removed;
failed ones stay in place for inspection.`,
}

var inboxWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox and import hand-offs as they arrive",
	Args:  cobra.NoArgs,
	RunE:  runInboxWatch,
}

var inboxImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a single hand-off file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInboxImport,
}

var inboxDir string

func init() {
	inboxWatchCmd.Flags().StringVarP(&inboxDir, "dir", "d", "", "Inbox directory (default from settings)")
	inboxCmd.AddCommand(inboxWatchCmd)
	inboxCmd.AddCommand(inboxImportCmd)
	rootCmd.AddCommand(inboxCmd)
}

func runInboxWatch(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	cfg := inboxConfig
	if inboxDir != "" {
		cfg.Dir = inboxDir
	}

	watcher, err := inbox.NewWatcher(inbox.NewImporter(documentStore), cfg)
	if err != nil {
		return err
	}
	watcher.OnImport = func(path string, doc *domain.ProcessedDocument, err error) {
		if err != nil {
			cmd.PrintErrf("Failed %s: %v\n", path, err)
			return
		}
		cmd.Printf("Imported %s document %s\n", doc.DocumentType.Label(), doc.ID)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", watcher.Dir())
	if err := watcher.Watch(cmd.Context()); err != nil {
		return fmt.Errorf("inbox watch failed: %w", err)
	}
	return nil
}

func runInboxImport(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	doc, err := inbox.NewImporter(documentStore).ImportFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}

	cmd.Printf("Imported %s document %s\n", doc.DocumentType.Label(), doc.ID)
	return nil
}
