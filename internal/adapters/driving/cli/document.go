package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/medisimplify/medisimplify/internal/core/domain"
	"github.com/medisimplify/medisimplify/internal/core/services"
	"github.com/medisimplify/medisimplify/internal/logger"
)

const dateLayout = "2006-01-02 15:04"

var errNoDocumentStore = errors.New("document store not configured")

// stdin and isTerminal are swapped in tests.
var (
	stdin      io.Reader = os.Stdin
	isTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage processed documents",
	Long:  `Save, list, view, search, export, or delete processed documents.`,
}

var documentSaveCmd = &cobra.Command{
	Use:   "save [image]",
	Short: "Save a processed document",
	Long: `Copies the image into the private documents directory and records the
document in the index. Text can be given inline or read from files.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentSave,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its image",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search document text and types",
	Long:  `Case-insensitive substring search over original text, simplified text and document type.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentSearch,
}

var documentExportCmd = &cobra.Command{
	Use:   "export [doc-id]",
	Short: "Export a document to a text or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentExport,
}

var documentTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "Show document types with counts",
	Args:  cobra.NoArgs,
	RunE:  runDocumentTypes,
}

// Flags for document commands.
var (
	saveID             string
	saveType           string
	saveOriginal       string
	saveSimplified     string
	saveOriginalFile   string
	saveSimplifiedFile string
	saveTimestamp      string
	saveMeta           []string

	listType     string
	outputJSON   bool
	deleteYes    bool
	exportFormat string
)

func init() {
	documentSaveCmd.Flags().StringVar(&saveID, "id", "", "Document ID (default: generated UUID)")
	documentSaveCmd.Flags().StringVarP(&saveType, "type", "t", string(domain.DocumentTypeOther), "Document type")
	documentSaveCmd.Flags().StringVar(&saveOriginal, "original", "", "Original extracted text")
	documentSaveCmd.Flags().StringVar(&saveSimplified, "simplified", "", "Simplified text")
	documentSaveCmd.Flags().StringVar(&saveOriginalFile, "original-file", "", "Read original text from file")
	documentSaveCmd.Flags().StringVar(&saveSimplifiedFile, "simplified-file", "", "Read simplified text from file")
	documentSaveCmd.Flags().StringVar(&saveTimestamp, "timestamp", "", "Processing time, RFC 3339 (default: now)")
	documentSaveCmd.Flags().StringArrayVar(&saveMeta, "meta", nil, "Extra metadata as key=value (repeatable)")

	documentListCmd.Flags().StringVarP(&listType, "type", "t", "", "Only list documents of this type")
	for _, c := range []*cobra.Command{documentListCmd, documentGetCmd, documentSearchCmd} {
		c.Flags().BoolVar(&outputJSON, "json", false, "Print documents as JSON records")
	}
	documentDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without confirmation")
	documentExportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(domain.ExportFormatText),
		"Export format: text or structured")

	documentCmd.AddCommand(documentSaveCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentSearchCmd)
	documentCmd.AddCommand(documentExportCmd)
	documentCmd.AddCommand(documentTypesCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentSave(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	original, err := textFromFlags("original", saveOriginal, saveOriginalFile)
	if err != nil {
		return err
	}
	simplified, err := textFromFlags("simplified", saveSimplified, saveSimplifiedFile)
	if err != nil {
		return err
	}
	metadata, err := parseMeta(saveMeta)
	if err != nil {
		return err
	}

	timestamp := time.Now()
	if saveTimestamp != "" {
		timestamp, err = time.Parse(time.RFC3339, saveTimestamp)
		if err != nil {
			return fmt.Errorf("invalid --timestamp %q: expected RFC 3339", saveTimestamp)
		}
	}

	id := strings.TrimSpace(saveID)
	if id == "" {
		id = uuid.New().String()
	}

	docType := domain.DocumentType(strings.TrimSpace(saveType))
	if !docType.IsKnown() {
		logger.Warn("saving with unrecognised document type %q", docType)
	}

	doc := domain.ProcessedDocument{
		ID:             id,
		ImageURI:       imageURI(args[0]),
		DocumentType:   docType,
		OriginalText:   original,
		SimplifiedText: simplified,
		Timestamp:      timestamp,
		Metadata:       metadata,
	}

	if err := documentStore.Save(cmd.Context(), doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	cmd.Printf("Saved %s document %s\n", docType.Label(), id)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	ctx := cmd.Context()
	var docs []domain.ProcessedDocument
	var err error
	if listType != "" {
		docs, err = documentStore.ListByType(ctx, domain.DocumentType(listType))
	} else {
		docs, err = documentStore.ListAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	printSummaries(cmd, docs)
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	doc, err := documentStore.GetByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if outputJSON {
		data, err := services.MarshalRecordIndent(*doc)
		if err != nil {
			return fmt.Errorf("encoding document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Type:   %s\n", doc.DocumentType.Label())
	cmd.Printf("  Date:   %s\n", formatDate(doc.Timestamp))
	cmd.Printf("  Image:  %s\n", doc.ImageURI)

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	cmd.Println("\nOriginal Text")
	cmd.Println("-------------")
	cmd.Println(doc.OriginalText)
	cmd.Println("\nSimplified Text")
	cmd.Println("---------------")
	cmd.Println(doc.SimplifiedText)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	ctx := cmd.Context()
	doc, err := documentStore.GetByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to find document: %w", err)
	}

	if !deleteYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete %s document %s from %s?",
			doc.DocumentType.Label(), doc.ID, formatDate(doc.Timestamp)))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := documentStore.DeleteByID(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", doc.ID)
	return nil
}

func runDocumentSearch(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	query := strings.Join(args, " ")
	docs, err := documentStore.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents match %q\n", query)
		return nil
	}

	cmd.Printf("Found %d documents for %q:\n\n", len(docs), query)
	printSummaries(cmd, docs)
	return nil
}

func runDocumentExport(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	format := domain.ExportFormat(exportFormat)
	if !format.IsValid() {
		return fmt.Errorf("invalid --format %q: use text or structured", exportFormat)
	}

	ctx := cmd.Context()
	doc, err := documentStore.GetByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to find document: %w", err)
	}

	path, err := documentStore.Export(ctx, *doc, format)
	if err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}

	cmd.Printf("Exported to %s\n", path)
	return nil
}

func runDocumentTypes(cmd *cobra.Command, _ []string) error {
	if documentStore == nil {
		return errNoDocumentStore
	}

	types, err := documentStore.Types(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list types: %w", err)
	}

	if len(types) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for _, tc := range types {
		cmd.Printf("  %-22s %-20s %d\n", tc.Type.Label(), tc.Type, tc.Count)
	}
	return nil
}

func printSummaries(cmd *cobra.Command, docs []domain.ProcessedDocument) {
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Type: %s\n", docs[i].DocumentType.Label())
		cmd.Printf("    Date: %s\n", formatDate(docs[i].Timestamp))
		if p := preview(docs[i].SimplifiedText, 80); p != "" {
			cmd.Printf("    %s\n", p)
		}
		cmd.Println()
	}
}

func writeJSON(cmd *cobra.Command, docs []domain.ProcessedDocument) error {
	records := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		data, err := services.MarshalRecord(doc)
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", doc.ID, err)
		}
		records = append(records, data)
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

// confirm asks a yes/no question. Without a terminal it refuses rather
// than deleting unattended.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminal() {
		return false, errors.New("refusing to delete without confirmation: stdin is not a terminal, pass --yes")
	}
	cmd.Printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func textFromFlags(name, inline, file string) (string, error) {
	if inline != "" && file != "" {
		return "", fmt.Errorf("use either --%s or --%s-file, not both", name, name)
	}
	if file == "" {
		return inline, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading --%s-file: %w", name, err)
	}
	return string(data), nil
}

func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", pair)
		}
		meta[k] = v
	}
	return meta, nil
}

// imageURI makes plain paths absolute so the store can find them
// regardless of its working directory.
func imageURI(arg string) string {
	if strings.HasPrefix(arg, "file://") {
		return arg
	}
	if abs, err := filepath.Abs(arg); err == nil {
		return abs
	}
	return arg
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(dateLayout)
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
