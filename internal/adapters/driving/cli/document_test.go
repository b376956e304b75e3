package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisimplify/medisimplify/internal/core/domain"
)

// saveDoc saves a lab report through the CLI and returns its id.
func (e *testEnv) saveDoc(t *testing.T, id, docType, original, simplified string) {
	t.Helper()
	img := e.writeImage(t, id+".jpg")
	_, err := run("document", "save", img,
		"--id", id, "--type", docType,
		"--original", original, "--simplified", simplified,
		"--timestamp", "2024-03-15T10:30:00Z")
	require.NoError(t, err)
	resetFlags(rootCmd)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range documentCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"save", "list", "get", "delete", "search", "export", "types"}, names)
}

func TestDocumentSave(t *testing.T) {
	env := setupTestServices(t)
	img := env.writeImage(t, "scan.jpg")

	out, err := run("document", "save", img,
		"--id", "doc-1", "--type", "lab_report",
		"--original", "Hb 10 g/dL", "--simplified", "Iron is low",
		"--timestamp", "2024-03-15T10:30:00Z",
		"--meta", "confidence=0.92", "--meta", "source=camera")

	require.NoError(t, err)
	assert.Contains(t, out, "Saved Lab Report document doc-1")

	doc, err := env.store.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeLabReport, doc.DocumentType)
	assert.Equal(t, "Iron is low", doc.SimplifiedText)
	assert.Equal(t, map[string]any{"confidence": "0.92", "source": "camera"}, doc.Metadata)
	assert.Equal(t, 2024, doc.Timestamp.Year())

	mirrored, err := os.ReadFile(env.store.ImagePath("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg:scan.jpg", string(mirrored))
}

func TestDocumentSave_GeneratesIDAndReadsFiles(t *testing.T) {
	env := setupTestServices(t)
	img := env.writeImage(t, "scan.jpg")
	origFile := filepath.Join(env.root, "orig.txt")
	simpFile := filepath.Join(env.root, "simp.txt")
	require.NoError(t, os.WriteFile(origFile, []byte("Take 1 tab BID"), 0600))
	require.NoError(t, os.WriteFile(simpFile, []byte("Take one tablet twice a day"), 0600))

	_, err := run("document", "save", img, "--type", "prescription",
		"--original-file", origFile, "--simplified-file", simpFile)
	require.NoError(t, err)

	docs, err := env.store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].ID, 36)
	assert.Equal(t, "Take 1 tab BID", docs[0].OriginalText)
	assert.Equal(t, "Take one tablet twice a day", docs[0].SimplifiedText)
	assert.False(t, docs[0].Timestamp.IsZero())
}

func TestDocumentSave_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(env *testEnv, img string) []string
		want string
	}{
		{
			name: "inline and file text",
			args: func(env *testEnv, img string) []string {
				return []string{"--original", "a", "--original-file", img}
			},
			want: "use either --original or --original-file",
		},
		{
			name: "missing text file",
			args: func(env *testEnv, _ string) []string {
				return []string{"--simplified-file", filepath.Join(env.root, "nope.txt")}
			},
			want: "reading --simplified-file",
		},
		{
			name: "bad metadata",
			args: func(*testEnv, string) []string { return []string{"--meta", "novalue"} },
			want: "expected key=value",
		},
		{
			name: "bad timestamp",
			args: func(*testEnv, string) []string { return []string{"--timestamp", "yesterday"} },
			want: "invalid --timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServices(t)
			img := env.writeImage(t, "scan.jpg")

			args := append([]string{"document", "save", img}, tt.args(env, img)...)
			_, err := run(args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			count, _ := env.store.Count(context.Background())
			assert.Zero(t, count)
		})
	}
}

func TestDocumentSave_MissingImage(t *testing.T) {
	env := setupTestServices(t)

	_, err := run("document", "save", filepath.Join(env.root, "missing.jpg"), "--id", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save document")
}

func TestDocumentSave_DuplicateID(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "a", "b")
	img := env.writeImage(t, "other.jpg")

	_, err := run("document", "save", img, "--id", "doc-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDocumentList(t *testing.T) {
	env := setupTestServices(t)

	out, err := run("document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")

	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
	env.saveDoc(t, "doc-2", "prescription", "Rx", "Take daily")

	out, err = run("document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Type: Prescription")
	assert.Contains(t, out, "Iron is low")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocumentList_ByType(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
	env.saveDoc(t, "doc-2", "prescription", "Rx", "Take daily")

	out, err := run("document", "list", "--type", "prescription")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-2")
	assert.NotContains(t, out, "doc-1")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentList_JSON(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	out, err := run("document", "list", "--json")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "doc-1", records[0]["id"])
	assert.Equal(t, "lab_report", records[0]["documentType"])
	assert.Equal(t, "2024-03-15T10:30:00Z", records[0]["timestamp"])
}

func TestDocumentGet(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	out, err := run("document", "get", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "Type:   Lab Report")
	assert.Contains(t, out, "Original Text")
	assert.Contains(t, out, "Hb 10")
	assert.Contains(t, out, "Iron is low")
}

func TestDocumentGet_JSON(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	out, err := run("document", "get", "doc-1", "--json")
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "Hb 10", record["originalText"])
}

func TestDocumentGet_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := run("document", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDelete_Yes(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
	imagePath := env.store.ImagePath("doc-1")

	out, err := run("document", "delete", "doc-1", "--yes")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document doc-1")
	_, err = env.store.GetByID(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoFileExists(t, imagePath)
}

func TestDocumentDelete_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := run("document", "delete", "missing", "--yes")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDelete_RefusesWithoutTerminal(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
	stubTerminal(t, false, "")

	_, err := run("document", "delete", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass --yes")
	count, _ := env.store.Count(context.Background())
	assert.Equal(t, 1, count)
}

func TestDocumentDelete_Prompt(t *testing.T) {
	tests := []struct {
		answer  string
		deleted bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			env := setupTestServices(t)
			env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
			stubTerminal(t, true, tt.answer)

			out, err := run("document", "delete", "doc-1")

			require.NoError(t, err)
			assert.Contains(t, out, "Delete Lab Report document doc-1")
			count, _ := env.store.Count(context.Background())
			if tt.deleted {
				assert.Zero(t, count)
			} else {
				assert.Equal(t, 1, count)
				assert.Contains(t, out, "Cancelled.")
			}
		})
	}
}

func stubTerminal(t *testing.T, tty bool, input string) {
	t.Helper()
	origIn, origTerm := stdin, isTerminal
	stdin = strings.NewReader(input)
	isTerminal = func() bool { return tty }
	t.Cleanup(func() {
		stdin, isTerminal = origIn, origTerm
	})
}

func TestDocumentSearch(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")
	env.saveDoc(t, "doc-2", "prescription", "Rx", "Take daily")

	out, err := run("document", "search", "IRON")
	require.NoError(t, err)
	assert.Contains(t, out, `Found 1 documents for "IRON"`)
	assert.Contains(t, out, "doc-1")
	assert.NotContains(t, out, "doc-2")

	resetFlags(rootCmd)
	out, err = run("document", "search", "lab_rep")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")

	resetFlags(rootCmd)
	out, err = run("document", "search", "xyz")
	require.NoError(t, err)
	assert.Contains(t, out, `No documents match "xyz"`)
}

func TestDocumentSearch_JSON(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	out, err := run("document", "search", "nothing-matches", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestDocumentExport(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	out, err := run("document", "export", "doc-1")
	require.NoError(t, err)
	textPath := env.store.ExportPath("doc-1", domain.ExportFormatText)
	assert.Contains(t, out, "Exported to "+textPath)
	data, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Simplified Text")

	resetFlags(rootCmd)
	_, err = run("document", "export", "doc-1", "--format", "structured")
	require.NoError(t, err)
	data, err = os.ReadFile(env.store.ExportPath("doc-1", domain.ExportFormatStructured))
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "doc-1", record["id"])
}

func TestDocumentExport_Errors(t *testing.T) {
	env := setupTestServices(t)
	env.saveDoc(t, "doc-1", "lab_report", "Hb 10", "Iron is low")

	_, err := run("document", "export", "doc-1", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")

	resetFlags(rootCmd)
	_, err = run("document", "export", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentTypes(t *testing.T) {
	env := setupTestServices(t)

	out, err := run("document", "types")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")

	env.saveDoc(t, "doc-1", "lab_report", "a", "b")
	env.saveDoc(t, "doc-2", "lab_report", "c", "d")
	env.saveDoc(t, "doc-3", "insurance", "e", "f")

	out, err = run("document", "types")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Lab Report")
	assert.True(t, strings.HasSuffix(lines[0], "2"))
	assert.Contains(t, lines[1], "insurance")
}

func TestParseMeta(t *testing.T) {
	meta, err := parseMeta([]string{"a=1", "b=x=y", " c =3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "x=y", "c": "3"}, meta)

	meta, err = parseMeta(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = parseMeta([]string{"=v"})
	assert.Error(t, err)
}

func TestImageURI(t *testing.T) {
	assert.Equal(t, "file:///tmp/a.jpg", imageURI("file:///tmp/a.jpg"))
	assert.True(t, filepath.IsAbs(imageURI("a.jpg")))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
