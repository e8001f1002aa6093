package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var sample = []types.News{
	types.NewNews("В&nbsp;Ташкенте &amp; <b>Décor</b>", "body, with \"quotes\"", "18 сентября 2023, 21:00", "https://img.test/a.jpg"),
	types.NewNews("second", "b2", "t2", "https://img.test/b.jpg"),
}

func encodeAll(t *testing.T, format string) string {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(format, &buf, testLogger)
	require.NoError(t, err)
	assert.Equal(t, format, enc.Name())

	require.NoError(t, enc.Encode(sample[:1]))
	require.NoError(t, enc.Encode(sample[1:]))
	require.NoError(t, enc.Close())
	return buf.String()
}

func TestJSONEncoder(t *testing.T) {
	out := encodeAll(t, "json")
	assert.Contains(t, out, `"title": "В&nbsp;Ташкенте &amp; <b>Décor</b>"`)

	var got []types.News
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, sample, got)
}

func TestJSONEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc := NewJSONEncoder(&buf, testLogger)
	require.NoError(t, enc.Close())
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONLEncoder(t *testing.T) {
	out := encodeAll(t, "jsonl")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first types.News
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, sample[0], first)
}

func TestCSVEncoder(t *testing.T) {
	out := encodeAll(t, "csv")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.NewsColumns, rows[0])
	assert.Equal(t, []string{sample[0].Title(), sample[0].TimePublished(), sample[0].Body(), sample[0].ImageReference()}, rows[1])
}

func TestCSVEncoderHeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf, testLogger)
	require.NoError(t, enc.Close())
	assert.Equal(t, "title,time_published,body,image_reference\n", buf.String())
}

func TestYAMLEncoder(t *testing.T) {
	out := encodeAll(t, "yaml")
	docs := strings.Split(out, "---\n")
	require.Len(t, docs, 2)

	var doc map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &doc))
	assert.Equal(t, "second", doc["title"])
	assert.Equal(t, "https://img.test/b.jpg", doc["image_reference"])
}

func TestNewEncoderUnknownFormat(t *testing.T) {
	_, err := NewEncoder("xml", &bytes.Buffer{}, testLogger)
	assert.Error(t, err)
}
