package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var caex = types.NewNews(
	"В&nbsp;Ташкенте для посетителей CAEx Mebel &amp; Décor 2023 будут организованы 50 бесплатных автобусов",
	"Совсем скоро в&nbsp;Ташкенте состоится <b>выставка</b>.",
	"18 сентября 2023, 21:00",
	"https://www.gazeta.uz/media/img/2023/09/wf2RKB16951062217783_m.jpg",
)

func TestPipelineChain(t *testing.T) {
	p := New(testLogger)
	p.Use(NewDedupMiddleware())
	p.Use(NewPlainTextMiddleware())
	assert.Equal(t, 2, p.Len())

	out, err := p.ProcessAll([]types.News{caex, caex})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "В Ташкенте для посетителей CAEx Mebel & Décor 2023 будут организованы 50 бесплатных автобусов", out[0].Title())
	assert.Equal(t, "Совсем скоро в Ташкенте состоится выставка.", out[0].Body())
	assert.Equal(t, caex.ImageReference(), out[0].ImageReference())
}

func TestPlainTextLeavesInputUntouched(t *testing.T) {
	in := caex
	_, err := NewPlainTextMiddleware().Process(&in)
	require.NoError(t, err)
	assert.Equal(t, caex, in)
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()
	a := types.NewNews("t", "b", "1", "i")
	b := types.NewNews("t", "b", "2", "i")

	got, _ := m.Process(&a)
	assert.NotNil(t, got)
	got, _ = m.Process(&b)
	assert.NotNil(t, got, "records differing in one field are distinct")
	dup := a
	got, _ = m.Process(&dup)
	assert.Nil(t, got)
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := NewRequiredFieldsMiddleware()

	got, err := m.Process(&caex)
	require.NoError(t, err)
	assert.NotNil(t, got)

	blank := types.NewNews("<b> </b>&nbsp;", "body", "time", "img")
	got, err = m.Process(&blank)
	require.NoError(t, err)
	assert.Nil(t, got)

	noImage := types.NewNews("title", "body", "time", "")
	got, _ = m.Process(&noImage)
	assert.Nil(t, got)
}

func TestTimeNormalizeMiddleware(t *testing.T) {
	m := NewTimeNormalizeMiddleware(nil)

	got, err := m.Process(&caex)
	require.NoError(t, err)
	assert.Equal(t, "2023-09-18T21:00:00+05:00", got.TimePublished())
	assert.Equal(t, caex.Title(), got.Title())

	odd := types.NewNews("t", "b", "вчера", "i")
	got, err = m.Process(&odd)
	require.NoError(t, err)
	assert.Equal(t, "вчера", got.TimePublished())

	bad := types.NewNews("t", "b", "40 мая 2023, 10:00", "i")
	got, _ = m.Process(&bad)
	assert.Equal(t, "40 мая 2023, 10:00", got.TimePublished())
}

func TestTimeNormalizeRejectsImpossibleDates(t *testing.T) {
	m := NewTimeNormalizeMiddleware(nil)

	for _, raw := range []string{"31 февраля 2023, 10:00", "29 февраля 2023, 10:00", "31 апреля 2024, 08:30"} {
		n := types.NewNews("t", "b", raw, "i")
		got, err := m.Process(&n)
		require.NoError(t, err)
		assert.Equal(t, raw, got.TimePublished())
	}

	leap := types.NewNews("t", "b", "29 февраля 2024, 10:00", "i")
	got, err := m.Process(&leap)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T10:00:00+05:00", got.TimePublished())
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(*types.News) (*types.News, error) {
	return nil, errors.New("boom")
}

func TestPipelineError(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.ProcessAll([]types.News{caex})
	require.Error(t, err)

	var pipeErr *types.PipelineError
	require.True(t, errors.As(err, &pipeErr))
	assert.Equal(t, "failing", pipeErr.Stage)
}
