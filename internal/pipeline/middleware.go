package pipeline

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// --- Built-in Middleware ---

// PlainTextMiddleware replaces the markup of every text field with plain
// text: tags stripped, entities decoded, whitespace collapsed. The image
// reference is left alone.
type PlainTextMiddleware struct {
	policy *bluemonday.Policy
}

func NewPlainTextMiddleware() *PlainTextMiddleware {
	return &PlainTextMiddleware{
		policy: bluemonday.StrictPolicy(),
	}
}

func (m *PlainTextMiddleware) Name() string { return "plain_text" }

func (m *PlainTextMiddleware) Process(news *types.News) (*types.News, error) {
	out := types.NewNews(
		m.text(news.Title()),
		m.text(news.Body()),
		m.text(news.TimePublished()),
		news.ImageReference(),
	)
	return &out, nil
}

func (m *PlainTextMiddleware) text(markup string) string {
	// The policy re-escapes text, so decoding comes after sanitizing.
	cleaned := html.UnescapeString(m.policy.Sanitize(markup))
	return strings.Join(strings.Fields(cleaned), " ")
}

// RequiredFieldsMiddleware drops records whose fields carry no visible text.
type RequiredFieldsMiddleware struct {
	plain *PlainTextMiddleware
}

func NewRequiredFieldsMiddleware() *RequiredFieldsMiddleware {
	return &RequiredFieldsMiddleware{plain: NewPlainTextMiddleware()}
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(news *types.News) (*types.News, error) {
	for _, field := range []string{news.Title(), news.Body(), news.TimePublished()} {
		if m.plain.text(field) == "" {
			return nil, nil
		}
	}
	if strings.TrimSpace(news.ImageReference()) == "" {
		return nil, nil
	}
	return news, nil
}

// DedupMiddleware drops records equal to one it has already passed.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[types.News]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[types.News]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(news *types.News) (*types.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[*news]; exists {
		return nil, nil
	}
	m.seen[*news] = struct{}{}
	return news, nil
}

// Tashkent is the site's local time zone (UTC+5, no daylight saving).
var Tashkent = time.FixedZone("UZT", 5*60*60)

var ruMonths = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
}

// TimeNormalizeMiddleware rewrites publication times such as
// "18 сентября 2023, 21:00" as RFC 3339. Values it cannot read pass unchanged.
type TimeNormalizeMiddleware struct {
	re  *regexp.Regexp
	loc *time.Location
}

func NewTimeNormalizeMiddleware(loc *time.Location) *TimeNormalizeMiddleware {
	if loc == nil {
		loc = Tashkent
	}
	return &TimeNormalizeMiddleware{
		re:  regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)\s+(\d{4}),?\s+(\d{1,2}):(\d{2})$`),
		loc: loc,
	}
}

func (m *TimeNormalizeMiddleware) Name() string { return "time_normalize" }

func (m *TimeNormalizeMiddleware) Process(news *types.News) (*types.News, error) {
	t, ok := m.parse(news.TimePublished())
	if !ok {
		return news, nil
	}
	out := types.NewNews(news.Title(), news.Body(), t.Format(time.RFC3339), news.ImageReference())
	return &out, nil
}

func (m *TimeNormalizeMiddleware) parse(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	match := m.re.FindStringSubmatch(s)
	if match == nil {
		return time.Time{}, false
	}
	month, ok := ruMonths[strings.ToLower(match[2])]
	if !ok {
		return time.Time{}, false
	}
	day, year, hour, minute := atoi(match[1]), atoi(match[3]), atoi(match[4]), atoi(match[5])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, m.loc)
	if t.Day() != day || t.Month() != month {
		// time.Date rolls "31 февраля" over into March.
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
