package scrape

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/rigmatch/rigmatch/pkg/models"
)

// ErrNoTable is returned when a listing page has no recognizable ranking
// table.
var ErrNoTable = errors.New("no ranking table found in page")

// listingTableID is the id the benchmark site uses for every ranking
// table, regardless of component type.
const listingTableID = "cputable"

// Scores outside this range are model numbers or parse noise.
const (
	minPlausibleScore = 1
	maxPlausibleScore = 100_000_000
)

// Listing is one row parsed from a ranking table.
type Listing struct {
	Rank     int
	Name     string
	RawScore int
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ParseListing extracts ranked name/score rows from a listing page. Row
// layout varies by component type: RAM tables carry read/write speeds
// that are folded into a synthetic score, storage tables put the score
// in the third column.
func ParseListing(data []byte, t models.ComponentType) ([]Listing, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	table := findByID(doc, listingTableID)
	if table == nil {
		// Older page variants have a single unnamed table.
		table = findFirst(doc, "table")
	}
	if table == nil {
		return nil, ErrNoTable
	}

	var listings []Listing
	rows := findAll(table, "tr")
	for _, row := range rows {
		cells := findAll(row, "td")
		if len(cells) == 0 {
			continue // header row
		}

		name, score, ok := parseRow(cells, t)
		if !ok {
			continue
		}
		listings = append(listings, Listing{
			Rank:     len(listings) + 1,
			Name:     name,
			RawScore: score,
		})
	}
	return listings, nil
}

// parseRow extracts a (name, score) pair from one row's cells.
func parseRow(cells []*html.Node, t models.ComponentType) (string, int, bool) {
	name := cleanName(nodeText(cells[0]))
	if len(name) < 3 || isAllDigits(name) {
		return "", 0, false
	}

	var score int
	switch {
	case t == models.TypeRAM && len(cells) >= 4:
		// RAM rows: name, latency, read MB/s, write MB/s. Fold the two
		// throughput numbers into one comparable score.
		read, errR := strconv.ParseFloat(strings.TrimSpace(nodeText(cells[2])), 64)
		write, errW := strconv.ParseFloat(strings.TrimSpace(nodeText(cells[3])), 64)
		if errR != nil || errW != nil {
			return "", 0, false
		}
		score = int((read*0.6 + write*0.4) * 300)
	case t == models.TypeStorage && len(cells) >= 3:
		score = parseScoreCell(cells[2])
	case len(cells) >= 2:
		score = parseScoreCell(cells[1])
	default:
		return "", 0, false
	}

	if score < minPlausibleScore || score > maxPlausibleScore {
		return "", 0, false
	}
	return name, score, true
}

func parseScoreCell(cell *html.Node) int {
	raw := strings.ReplaceAll(strings.TrimSpace(nodeText(cell)), ",", "")
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return score
}

// PageDetails are the specs extracted from a single component's page.
type PageDetails struct {
	Name               string
	RawScore           int
	Cores              int
	Threads            int
	SingleThreadRating int
	TDPWatts           int
	MemorySizeGB       int
}

// Per-type score label patterns, tried in order.
var scorePatterns = map[models.ComponentType][]*regexp.Regexp{
	models.TypeCPU: {
		regexp.MustCompile(`(?i)CPU Mark[:\s]+([0-9,]+)`),
		regexp.MustCompile(`(?i)Rating[:\s]+([0-9,]+)`),
	},
	models.TypeGPU: {
		regexp.MustCompile(`(?i)G3D Mark[:\s]+([0-9,]+)`),
		regexp.MustCompile(`(?i)Graphics Mark[:\s]+([0-9,]+)`),
	},
	models.TypeRAM: {
		regexp.MustCompile(`(?i)Average Mark[:\s]+([0-9,]+)`),
		regexp.MustCompile(`(?i)Memory Mark[:\s]+([0-9,]+)`),
	},
	models.TypeStorage: {
		regexp.MustCompile(`(?i)Disk Mark[:\s]+([0-9,]+)`),
		regexp.MustCompile(`(?i)Drive Mark[:\s]+([0-9,]+)`),
	},
}

var (
	coresPattern        = regexp.MustCompile(`(?i)Cores[:\s]+(\d+)`)
	threadsPattern      = regexp.MustCompile(`(?i)Threads[:\s]+(\d+)`)
	singleThreadPattern = regexp.MustCompile(`(?i)Single Thread Rating[:\s]+([0-9,]+)`)
	tdpPattern          = regexp.MustCompile(`(?i)TDP[:\s]+([0-9]+)\s*W`)
	memSizePattern      = regexp.MustCompile(`(?i)(?:Memory Size|VRAM)[:\s]+([0-9]+)\s*GB`)
)

// ParseComponentPage extracts the name, score, and type-relevant specs
// from a single component's detail page.
func ParseComponentPage(data []byte, t models.ComponentType) (*PageDetails, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	details := &PageDetails{Name: extractPageName(doc)}
	if details.Name == "" {
		return nil, errors.New("no component name found in page")
	}

	text := nodeText(doc)
	for _, p := range scorePatterns[t] {
		if score := matchInt(p, text); score >= 100 && score <= 100_000 {
			details.RawScore = score
			break
		}
	}
	if details.RawScore == 0 {
		return nil, errors.New("no benchmark score found in page")
	}

	switch t {
	case models.TypeCPU:
		details.Cores = matchInt(coresPattern, text)
		details.Threads = matchInt(threadsPattern, text)
		details.SingleThreadRating = matchInt(singleThreadPattern, text)
		details.TDPWatts = matchInt(tdpPattern, text)
	case models.TypeGPU:
		details.TDPWatts = matchInt(tdpPattern, text)
		details.MemorySizeGB = matchInt(memSizePattern, text)
	}
	return details, nil
}

// extractPageName tries the site's name markup first, then the page
// title with its boilerplate suffix stripped.
func extractPageName(doc *html.Node) string {
	for _, class := range []string{"cpuname", "left-desc-cpu"} {
		if n := findByClass(doc, class); n != nil {
			if name := cleanName(nodeText(n)); len(name) > 3 {
				return name
			}
		}
	}
	if h1 := findFirst(doc, "h1"); h1 != nil {
		name := cleanName(nodeText(h1))
		if len(name) > 3 && !looksGeneric(name) {
			return name
		}
	}
	if title := findFirst(doc, "title"); title != nil {
		name := cleanName(nodeText(title))
		if i := strings.Index(name, " - "); i > 0 {
			name = name[:i]
		}
		if len(name) > 3 {
			return name
		}
	}
	return ""
}

func looksGeneric(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range []string{"benchmark", "list", "chart", "rating"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func matchInt(p *regexp.Regexp, text string) int {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return v
}

func cleanName(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// findByID walks the tree for the node with the given id attribute.
func findByID(n *html.Node, id string) *html.Node {
	return find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasAttr(n, "id", id)
	})
}

// findByClass walks the tree for the first node carrying the class.
func findByClass(n *html.Node, class string) *html.Node {
	return find(n, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == "class" {
				for _, c := range strings.Fields(a.Val) {
					if c == class {
						return true
					}
				}
			}
		}
		return false
	})
}

// findFirst returns the first element with the given tag name.
func findFirst(n *html.Node, tag string) *html.Node {
	return find(n, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

// findAll collects every element with the given tag name, in document
// order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			return // do not descend into nested same-tag elements
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasAttr(n *html.Node, key, val string) bool {
	for _, a := range n.Attr {
		if a.Key == key && a.Val == val {
			return true
		}
	}
	return false
}

// nodeText concatenates all text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
