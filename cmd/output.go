package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"musicca/internal/extract"
	"musicca/internal/media"
)

// mediaView is the printable form of an extracted item.
type mediaView struct {
	ID         string `json:"id" yaml:"id"`
	URL        string `json:"url" yaml:"url"`
	Extractor  string `json:"extractor" yaml:"extractor"`
	media.Data `yaml:",inline"`
}

// searchView is the printable form of a search hit.
type searchView struct {
	Kind      string      `json:"kind" yaml:"kind"`
	ID        string      `json:"id" yaml:"id"`
	Title     string      `json:"title" yaml:"title"`
	URL       string      `json:"url" yaml:"url"`
	Thumbnail string      `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Media     []mediaView `json:"media,omitempty" yaml:"media,omitempty"`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newMediaView(m *extract.Media) mediaView {
	v := mediaView{ID: m.ID, URL: m.URL, Data: m.Data}
	if ext := m.Extractor(); ext != nil {
		v.Extractor = ext.ID()
	}
	return v
}

func mediaViews(items []*extract.Media) []mediaView {
	out := make([]mediaView, len(items))
	for i, m := range items {
		out[i] = newMediaView(m)
	}
	return out
}

func searchViews(items []extract.SearchItem) []searchView {
	out := make([]searchView, len(items))
	for i, it := range items {
		out[i] = searchView{
			Kind:      it.Kind.String(),
			ID:        it.ID,
			Title:     it.Title,
			URL:       it.URL,
			Thumbnail: it.Thumbnail,
			Media:     mediaViews(it.Media),
		}
	}
	return out
}

// encode writes v as JSON or YAML. It reports false for text output.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func printMedia(w io.Writer, format string, items []*extract.Media) error {
	views := mediaViews(items)
	if ok, err := encode(w, format, views); ok {
		return err
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		pos := ""
		if v.Position > 0 {
			pos = strconv.Itoa(v.Position)
		}
		title := v.Title
		if v.IsLive {
			title += " (live)"
		}
		rows[i] = []string{pos, title, media.FormatDuration(v.Duration), v.Extractor, v.URL}
	}
	return renderTable(w, []string{"#", "Title", "Duration", "Extractor", "URL"}, rows)
}

func printSearch(w io.Writer, format string, items []extract.SearchItem) error {
	views := searchViews(items)
	if ok, err := encode(w, format, views); ok {
		return err
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		duration := "-"
		if len(v.Media) == 1 {
			duration = media.FormatDuration(v.Media[0].Duration)
		} else if len(v.Media) > 1 {
			duration = fmt.Sprintf("%d tracks", len(v.Media))
		}
		rows[i] = []string{strconv.Itoa(i + 1), v.Kind, v.Title, duration, v.URL}
	}
	return renderTable(w, []string{"#", "Kind", "Title", "Duration", "URL"}, rows)
}

func printHistory(w io.Writer, format string, entries []media.HistoryEntry) error {
	if entries == nil {
		entries = []media.HistoryEntry{}
	}
	if ok, err := encode(w, format, entries); ok {
		return err
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.FetchedAt.Format("2006-01-02 15:04"),
			e.Action,
			e.Title,
			media.FormatDuration(e.Duration),
			e.URL,
		}
	}
	return renderTable(w, []string{"When", "Action", "Title", "Duration", "URL"}, rows)
}
