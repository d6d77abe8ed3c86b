// ABOUTME: Exports a board snapshot as structured YAML.
// ABOUTME: Uses gopkg.in/yaml.v3 with the same column ordering as the Markdown exporter.
package export

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// YamlItem is one checklist entry.
type YamlItem struct {
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed"`
}

// YamlCard is a serializable YAML representation of a single card.
type YamlCard struct {
	ID          int        `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Created     string     `yaml:"created"`
	Deadline    string     `yaml:"deadline"`
	Status      string     `yaml:"status,omitempty"`
	Completed   string     `yaml:"completed,omitempty"`
	EditDates   []string   `yaml:"edit_dates,omitempty"`
	Items       []YamlItem `yaml:"items,omitempty"`
}

// YamlColumn is one column with its cards.
type YamlColumn struct {
	Name  string     `yaml:"name"`
	Label string     `yaml:"label"`
	Limit int        `yaml:"limit,omitempty"`
	Cards []YamlCard `yaml:"cards"`
}

// YamlBoard is the top-level YAML document.
type YamlBoard struct {
	ID             string       `yaml:"id"`
	Title          string       `yaml:"title"`
	Variant        string       `yaml:"variant"`
	BacklogBlocked bool         `yaml:"backlog_blocked"`
	GeneratedAt    string       `yaml:"generated_at"`
	Columns        []YamlColumn `yaml:"columns"`
}

// ExportYAML renders s as YAML.
func ExportYAML(s Snapshot) (string, error) {
	doc := YamlBoard{
		ID:             s.Info.BoardID.String(),
		Title:          s.Info.Title,
		Variant:        string(s.Info.Rules.Variant),
		BacklogBlocked: s.BacklogBlocked,
		GeneratedAt:    s.GeneratedAt.Format(time.RFC3339),
		Columns:        make([]YamlColumn, 0, len(s.Columns)),
	}

	for _, col := range s.Columns {
		yc := YamlColumn{
			Name:  col.Name,
			Label: col.Label,
			Limit: col.Limit,
			Cards: make([]YamlCard, 0, len(col.Cards)),
		}
		for _, card := range col.Cards {
			c := YamlCard{
				ID:          card.ID,
				Title:       card.Title,
				Description: card.Description,
				Created:     card.CreatedDate.UTC().Format(time.RFC3339),
				Deadline:    card.Deadline.UTC().Format(time.RFC3339),
				Status:      card.Status,
				Completed:   formatTime(card.CompletedDate),
			}
			for _, d := range card.EditDates {
				c.EditDates = append(c.EditDates, d.UTC().Format(time.RFC3339))
			}
			for _, it := range card.Items {
				c.Items = append(c.Items, YamlItem{Text: it.Text, Completed: it.Completed})
			}
			yc.Cards = append(yc.Cards, c)
		}
		doc.Columns = append(doc.Columns, yc)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("yaml marshal: %w", err)
	}
	return string(data), nil
}
