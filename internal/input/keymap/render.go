package keymap

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/layer"
)

// Styles colour cells by keycode kind.
type Styles struct {
	Header      lipgloss.Style
	Border      lipgloss.Style
	Transparent lipgloss.Style
	None        lipgloss.Style
	Plain       lipgloss.Style
	DualRole    lipgloss.Style
	Layer       lipgloss.Style
	Custom      lipgloss.Style
	Unicode     lipgloss.Style
}

// DefaultStyles returns the terminal palette used by the layout command.
func DefaultStyles() Styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Header:      cell.Bold(true).Foreground(lipgloss.Color("245")),
		Border:      lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Transparent: cell.Foreground(lipgloss.Color("240")),
		None:        cell.Foreground(lipgloss.Color("236")),
		Plain:       cell.Foreground(lipgloss.Color("252")),
		DualRole:    cell.Foreground(lipgloss.Color("214")),
		Layer:       cell.Foreground(lipgloss.Color("81")),
		Custom:      cell.Foreground(lipgloss.Color("170")),
		Unicode:     cell.Foreground(lipgloss.Color("114")),
	}
}

func (s Styles) forKind(k key.Kind) lipgloss.Style {
	switch k {
	case key.KindTransparent:
		return s.Transparent
	case key.KindNone:
		return s.None
	case key.KindModTap, key.KindLayerTap:
		return s.DualRole
	case key.KindLayerMomentary, key.KindLayerToggle:
		return s.Layer
	case key.KindCustom:
		return s.Custom
	case key.KindUnicodePair:
		return s.Unicode
	default:
		return s.Plain
	}
}

// Render draws the named layer of the keymap as a table.
func Render(k *Keymap, name string, styles Styles) (string, error) {
	layers, err := k.Parse()
	if err != nil {
		return "", err
	}
	id, ok := k.LayerID(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", layer.ErrUnknownLayer, name)
	}
	names := func(id int) string {
		if id >= 0 && id < len(k.Layers) {
			return k.Layers[id].Name
		}
		return ""
	}
	return RenderLayer(layers[id], names, styles), nil
}

// RenderLayer draws a layer as a table with one column per matrix column.
// names spells layer targets; it may be nil.
func RenderLayer(l *layer.Layer, names func(int) string, styles Styles) string {
	headers := make([]string, l.Cols()+1)
	headers[0] = l.Name()
	for c := 0; c < l.Cols(); c++ {
		headers[c+1] = strconv.Itoa(c)
	}

	rows := make([][]string, l.Rows())
	kinds := make([][]key.Kind, l.Rows())
	for r := range rows {
		rows[r] = make([]string, l.Cols()+1)
		rows[r][0] = strconv.Itoa(r)
		kinds[r] = make([]key.Kind, l.Cols())
	}
	l.Each(func(row, col int, kc key.Keycode) {
		rows[row][col+1] = kc.Format(names)
		kinds[row][col] = kc.Kind()
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return styles.Header
			}
			return styles.forKind(kinds[row][col-1])
		})

	return t.String()
}
