// Package catalog renders the cached investment catalog as terminal cards.
// The bubbletea program runs non-interactively: one message builds the
// output, then the program quits and the string goes to the caller.
package catalog

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	views  []application.CardView
	opts   RenderOptions
	styles styles
	output string
}

func newModel(views []application.CardView, opts RenderOptions) model {
	return model{
		views:  views,
		opts:   opts,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.views, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(views []application.CardView, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(views, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	final, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return final.output, nil
}
