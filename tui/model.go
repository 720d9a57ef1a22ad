package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/console"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/task"
)

const redrawEvery = time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	busyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	levelStyles   = map[client.Level]lipgloss.Style{client.LevelOK: okStyle, client.LevelWarning: busyStyle, client.LevelCritical: failStyle}
	noticeStyles  = map[notify.Level]lipgloss.Style{notify.LevelSuccess: okStyle, notify.LevelWarning: busyStyle, notify.LevelError: failStyle}
	actionLabels  = map[task.Kind]string{task.KindStart: "[s] start", task.KindStop: "[t] stop", task.KindDownload: "[d] download"}
	keysHelpLine  = "↑/↓ wybór • s start • t stop • d mody • x usuń • r odśwież • c wyczyść zakończone • q wyjście"
)

type tickMsg time.Time

type refreshedMsg struct{ err error }

type actionDoneMsg struct {
	text string
	err  error
}

// Model 终端视图：每秒从任务存储重新派生实例状态。
type Model struct {
	ctx context.Context
	c   *console.Console

	spinner spinner.Model
	views   []console.InstanceView
	cursor  int
	status  string
	width   int
}

// New 构造终端视图。
func New(ctx context.Context, c *console.Console) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle
	m := Model{ctx: ctx, c: c, spinner: sp}
	m.reload()
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(redrawEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg { return refreshedMsg{err: m.c.Reload(m.ctx)} }
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(), m.refreshCmd())
}

func (m *Model) reload() {
	m.views = m.c.Views()
	if m.cursor >= len(m.views) {
		m.cursor = len(m.views) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (console.InstanceView, bool) {
	if len(m.views) == 0 {
		return console.InstanceView{}, false
	}
	return m.views[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		m.reload()
		return m, tickCmd()
	case refreshedMsg:
		if msg.err != nil {
			m.status = console.InstancesFailure
		}
		m.reload()
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = client.UserMessage(msg.err)
		} else {
			m.status = msg.text
		}
		m.reload()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.views)-1 {
			m.cursor++
		}
	case "r":
		m.status = "Odświeżanie..."
		return m, m.refreshCmd()
	case "c":
		n, _ := m.c.Prune(m.ctx, "")
		m.status = fmt.Sprintf("Usunięto zakończone zadania: %d", n)
		m.reload()
	case "s":
		return m.act(task.KindStart)
	case "t":
		return m.act(task.KindStop)
	case "d":
		return m.act(task.KindDownload)
	case "x":
		v, ok := m.selected()
		if !ok {
			return m, nil
		}
		id := v.Instance.ID
		return m, func() tea.Msg {
			text, err := m.c.Dispatcher().Delete(m.ctx, id)
			return actionDoneMsg{text: text, err: err}
		}
	}
	return m, nil
}

// act 与实例卡片一致：只有当前可用且未在进行中的操作才会提交。
func (m Model) act(kind task.Kind) (tea.Model, tea.Cmd) {
	v, ok := m.selected()
	if !ok {
		return m, nil
	}
	if v.Action != kind || v.Busy {
		m.status = fmt.Sprintf("Operacja %s niedostępna dla %s", kind, v.Instance.Name)
		return m, nil
	}
	id := v.Instance.ID
	return m, func() tea.Msg {
		t, err := m.c.Dispatcher().Dispatch(m.ctx, kind, id)
		return actionDoneMsg{text: t.Status, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Serwery gier"))
	b.WriteString("\n")
	b.WriteString(m.telemetryLine())
	b.WriteString("\n\n")

	if len(m.views) == 0 {
		b.WriteString(dimStyle.Render("Brak instancji"))
		b.WriteString("\n")
	}
	for i, v := range m.views {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + m.row(v) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	if notes := m.c.Notifications().Recent(); len(notes) > 0 {
		if len(notes) > 3 {
			notes = notes[len(notes)-3:]
		}
		lines := make([]string, 0, len(notes))
		for _, n := range notes {
			st, ok := noticeStyles[n.Level]
			if !ok {
				st = dimStyle
			}
			lines = append(lines, st.Render(n.At.Format("15:04:05")+" "+n.Text))
		}
		b.WriteString("\n" + boxStyle.Render(strings.Join(lines, "\n")) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render(keysHelpLine))
	return b.String()
}

func (m Model) row(v console.InstanceView) string {
	in := v.Instance
	state := dimStyle.Render("zatrzymana")
	if in.IsRunning {
		state = okStyle.Render("działa")
	}
	if !in.IsReady {
		state = busyStyle.Render("brak modów")
	}
	action := actionLabels[v.Action]
	switch {
	case v.Busy:
		action = m.spinner.View() + " " + busyStyle.Render(v.Status)
	case v.Last != nil && v.Last.State == task.StateFailure:
		action += " " + failStyle.Render(v.Last.Status)
	}
	line := fmt.Sprintf("#%-4d %-24s %-12s %s", in.ID, in.Name, state, action)
	if !v.ShutdownAt.IsZero() {
		line += dimStyle.Render(" wyłączenie " + v.ShutdownAt.Format("15:04"))
	}
	return line
}

func (m Model) telemetryLine() string {
	info, _, ok := m.c.Telemetry().Latest()
	if !ok {
		return dimStyle.Render("Brak danych o systemie")
	}
	cpu := int(info.CPUUsage + 0.5)
	mem := info.MemoryUsedPercent()
	disk := info.StorageUsedPercent()
	return fmt.Sprintf("CPU %s  RAM %s  dysk %s  %s (%d rdzeni)",
		levelStyles[client.LevelOf(cpu)].Render(fmt.Sprintf("%d%%", cpu)),
		levelStyles[client.LevelOf(mem)].Render(fmt.Sprintf("%d%%", mem)),
		levelStyles[client.LevelOf(disk)].Render(fmt.Sprintf("%d%%", disk)),
		info.OSName, info.CPUCount)
}

// Run 运行终端视图直到用户退出或 ctx 结束。
func Run(ctx context.Context, c *console.Console) error {
	p := tea.NewProgram(New(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
