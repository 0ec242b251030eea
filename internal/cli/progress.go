package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/elimu-hub/elimu-go/internal/client"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the job status
type tickMsg time.Time

// jobUpdateMsg carries the polled job data
type jobUpdateMsg struct {
	job *client.Job
	err error
}

// pushMsg carries a progress event pushed over the WebSocket.
type pushMsg client.ProgressUpdate

// progressModel is the bubbletea model for job progress.
type progressModel struct {
	client   *client.Client
	jobID    string
	job      *client.Job
	progress progress.Model
	theme    Theme
	updates  chan client.ProgressUpdate
	cancelWS context.CancelFunc
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model. Live updates arrive over
// the progress WebSocket; polling backstops missed events and fetches the
// terminal state.
func newProgressModel(c *client.Client, job *client.Job) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	wsCtx, cancel := context.WithCancel(context.Background())
	updates := make(chan client.ProgressUpdate, 16)
	go func() {
		defer close(updates)
		// Connection errors fall back to polling silently.
		_ = c.WatchProgress(wsCtx, []string{job.ID}, func(u client.ProgressUpdate) {
			select {
			case updates <- u:
			default:
			}
		})
	}()

	return progressModel{
		client:   c,
		jobID:    job.ID,
		job:      job,
		progress: prog,
		theme:    defaultTheme,
		updates:  updates,
		cancelWS: cancel,
	}
}

// Init returns the initial commands (start polling, listen for pushes).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitForPush(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancelWS()
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchJob()

	case pushMsg:
		if m.job != nil {
			m.job.Status = msg.Status
			m.job.Progress = msg.Progress
			m.job.Message = msg.Message
		}
		if terminal(msg.Status) {
			// Fetch the final record so errors and timestamps are present.
			return m, m.fetchJob()
		}
		return m, m.waitForPush()

	case jobUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch job status: %w", msg.err)
			m.done = true
			m.cancelWS()
			return m, tea.Quit
		}

		m.job = msg.job

		switch m.job.Status {
		case "completed", "cancelled":
			m.done = true
			m.cancelWS()
			return m, tea.Quit
		case "failed":
			m.done = true
			m.cancelWS()
			if m.job.Error != "" {
				m.err = fmt.Errorf("%s", m.job.Error)
			} else {
				m.err = fmt.Errorf("job failed with unknown error")
			}
			return m, tea.Quit
		}

		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.job == nil {
		return "Loading job status...\n"
	}

	pct := float64(m.job.Progress) / 100

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.job.Status))
	progressBar := m.progress.ViewAs(pct)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %d%%  %s\n%s\n", status, progressBar, m.job.Progress, m.job.Message, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJob %s continues in background.\nUse 'elimu jobs %s' to check status.\n",
			m.jobID, m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Job failed: %s\n", m.err))
	}

	if m.job != nil && m.job.Status == "cancelled" {
		return m.theme.hintStyle().Render("\nJob was cancelled.\n")
	}

	out := m.theme.completedStyle().Render("✓ Completed") + "\n"
	if m.job != nil && m.job.Message != "" {
		out += fmt.Sprintf("  %s\n", m.job.Message)
	}
	return out
}

// fetchJob fetches the current job status from the server.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m progressModel) fetchJob() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		job, err := m.client.GetJob(ctx, m.jobID)
		return jobUpdateMsg{job: job, err: err}
	}
}

// waitForPush blocks on the next WebSocket event.
func (m progressModel) waitForPush() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return pushMsg(u)
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func terminal(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// RunJobProgress runs the interactive progress UI for a job.
// Returns nil on success or Ctrl+C (background), error on job failure.
func RunJobProgress(c *client.Client, job *client.Job) error {
	model := newProgressModel(c, job)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
