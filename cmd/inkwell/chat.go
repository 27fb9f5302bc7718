package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/chat"
	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	"github.com/inkwell-ai/inkwell/internal/notify"
	"github.com/inkwell-ai/inkwell/internal/session"
	"github.com/inkwell-ai/inkwell/internal/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive writing chat",
	Long:  `Start an interactive chat session against the configured story. The assistant can read and modify chapters through tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		storyID, err := r.storyID()
		if err != nil {
			return err
		}

		incognito, _ := cmd.Flags().GetBool("incognito")
		resumeID, _ := cmd.Flags().GetString("session")

		repl, err := newChatREPL(r, storyID, resumeID, incognito)
		if err != nil {
			return err
		}
		return repl.Run()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("workspace", "w", "", "Target workspace ID")
	chatCmd.Flags().String("session", "", "Resume an existing session ID")
	chatCmd.Flags().Bool("incognito", false, "Do not persist this session")
}

type chatREPL struct {
	runtime   *runtimeComponents
	loop      *chat.Loop
	reader    *bufio.Reader
	storyID   string
	sessionID string
	incognito bool

	transcript []contract.Message
	savedCount int

	promptStyle   lipgloss.Style
	thinkingStyle lipgloss.Style
	noticeStyle   lipgloss.Style
}

func newChatREPL(r *runtimeComponents, storyID, resumeID string, incognito bool) (*chatREPL, error) {
	sessionID := resumeID
	var transcript []contract.Message

	if resumeID != "" {
		history, err := r.sessions.History(resumeID)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", resumeID, err)
		}
		transcript = history
	} else {
		sessionID = session.NewSessionID()
	}

	repl := &chatREPL{
		runtime:    r,
		reader:     bufio.NewReader(os.Stdin),
		storyID:    storyID,
		sessionID:  sessionID,
		incognito:  incognito,
		transcript: transcript,
		savedCount: len(transcript),

		promptStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		thinkingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		noticeStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	events := notify.New(os.Stdout, repl.refreshStory)
	repl.loop = chat.NewLoop(r.backend, events, chat.Options{
		StoryID:         storyID,
		ModelType:       r.cfg.Chat.ModelType,
		ModelName:       r.cfg.Chat.ModelName,
		ActiveChapterID: r.cfg.Story.ActiveChapterID,
		AllowWebSearch:  r.cfg.Backend.AllowWebSearch,
	})

	return repl, nil
}

func (r *chatREPL) Run() error {
	fmt.Printf("Inkwell chat session: %s\n", r.sessionID)
	if r.incognito {
		fmt.Println(r.noticeStyle.Render("Incognito: nothing will be saved."))
	}
	fmt.Println("Type /help for commands, /exit to quit.")

	for {
		fmt.Print(r.promptStyle.Render("> "))
		text, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return r.shutdown()
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			done, err := r.handleCommand(text)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			if done {
				return r.shutdown()
			}
			continue
		}

		r.send(text)
	}
}

// send runs one conversation turn. Ctrl-C cancels the in-flight streams
// without leaving the REPL; the notifier keeps cancellation silent.
func (r *chatREPL) send(text string) {
	r.transcript = append(r.transcript, contract.Message{Role: "user", Content: text})

	sig := NewSignalHandler(context.Background())
	sig.Start()
	defer sig.Stop()

	var sawThinking bool
	handlers := stream.Handlers{
		OnContent: func(chunk string) {
			if sawThinking {
				fmt.Println()
				sawThinking = false
			}
			fmt.Print(chunk)
		},
		OnThinking: func(chunk string) {
			sawThinking = true
			fmt.Print(r.thinkingStyle.Render(chunk))
		},
	}

	transcript, err := r.loop.Send(sig.Context(), r.transcript, handlers)
	r.transcript = transcript
	fmt.Println()
	if err != nil {
		r.loop.Events().StreamError(err)
	}
}

func (r *chatREPL) refreshStory() {
	story, err := r.runtime.backend.GetStory(context.Background(), r.storyID)
	if err != nil {
		fmt.Println(r.noticeStyle.Render("(story changed, refresh failed)"))
		return
	}
	fmt.Println(r.noticeStyle.Render(fmt.Sprintf("(story updated: %s, %d chapters)", story.Title, len(story.Chapters))))
}

func (r *chatREPL) handleCommand(input string) (done bool, err error) {
	parts, parseErr := shlex.Split(input)
	if parseErr != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return false, nil
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/exit":
		return true, nil
	case "/help":
		fmt.Println(r.helpText())
	case "/save":
		if err := r.save(); err != nil {
			return false, err
		}
		fmt.Println("Session saved.")
	case "/incognito":
		r.incognito = !r.incognito
		if r.incognito {
			fmt.Println("Incognito on: nothing will be saved from here.")
		} else {
			fmt.Println("Incognito off.")
		}
	case "/model":
		if len(args) < 1 {
			fmt.Printf("Current model: %s\n", r.loop.ModelName())
			return false, nil
		}
		r.loop.SetModelName(args[0])
		fmt.Printf("Model set to %s\n", args[0])
	case "/clear":
		r.transcript = nil
		r.savedCount = 0
		if !r.incognito {
			if err := r.runtime.sessions.Reset(r.sessionID); err != nil {
				return false, err
			}
		}
		fmt.Println("Transcript cleared.")
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
	return false, nil
}

// save persists the messages added since the last save event.
func (r *chatREPL) save() error {
	if r.savedCount > len(r.transcript) {
		r.savedCount = len(r.transcript)
	}
	delta := r.transcript[r.savedCount:]
	if err := r.runtime.sessions.Append(r.sessionID, r.incognito, delta); err != nil {
		return err
	}

	title := sessionTitle(r.transcript)
	if err := r.runtime.sessions.Save(&store.SessionMeta{
		ID:        r.sessionID,
		Title:     title,
		StoryID:   r.storyID,
		ModelName: r.loop.ModelName(),
	}, r.incognito); err != nil {
		return err
	}

	r.savedCount = len(r.transcript)
	return nil
}

func (r *chatREPL) shutdown() error {
	if r.incognito || r.savedCount == len(r.transcript) {
		return nil
	}
	return r.save()
}

func (r *chatREPL) helpText() string {
	return strings.TrimSpace(`
/save       persist the session transcript
/incognito  toggle persistence off/on
/model      show or set the chat model: /model <name>
/clear      drop the transcript and stored session
/exit       leave the chat
`)
}

func sessionTitle(transcript []contract.Message) string {
	for _, m := range transcript {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			title := strings.TrimSpace(m.Content)
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			return title
		}
	}
	return "Chat session"
}
