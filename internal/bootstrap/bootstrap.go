package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	conversationinadapter "murmur/internal/modules/conversation/adapter/in"
	conversationoutadapter "murmur/internal/modules/conversation/adapter/out"
	conversationservice "murmur/internal/modules/conversation/service"
	conversationusecase "murmur/internal/modules/conversation/usecase"
	dispatchinadapter "murmur/internal/modules/dispatch/adapter/in"
	dispatchoutadapter "murmur/internal/modules/dispatch/adapter/out"
	dispatchservice "murmur/internal/modules/dispatch/service"
	dispatchusecase "murmur/internal/modules/dispatch/usecase"
	speechinadapter "murmur/internal/modules/speech/adapter/in"
	speechoutadapter "murmur/internal/modules/speech/adapter/out"
	speechin "murmur/internal/modules/speech/port/in"
	speechservice "murmur/internal/modules/speech/service"
	speechusecase "murmur/internal/modules/speech/usecase"
	tasksinadapter "murmur/internal/modules/tasks/adapter/in"
	tasksoutadapter "murmur/internal/modules/tasks/adapter/out"
	tasksservice "murmur/internal/modules/tasks/service"
	tasksusecase "murmur/internal/modules/tasks/usecase"
	temporalinadapter "murmur/internal/modules/temporal/adapter/in"
	temporalservice "murmur/internal/modules/temporal/service"
	temporalusecase "murmur/internal/modules/temporal/usecase"
	"murmur/internal/platform/backend"
	"murmur/internal/platform/clock"
	"murmur/internal/platform/config"
	"murmur/internal/platform/credentials"
	apperrors "murmur/internal/platform/errors"
	"murmur/internal/platform/id"
	"murmur/internal/platform/logger"
	uiapp "murmur/internal/ui/app"
)

// maxAttachmentSize mirrors the upload limit of the chat backend.
const maxAttachmentSize = 25 << 20

type App struct {
	ConversationCLI conversationinadapter.CLIHandler
	DispatchCLI     dispatchinadapter.CLIHandler
	SpeechCLI       speechinadapter.CLIHandler
	TemporalCLI     temporalinadapter.CLIHandler
	TasksCLI        tasksinadapter.CLIHandler
	Credentials     *credentials.Store
}

// New wires every module. Logs go to logOut; nil means stderr.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	if logOut == nil {
		logOut = os.Stderr
	}
	logger.Configure(logger.ParseLevel(cfg.LogLevel), cfg.LogPretty, logOut)

	clk := clock.SystemClock{}
	creds := credentials.NewStore(cfg.TokenPath, cfg.Token)
	client := backend.NewClient(cfg.APIBaseURL, nil, cfg.RequestTimeout)
	extractor := temporalservice.NewExtractor()

	historyIndex, err := conversationoutadapter.NewSQLiteHistoryIndex(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new history index: %w", err)
	}
	manager := conversationservice.NewManager(clk, id.UUID{}, historyIndex, logger.With("conversation"))
	conversationUC := conversationusecase.NewInteractor(
		manager,
		conversationoutadapter.NewBackendHistory(client),
		historyIndex,
		creds,
		logger.With("history"),
	)

	dispatchUC := dispatchusecase.NewInteractor(dispatchservice.NewDispatcher(
		dispatchoutadapter.NewBackendTransport(client),
		creds,
		manager,
		dispatchoutadapter.NewLocalAttachmentInspector(maxAttachmentSize),
		extractor,
		clk,
		id.ULID{},
		logger.With("dispatch"),
		dispatchservice.Options{RequestTimeout: cfg.RequestTimeout},
	))

	speechUC, err := newSpeech(cfg, clk)
	if err != nil {
		return nil, err
	}

	tasksUC := tasksusecase.NewInteractor(
		tasksservice.NewService(tasksoutadapter.NewBackendTasks(client), creds, logger.With("tasks")),
		extractor,
		clk,
	)

	return &App{
		ConversationCLI: conversationinadapter.NewCLIHandler(conversationUC),
		DispatchCLI:     dispatchinadapter.NewCLIHandler(dispatchUC),
		SpeechCLI:       speechinadapter.NewCLIHandler(speechUC),
		TemporalCLI:     temporalinadapter.NewCLIHandler(temporalusecase.NewInteractor(extractor, clk)),
		TasksCLI:        tasksinadapter.NewCLIHandler(tasksUC),
		Credentials:     creds,
	}, nil
}

// newSpeech leaves capture disabled, not failed, when no recognizer is configured.
func newSpeech(cfg config.Config, clk clock.SystemClock) (speechin.Usecase, error) {
	device := speechoutadapter.NewPluginDevice(speechoutadapter.PluginDeviceConfig{
		Binary:   cfg.Recognizer.Binary,
		Source:   cfg.Recognizer.Script,
		Language: cfg.Recognizer.Language,
	}, logger.With("recognizer"))
	controller, err := speechservice.NewController(device, clk, clk, speechservice.Options{SilenceTimeout: cfg.SilenceTimeout}, logger.With("speech"))
	if errors.Is(err, apperrors.ErrCaptureUnsupported) {
		logger.Logger.Debug().Str("binary", cfg.Recognizer.Binary).Msg("speech capture unavailable")
		return speechusecase.NewInteractor(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("new speech controller: %w", err)
	}
	return speechusecase.NewInteractor(controller), nil
}

// OpenLogFile returns the file the terminal UI logs to, under the data dir.
func OpenLogFile(cfg config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return os.OpenFile(filepath.Join(cfg.DataDir, "murmur.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.ConversationCLI, app.DispatchCLI, app.SpeechCLI, app.TasksCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
