package services

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/cache"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/events"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/quiz"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// Deps carries everything the service layer is built from.
type Deps struct {
	Repo         repositories.Repository
	Cache        cache.Cache
	Engine       *quiz.Engine
	Publisher    events.Publisher
	CheatSink    CheatSink
	Validator    *validator.Validate
	NoteDebounce time.Duration
	Logger       *slog.Logger
}

type serviceManager struct {
	content     ContentService
	slide       SlideService
	attempt     AttemptService
	unlock      UnlockService
	certificate CertificateService
	note        NoteService
	module      ModuleService
	export      ExportService
}

func NewServiceManager(d Deps) ServiceManager {
	content := NewContentService(d.Repo, d.Cache, d.Logger)
	unlock := NewUnlockService(d.Repo, d.Publisher, d.Logger)

	return &serviceManager{
		content:     content,
		slide:       NewSlideService(d.Repo, content, d.Logger),
		attempt:     NewAttemptService(d.Repo, d.Engine, content, unlock, d.Publisher, d.CheatSink, d.Validator, d.Logger),
		unlock:      unlock,
		certificate: NewCertificateService(d.Repo, d.Logger),
		note:        NewNoteService(d.Repo, d.NoteDebounce, d.Logger),
		module:      NewModuleService(d.Repo, d.Cache, d.Validator, d.Logger),
		export:      NewExportService(d.Repo, d.Logger),
	}
}

func (m *serviceManager) Content() ContentService         { return m.content }
func (m *serviceManager) Slide() SlideService             { return m.slide }
func (m *serviceManager) Attempt() AttemptService         { return m.attempt }
func (m *serviceManager) Unlock() UnlockService           { return m.unlock }
func (m *serviceManager) Certificate() CertificateService { return m.certificate }
func (m *serviceManager) Note() NoteService               { return m.note }
func (m *serviceManager) Module() ModuleService           { return m.module }
func (m *serviceManager) Export() ExportService           { return m.export }
