package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/integrity"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/testutil"
	"gorm.io/gorm"
)

type sentMail struct {
	Kind  string
	Email string
	URL   string
}

// recordingMailer keeps queued mail in memory.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) EnqueueEmailVerification(ctx context.Context, email, name, verifyURL string) error {
	m.record("verify", email, verifyURL)
	return nil
}

func (m *recordingMailer) EnqueuePasswordReset(ctx context.Context, email, name, resetURL string) error {
	m.record("reset", email, resetURL)
	return nil
}

func (m *recordingMailer) record(kind, email, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, Email: email, URL: url})
}

func (m *recordingMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type serviceEnv struct {
	db       *gorm.DB
	mailer   *recordingMailer
	auth     *AuthService
	users    *UserService
	company  *CompanyService
	projects *ProjectService
	features *FeatureService
}

func newServiceEnv(t *testing.T) serviceEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := zerolog.Nop()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	featureRepo := repository.NewFeatureRepository(db)

	pol := policy.New(true)
	engine := integrity.NewEngine(db, log)
	issuer := auth.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	mailer := &recordingMailer{}

	authService := NewAuthService(userRepo, engine, issuer, mailer, AuthSettings{
		PublicBaseURL:        "http://api.test",
		TemporaryTokenExpiry: 20 * time.Minute,
	}, log)

	return serviceEnv{
		db:       db,
		mailer:   mailer,
		auth:     authService,
		users:    NewUserService(userRepo, companyRepo, engine, pol, authService, log),
		company:  NewCompanyService(companyRepo, pol),
		projects: NewProjectService(projectRepo, featureRepo, userRepo, engine, pol),
		features: NewFeatureService(featureRepo, projectRepo, userRepo, engine, pol, nil),
	}
}
