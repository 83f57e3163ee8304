package auth

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/yukikurage/project-management-api/internal/models"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// OAuthConfig holds client credentials per provider. Providers with an empty
// client id are not registered.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// OAuthStrategies is an explicit provider set. It replaces goth's process-wide
// registry so handlers and tests get exactly the providers they were built with.
type OAuthStrategies struct {
	providers map[string]goth.Provider
}

// NewOAuthStrategies registers the configured providers.
func NewOAuthStrategies(cfg OAuthConfig) *OAuthStrategies {
	s := &OAuthStrategies{providers: make(map[string]goth.Provider)}
	if cfg.GoogleClientID != "" {
		s.Add(google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, "email", "profile"))
	}
	if cfg.GitHubClientID != "" {
		s.Add(github.New(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL, "user:email"))
	}
	return s
}

// Add registers p under its own name.
func (s *OAuthStrategies) Add(p goth.Provider) {
	s.providers[p.Name()] = p
}

func (s *OAuthStrategies) Provider(name string) (goth.Provider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers, sorted.
func (s *OAuthStrategies) Names() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Begin starts the flow and returns the provider redirect URL plus the marshalled
// session that must be presented again on callback.
func (s *OAuthStrategies) Begin(name, state string) (authURL, session string, err error) {
	p, err := s.Provider(name)
	if err != nil {
		return "", "", err
	}
	sess, err := p.BeginAuth(state)
	if err != nil {
		return "", "", fmt.Errorf("failed to begin %s auth: %w", name, err)
	}
	authURL, err = sess.GetAuthURL()
	if err != nil {
		return "", "", fmt.Errorf("failed to build %s auth url: %w", name, err)
	}
	return authURL, sess.Marshal(), nil
}

// Complete exchanges the callback parameters for the provider's user profile.
func (s *OAuthStrategies) Complete(name, session string, params url.Values) (goth.User, error) {
	p, err := s.Provider(name)
	if err != nil {
		return goth.User{}, err
	}
	sess, err := p.UnmarshalSession(session)
	if err != nil {
		return goth.User{}, fmt.Errorf("failed to restore %s session: %w", name, err)
	}
	if _, err := sess.Authorize(p, params); err != nil {
		return goth.User{}, fmt.Errorf("failed to authorize %s: %w", name, err)
	}
	user, err := p.FetchUser(sess)
	if err != nil {
		return goth.User{}, fmt.Errorf("failed to fetch %s user: %w", name, err)
	}
	return user, nil
}

// LoginTypeForProvider maps a provider name to the stored login type.
func LoginTypeForProvider(name string) (models.LoginType, bool) {
	switch name {
	case "google":
		return models.LoginTypeGoogle, true
	case "github":
		return models.LoginTypeGitHub, true
	}
	return "", false
}
