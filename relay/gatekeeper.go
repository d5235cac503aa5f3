package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"project-relay/auth"
	"project-relay/contract"
	"project-relay/directory"
	"project-relay/domain"
	"project-relay/errors"
)

// Handshake carries the connection parameters supplied once per connection.
type Handshake struct {
	// AuthToken is the explicit auth field. It wins over the header.
	AuthToken string
	// AuthorizationHeader is the raw "Authorization: Bearer <token>" value.
	AuthorizationHeader string
	// ProjectID comes from the connection's query parameters.
	ProjectID string
}

// Credential picks the bearer token: explicit auth field first, else the
// Authorization header stripped of its Bearer prefix.
func (h Handshake) Credential() string {
	if h.AuthToken != "" {
		return h.AuthToken
	}
	if h.AuthorizationHeader == "" {
		return ""
	}
	parts := strings.SplitN(h.AuthorizationHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Gatekeeper orchestrates admission. Each step fails fast with a specific
// error; nothing is joined or mutated until every step has passed.
type Gatekeeper struct {
	verifier  *auth.Verifier
	directory contract.IDirectory
}

func NewGatekeeper(verifier *auth.Verifier, dir contract.IDirectory) *Gatekeeper {
	return &Gatekeeper{verifier: verifier, directory: dir}
}

// Admit validates a handshake and returns the session to join with.
// Order matters: missing credential, then malformed project id, then project
// resolution, then credential verification. The project is resolved as an
// explicit checked step before the credential is verified, so an unknown
// project surfaces as ErrProjectNotFound instead of failing later when the
// room binding is dereferenced.
func (g *Gatekeeper) Admit(ctx context.Context, hs Handshake) (domain.Session, error) {
	credential := hs.Credential()
	if credential == "" {
		return domain.Session{}, errors.ErrNoCredential
	}

	if !directory.ValidID(hs.ProjectID) {
		return domain.Session{}, errors.ErrInvalidProjectID
	}

	project, err := g.directory.FindProject(ctx, hs.ProjectID)
	if err == errors.ErrProjectNotFound {
		return domain.Session{}, err
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", errors.ErrProjectNotFound, err)
	}

	identity, err := g.verifier.Verify(credential)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", errors.ErrAuthFailed, err)
	}

	return domain.Session{
		ID:   uuid.NewString(),
		User: identity,
		Room: domain.RoomID(project.ID),
	}, nil
}
