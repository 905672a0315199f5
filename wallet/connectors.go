package wallet

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// builtin connector ids
const (
	ConnectorMetaMask = "metamask"
	ConnectorTrust    = "trust"
	ConnectorExchange = "exchange"
)

const probeTimeout = 5 * time.Second

// Connector describes one wallet integration as a capability
// descriptor, so adding or removing wallet kinds never touches
// orchestration logic.
type Connector struct {
	ID         string
	Name       string
	InstallURL string
	// Matches reports if a provider identifying itself with the given
	// client version string belongs to this connector kind.
	Matches func(clientVersion string) bool
	// Open dials the provider transport of this connector
	Open func() (Provider, error)
}

// Registry holds the known connectors in registration order
type Registry struct {
	connectors []*Connector
}

// NewRegistry new empty connector registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register add a connector descriptor
func (r *Registry) Register(conn *Connector) {
	r.connectors = append(r.connectors, conn)
}

// Get lookup a connector by id
func (r *Registry) Get(id string) *Connector {
	for _, conn := range r.connectors {
		if strings.EqualFold(conn.ID, id) {
			return conn
		}
	}
	return nil
}

// List all registered connectors
func (r *Registry) List() []*Connector {
	return r.connectors
}

// First returns the first connector of the registry, nil when empty
func (r *Registry) First() *Connector {
	if len(r.connectors) == 0 {
		return nil
	}
	return r.connectors[0]
}

// IsAvailable probes whether the connector's provider is reachable
// and identifies as the expected wallet kind.
func (r *Registry) IsAvailable(id string) bool {
	conn := r.Get(id)
	if conn == nil || conn.Open == nil {
		return false
	}
	provider, err := conn.Open()
	if err != nil {
		return false
	}
	defer func() { _ = provider.Close() }()
	version, err := clientVersion(provider)
	if err != nil {
		return false
	}
	if conn.Matches == nil {
		return true
	}
	return conn.Matches(version)
}

func clientVersion(provider Provider) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	raw, err := provider.Request(ctx, MethodClientVersion)
	if err != nil {
		return "", err
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", err
	}
	return version, nil
}

// MatchesMetaMask explicit MetaMask flag in the version string
func MatchesMetaMask(clientVersion string) bool {
	return strings.Contains(clientVersion, "MetaMask")
}

// MatchesTrustLike Trust flags, or simply anything not flagged MetaMask
func MatchesTrustLike(clientVersion string) bool {
	return strings.Contains(clientVersion, "Trust") || !MatchesMetaMask(clientVersion)
}
