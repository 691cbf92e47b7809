// Package registry tracks which gizmo peers are currently reachable.
//
// Each peer owns a unix socket at <root>/<contract>/<endpoint>.sock. The set
// of sockets in a contract directory is the fleet for that contract. A
// listing is a point-in-time snapshot; a peer may vanish right after it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/gizmotray/internal/runtimepath"
)

// Endpoint is the stable name a peer is reachable under.
type Endpoint string

// Contract names the remote operations a peer supports.
type Contract string

// GizmoServer is the contract every gizmo window implements: activate, close,
// report its screen rectangle and move.
const GizmoServer Contract = "gizmo-server"

const socketSuffix = ".sock"

var (
	ErrInvalidName   = errors.New("invalid endpoint name")
	ErrEndpointInUse = errors.New("endpoint already registered by a live peer")
	validName        = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	liveProbeTimeout = 250 * time.Millisecond
)

// Registry enumerates endpoints that support a contract.
type Registry interface {
	Discover(ctx context.Context, contract Contract) ([]Endpoint, error)
}

// Resolver maps an endpoint to the socket it listens on.
type Resolver interface {
	SocketPath(contract Contract, name Endpoint) string
}

// Dir is a filesystem-backed registry rooted at a directory.
type Dir struct {
	root string
}

var (
	_ Registry = (*Dir)(nil)
	_ Resolver = (*Dir)(nil)
)

// NewDir returns a registry rooted at root. An empty root resolves to the
// per-user runtime registry directory.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		var err error
		root, err = runtimepath.RegistryDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve registry dir: %w", err)
		}
	}
	return &Dir{root: root}, nil
}

// Root returns the registry root directory.
func (d *Dir) Root() string {
	return d.root
}

// ContractDir returns the directory holding sockets for contract.
func (d *Dir) ContractDir(contract Contract) string {
	return filepath.Join(d.root, string(contract))
}

// SocketPath returns the socket path for an endpoint.
func (d *Dir) SocketPath(contract Contract, name Endpoint) string {
	return filepath.Join(d.ContractDir(contract), string(name)+socketSuffix)
}

// Discover returns the endpoints registered for contract, sorted by name.
// A missing contract directory is an empty fleet.
func (d *Dir) Discover(ctx context.Context, contract Contract) ([]Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.ContractDir(contract))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s endpoints: %w", contract, err)
	}

	endpoints := make([]Endpoint, 0, len(entries))
	for _, entry := range entries {
		name, ok := endpointFromFile(entry.Name())
		if !ok {
			continue
		}
		if entry.Type()&os.ModeSocket == 0 {
			continue
		}
		endpoints = append(endpoints, name)
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i] < endpoints[j] })
	return endpoints, nil
}

// Register claims name under contract and returns a listener on its socket.
// A leftover socket from a dead peer is replaced; a live one is refused.
func (d *Dir) Register(contract Contract, name Endpoint) (net.Listener, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	dir := d.ContractDir(contract)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create registry dir: %w", err)
	}

	path := d.SocketPath(contract, name)
	if _, err := os.Stat(path); err == nil {
		if isLive(path) {
			return nil, fmt.Errorf("%w: %s", ErrEndpointInUse, name)
		}
		os.Remove(path)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoint socket: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

// Unregister removes the socket for name. Missing sockets are ignored.
func (d *Dir) Unregister(contract Contract, name Endpoint) error {
	err := os.Remove(d.SocketPath(contract, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove endpoint socket: %w", err)
	}
	return nil
}

// ValidateName rejects names that cannot be used as a socket file name.
func ValidateName(name Endpoint) error {
	if !validName.MatchString(string(name)) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SanitizeName turns an arbitrary label (e.g. a window title) into a valid
// endpoint name. It returns "" if nothing usable is left.
func SanitizeName(label string) Endpoint {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.Trim(b.String(), "-.")
	if len(name) > 64 {
		name = strings.TrimRight(name[:64], "-.")
	}
	return Endpoint(name)
}

func endpointFromFile(fileName string) (Endpoint, bool) {
	if !strings.HasSuffix(fileName, socketSuffix) {
		return "", false
	}
	name := Endpoint(strings.TrimSuffix(fileName, socketSuffix))
	if ValidateName(name) != nil {
		return "", false
	}
	return name, true
}

func isLive(path string) bool {
	conn, err := net.DialTimeout("unix", path, liveProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
