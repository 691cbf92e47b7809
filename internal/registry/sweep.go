package registry

import (
	"context"
	"os"
)

// Sweep removes sockets under contract whose peer no longer accepts
// connections and returns the endpoints it removed.
func (d *Dir) Sweep(ctx context.Context, contract Contract) ([]Endpoint, error) {
	endpoints, err := d.Discover(ctx, contract)
	if err != nil {
		return nil, err
	}

	var removed []Endpoint
	for _, name := range endpoints {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		path := d.SocketPath(contract, name)
		if isLive(path) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			continue
		}
		removed = append(removed, name)
	}
	return removed, nil
}
