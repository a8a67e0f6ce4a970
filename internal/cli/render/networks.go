package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// Render prints every configured network with its chain ID
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in catapult.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		if network.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s - Error: %v\n", network.Name, network.Error)
			continue
		}

		line := fmt.Sprintf("  ✅ %s - Chain ID: %d", network.Name, network.ChainID)
		if network.Confirm {
			line += filterStyle.Sprint(" (confirm)")
		}
		if network.ConfigKeys > 0 {
			line += mutedStyle.Sprintf(" [%d config keys]", network.ConfigKeys)
		}
		fmt.Fprintln(r.out, line)
	}

	return nil
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
