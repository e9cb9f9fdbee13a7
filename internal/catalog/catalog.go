package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/smarttravel/itinerary-api/internal/types"
)

// Catalog is the immutable set of command definitions loaded once at process
// start and injected by reference. The paraphrase-to-identifier mapping is a
// total injective function: loading fails when two identifiers share a
// paraphrase.
type Catalog struct {
	defs         []types.CommandDefinition
	byID         map[types.CommandID]types.CommandDefinition
	byParaphrase map[string]types.CommandID
}

type catalogFile struct {
	Commands []types.CommandDefinition `json:"commands"`
}

// Load reads and validates the command catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read command catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse command catalog: %w", err)
	}
	if len(file.Commands) == 0 {
		return nil, fmt.Errorf("command catalog is empty")
	}

	c := &Catalog{
		defs:         file.Commands,
		byID:         make(map[types.CommandID]types.CommandDefinition, len(file.Commands)),
		byParaphrase: make(map[string]types.CommandID, len(file.Commands)),
	}
	for _, def := range file.Commands {
		if def.ID == "" || def.Paraphrase == "" {
			return nil, fmt.Errorf("command catalog entry missing identifier or paraphrase: %+v", def)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("duplicate command identifier %q", def.ID)
		}
		key := normalizeParaphrase(def.Paraphrase)
		if prev, dup := c.byParaphrase[key]; dup {
			return nil, fmt.Errorf("paraphrase %q is shared by %q and %q", def.Paraphrase, prev, def.ID)
		}
		c.byID[def.ID] = def
		c.byParaphrase[key] = def.ID
	}
	return c, nil
}

func normalizeParaphrase(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// Definitions returns the catalog entries in file order.
func (c *Catalog) Definitions() []types.CommandDefinition {
	return c.defs
}

// Paraphrases returns every classification target in file order.
func (c *Catalog) Paraphrases() []string {
	out := make([]string, len(c.defs))
	for i, def := range c.defs {
		out[i] = def.Paraphrase
	}
	return out
}

// Lookup resolves a command identifier to its definition.
func (c *Catalog) Lookup(id types.CommandID) (types.CommandDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// IdentifierFor maps a paraphrase back to its command identifier. Unknown
// paraphrases, including the oracle's literal "unknown", map to
// types.CommandUnknown.
func (c *Catalog) IdentifierFor(paraphrase string) types.CommandID {
	if id, ok := c.byParaphrase[normalizeParaphrase(paraphrase)]; ok {
		return id
	}
	return types.CommandUnknown
}
