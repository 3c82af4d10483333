// Package refdata holds the read-only reference tables used by the reports:
// the lobby type table shipped with the binary and the hero table fetched
// once from Steam.
package refdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
)

//go:embed lobby_types.json
var lobbyTypesJSON []byte

// UnknownLobby is returned for codes missing from the table.
const UnknownLobby = "Unknown"

// LobbyTable maps lobby type codes to names.
type LobbyTable struct {
	names map[int]string
}

// LoadLobbyTypes parses the embedded table.
func LoadLobbyTypes() (*LobbyTable, error) {
	return ParseLobbyTypes(lobbyTypesJSON)
}

// ParseLobbyTypes parses a {"<code>": {"id": n, "name": "..."}} document.
func ParseLobbyTypes(data []byte) (*LobbyTable, error) {
	var raw map[string]struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("refdata: lobby types: %w", err)
	}
	names := make(map[int]string, len(raw))
	for key, v := range raw {
		code, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("refdata: lobby types: bad key %q", key)
		}
		names[code] = v.Name
	}
	return &LobbyTable{names: names}, nil
}

// Name returns the lobby name for code or UnknownLobby.
func (t *LobbyTable) Name(code int) string {
	if t != nil {
		if n, ok := t.names[code]; ok && n != "" {
			return n
		}
	}
	return UnknownLobby
}

// Len returns the number of known lobby types.
func (t *LobbyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
