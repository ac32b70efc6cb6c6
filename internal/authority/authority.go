package authority

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Internal authorities form a closed, enumerable set. Client-defined
// external authority strings are a separate namespace and never validated
// against this catalog.
const (
	GroupUpdate  = "GROUP_UPDATE"
	GroupDelete  = "GROUP_DELETE"
	MemberUpdate = "MEMBER_UPDATE"
	MemberDelete = "MEMBER_DELETE"
	RoleCreate   = "ROLE_CREATE"
	RoleUpdate   = "ROLE_UPDATE"
	RoleDelete   = "ROLE_DELETE"
)

// Definition describes an internal authority.
type Definition struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// definitions is the ordered list of internal authority definitions.
var definitions = []Definition{
	{Key: GroupUpdate, Label: "Update Group"},
	{Key: GroupDelete, Label: "Delete Group"},
	{Key: MemberUpdate, Label: "Manage Members"},
	{Key: MemberDelete, Label: "Remove Members"},
	{Key: RoleCreate, Label: "Create Roles"},
	{Key: RoleUpdate, Label: "Update Roles"},
	{Key: RoleDelete, Label: "Delete Roles"},
}

// definitionMap provides fast lookup for authority definitions.
var definitionMap = func() map[string]Definition {
	out := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		out[def.Key] = def
	}
	return out
}()

// Definitions returns a copy of all authority definitions.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// All returns every internal authority key.
func All() []string {
	out := make([]string, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def.Key)
	}
	return out
}

// Normalize trims, de-duplicates, and sorts an authority list.
func Normalize(auths []string) []string {
	if len(auths) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(auths))
	normalized := make([]string, 0, len(auths))
	for _, auth := range auths {
		trimmed := strings.TrimSpace(auth)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized
}

// Validate checks that all authorities exist in the internal catalog.
func Validate(auths []string) error {
	for _, auth := range auths {
		trimmed := strings.TrimSpace(auth)
		if trimmed == "" {
			continue
		}
		if _, ok := definitionMap[trimmed]; !ok {
			return fmt.Errorf("invalid authority: %s", trimmed)
		}
	}
	return nil
}

// Parse parses and normalizes an authority set from its JSON column form.
func Parse(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var auths []string
	if err := json.Unmarshal(raw, &auths); err != nil {
		return []string{}
	}
	return Normalize(auths)
}

// Marshal serializes a normalized authority set to JSON.
func Marshal(auths []string) ([]byte, error) {
	return json.Marshal(Normalize(auths))
}

// Union merges authority sets from several roles into one normalized set.
// Aggregation is a plain union: no role can revoke an authority granted by
// another role the user also holds.
func Union(sets ...[]string) []string {
	merged := make([]string, 0)
	for _, set := range sets {
		merged = append(merged, set...)
	}
	return Normalize(merged)
}

// Has checks whether the key exists in the authority list.
func Has(auths []string, key string) bool {
	if key == "" {
		return false
	}
	for _, auth := range auths {
		if auth == key {
			return true
		}
	}
	return false
}
