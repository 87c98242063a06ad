package stubapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/udaycodespace/credify/pkg/utilities/timeutil"
)

const (
	msgNotFound   = "Credential not found in registry"
	msgRevoked    = "Credential has been revoked"
	msgSuperseded = "Credential has been superseded by a newer version"
)

// Service produces the backend's JSON answers from a Registry.
type Service struct {
	registry *Registry
	clock    timeutil.Clock
}

func NewService(registry *Registry, clock timeutil.Clock) *Service {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &Service{registry: registry, clock: clock}
}

func (s *Service) Status() ChainStatus {
	return s.registry.Status()
}

// Verify answers a verification request. Refusals are answers too: they
// carry valid=false and an error message.
func (s *Service) Verify(id string) map[string]any {
	c, ok := s.registry.Lookup(id)
	if !ok {
		return map[string]any{"valid": false, "error": msgNotFound}
	}

	switch c.Status {
	case StatusRevoked:
		return map[string]any{
			"valid":             false,
			"error":             msgRevoked,
			"status":            string(StatusRevoked),
			"revocation_reason": c.RevocationReason,
			"revocation_date":   isoTime(c.RevokedAt),
		}
	case StatusSuperseded:
		return map[string]any{
			"valid":           false,
			"error":           msgSuperseded,
			"status":          string(StatusSuperseded),
			"superseded_by":   c.SupersededBy,
			"superseded_date": isoTime(c.SupersededAt),
		}
	}

	return map[string]any{
		"valid":        true,
		"credential":   c.Document(),
		"status":       string(StatusActive),
		"version":      c.Version,
		"block_number": c.BlockNumber,
		"tx_hash":      c.TxHash,
		"verification_details": map[string]any{
			"blockchain_verified": true,
			"signature_verified":  true,
			"hash_verified":       true,
			"verification_date":   isoTime(s.clock()),
		},
	}
}

// Disclose answers a selective disclosure request for fields of the
// credential subject.
func (s *Service) Disclose(id string, fields []string) map[string]any {
	verification := s.Verify(id)
	if valid, _ := verification["valid"].(bool); !valid {
		return map[string]any{"success": false, "error": verification["error"]}
	}

	c, _ := s.registry.Lookup(id)
	disclosed := make(map[string]any, len(fields))
	for _, field := range fields {
		value, ok := c.Subject[field]
		if !ok {
			return map[string]any{"success": false, "error": fmt.Sprintf("Field %q not found in credential", field)}
		}
		disclosed[field] = value
	}

	now := s.clock()
	return map[string]any{
		"success": true,
		"disclosure": map[string]any{
			"@context":             []string{"https://www.w3.org/2018/credentials/v1", "https://example.org/academic/v1"},
			"type":                 "SelectiveDisclosure",
			"originalCredentialId": c.ID,
			"disclosedFields":      disclosed,
			"proof":                fieldProof(c.Subject, disclosed, now),
			"issuer":               c.Issuer,
			"issuanceDate":         isoTime(c.IssuanceDate),
			"disclosureDate":       isoTime(now),
		},
		"message": fmt.Sprintf("Selective disclosure created with %d fields", len(fields)),
	}
}

// fieldProof binds the disclosed values to the full subject through per
// field hashes and a Merkle root over every subject value.
func fieldProof(subject, disclosed map[string]any, at time.Time) map[string]any {
	selected := make([]string, 0, len(disclosed))
	hashes := make(map[string]string, len(disclosed))
	for field, value := range disclosed {
		selected = append(selected, field)
		hashes[field] = hashValue(value)
	}
	sort.Strings(selected)

	keys := make([]string, 0, len(subject))
	for k := range subject {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	leaves := make([]string, len(keys))
	for i, k := range keys {
		leaves[i] = hashValue(subject[k])
	}

	proof := map[string]any{
		"selected_fields": selected,
		"field_hashes":    hashes,
		"merkle_root":     merkleRoot(leaves),
		"timestamp":       isoTime(at),
	}
	raw, _ := json.Marshal(proof)
	sum := sha256.Sum256(raw)
	proof["digest"] = hex.EncodeToString(sum[:])
	return proof
}

func merkleRoot(level []string) string {
	if len(level) == 0 {
		return ""
	}
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashValue(level[i]+level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}
