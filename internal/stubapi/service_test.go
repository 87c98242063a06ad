package stubapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededService(t *testing.T) *Service {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, SeedDemo(registry))
	fixed := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	return NewService(registry, func() time.Time { return fixed })
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "CRED-001", NormalizeID(" CRED-001 "))
	assert.Equal(t, "1234-abcd", NormalizeID("urn:uuid:1234-abcd"))
	assert.Equal(t, "CRED-9", NormalizeID("urn:credify:CRED-9"))
}

func TestVerifyAnswers(t *testing.T) {
	svc := seededService(t)

	active := svc.Verify("CRED-001")
	assert.Equal(t, true, active["valid"])
	assert.Equal(t, "active", active["status"])
	assert.NotNil(t, active["credential"])

	viaURN := svc.Verify("urn:uuid:CRED-001")
	assert.Equal(t, true, viaURN["valid"])

	missing := svc.Verify("CRED-404")
	assert.Equal(t, map[string]any{"valid": false, "error": msgNotFound}, missing)

	revoked := svc.Verify("CRED-003")
	assert.Equal(t, false, revoked["valid"])
	assert.Equal(t, "revoked", revoked["status"])
	assert.Equal(t, "Academic misconduct", revoked["revocation_reason"])

	superseded := svc.Verify("CRED-004")
	assert.Equal(t, false, superseded["valid"])
	assert.Equal(t, "CRED-005", superseded["superseded_by"])
}

func TestDiscloseAnswers(t *testing.T) {
	svc := seededService(t)

	ok := svc.Disclose("CRED-002", []string{"name", "gpa"})
	require.Equal(t, true, ok["success"])
	assert.Equal(t, "Selective disclosure created with 2 fields", ok["message"])
	doc := ok["disclosure"].(map[string]any)
	assert.Equal(t, "SelectiveDisclosure", doc["type"])
	assert.Equal(t, "CRED-002", doc["originalCredentialId"])
	assert.Equal(t, map[string]any{"name": "Bob Jones", "gpa": 3.9}, doc["disclosedFields"])
	proof := doc["proof"].(map[string]any)
	assert.Equal(t, []string{"gpa", "name"}, proof["selected_fields"])
	assert.NotEmpty(t, proof["merkle_root"])

	unknown := svc.Disclose("CRED-002", []string{"ssn"})
	assert.Equal(t, false, unknown["success"])
	assert.Equal(t, `Field "ssn" not found in credential`, unknown["error"])

	revoked := svc.Disclose("CRED-003", []string{"name"})
	assert.Equal(t, false, revoked["success"])
	assert.Equal(t, msgRevoked, revoked["error"])
}

func TestRegistryStatusCountsBlocks(t *testing.T) {
	registry := NewRegistry()
	before := registry.Status()
	assert.Equal(t, 1, before.TotalBlocks)
	assert.Zero(t, before.TotalCredentials)

	require.NoError(t, SeedDemo(registry))
	after := registry.Status()
	assert.Equal(t, 1+5+2, after.TotalBlocks)
	assert.Equal(t, 5, after.TotalCredentials)
	assert.NotEqual(t, before.LastBlockHash, after.LastBlockHash)
	assert.True(t, after.IPFSStatus)

	assert.Error(t, registry.Issue(Credential{ID: "CRED-001"}))
	assert.Error(t, registry.Issue(Credential{ID: " "}))
	assert.Error(t, registry.Revoke("CRED-404", "", time.Now()))
}

func TestMerkleRoot(t *testing.T) {
	assert.Empty(t, merkleRoot(nil))
	assert.Equal(t, "a", merkleRoot([]string{"a"}))
	assert.Equal(t, merkleRoot([]string{"a", "b", "c"}), merkleRoot([]string{"a", "b", "c"}))
	assert.NotEqual(t, merkleRoot([]string{"a", "b"}), merkleRoot([]string{"b", "a"}))
}
