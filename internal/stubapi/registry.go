// Package stubapi is an in-memory implementation of the credential backend
// endpoints, used for local development and end-to-end tests.
package stubapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type CredentialStatus string

const (
	StatusActive     CredentialStatus = "active"
	StatusRevoked    CredentialStatus = "revoked"
	StatusSuperseded CredentialStatus = "superseded"
)

type Issuer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// Credential is one registry entry together with the credential document
// fields the stub serves.
type Credential struct {
	ID           string
	Status       CredentialStatus
	Version      int
	Issuer       Issuer
	IssuanceDate time.Time
	Subject      map[string]any

	BlockNumber int
	TxHash      string

	RevocationReason string
	RevokedAt        time.Time
	SupersededBy     string
	SupersededAt     time.Time
}

// Document renders the W3C-style credential body.
func (c *Credential) Document() map[string]any {
	subject := make(map[string]any, len(c.Subject))
	for k, v := range c.Subject {
		subject[k] = v
	}
	return map[string]any{
		"@context":          []string{"https://www.w3.org/2018/credentials/v1", "https://example.org/academic/v1"},
		"id":                "urn:uuid:" + c.ID,
		"type":              []string{"VerifiableCredential", "AcademicTranscript"},
		"version":           c.Version,
		"issuer":            c.Issuer,
		"issuanceDate":      isoTime(c.IssuanceDate),
		"credentialSubject": subject,
	}
}

// Registry holds credentials and a toy block counter standing in for the
// ledger. Every registry change appends one block.
type Registry struct {
	mu            sync.RWMutex
	credentials   map[string]*Credential
	blocks        int
	lastBlockHash string
	ipfsConnected bool
}

func NewRegistry() *Registry {
	r := &Registry{
		credentials:   make(map[string]*Credential),
		ipfsConnected: true,
	}
	r.appendBlock("genesis")
	return r
}

// NormalizeID strips urn:uuid: and urn:<ns>: prefixes.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(id, "urn:uuid:"); ok {
		return rest
	}
	if strings.HasPrefix(id, "urn:") {
		return id[strings.LastIndex(id, ":")+1:]
	}
	return id
}

func (r *Registry) appendBlock(data string) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s", r.blocks, r.lastBlockHash, data)))
	r.blocks++
	r.lastBlockHash = hex.EncodeToString(sum[:])
}

// Issue registers an active credential.
func (r *Registry) Issue(c Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = NormalizeID(c.ID)
	if c.ID == "" {
		return fmt.Errorf("credential id is required")
	}
	if _, exists := r.credentials[c.ID]; exists {
		return fmt.Errorf("credential %s already issued", c.ID)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.IssuanceDate.IsZero() {
		c.IssuanceDate = time.Now().UTC()
	}
	c.Status = StatusActive

	r.appendBlock("issue:" + c.ID)
	c.BlockNumber = r.blocks - 1
	c.TxHash = r.lastBlockHash
	r.credentials[c.ID] = &c
	return nil
}

func (r *Registry) Revoke(id, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.credentials[NormalizeID(id)]
	if !ok {
		return fmt.Errorf("credential %s not found", id)
	}
	c.Status = StatusRevoked
	c.RevocationReason = reason
	c.RevokedAt = at
	r.appendBlock("revoke:" + c.ID)
	return nil
}

func (r *Registry) Supersede(id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.credentials[NormalizeID(id)]
	if !ok {
		return fmt.Errorf("credential %s not found", id)
	}
	c.Status = StatusSuperseded
	c.SupersededBy = NormalizeID(by)
	c.SupersededAt = at
	r.appendBlock("supersede:" + c.ID)
	return nil
}

// Lookup returns a copy of the credential.
func (r *Registry) Lookup(id string) (Credential, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.credentials[NormalizeID(id)]
	if !ok {
		return Credential{}, false
	}
	return *c, true
}

func (r *Registry) SetIPFSConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ipfsConnected = connected
}

type ChainStatus struct {
	TotalBlocks      int    `json:"total_blocks"`
	TotalCredentials int    `json:"total_credentials"`
	LastBlockHash    string `json:"last_block_hash"`
	IPFSStatus       bool   `json:"ipfs_status"`
}

func (r *Registry) Status() ChainStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ChainStatus{
		TotalBlocks:      r.blocks,
		TotalCredentials: len(r.credentials),
		LastBlockHash:    r.lastBlockHash,
		IPFSStatus:       r.ipfsConnected,
	}
}

// SeedDemo issues CRED-001 to CRED-005. CRED-003 is revoked and CRED-004 is
// superseded by CRED-005.
func SeedDemo(r *Registry) error {
	issuer := Issuer{ID: "did:example:issuer", Name: "Credify Demo University", Department: "Computer Science Engineering"}
	issued := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	seeds := []Credential{
		{ID: "CRED-001", Issuer: issuer, IssuanceDate: issued, Subject: map[string]any{
			"name": "Alice Smith", "studentId": "S1001", "degree": "B.Tech",
			"university": "Credify Demo University", "gpa": 3.8, "graduationYear": 2024,
		}},
		{ID: "CRED-002", Issuer: issuer, IssuanceDate: issued, Subject: map[string]any{
			"name": "Bob Jones", "studentId": "S1002", "degree": "M.Tech",
			"university": "Credify Demo University", "gpa": 3.9, "graduationYear": 2024,
		}},
		{ID: "CRED-003", Issuer: issuer, IssuanceDate: issued, Subject: map[string]any{
			"name": "Carol White", "studentId": "S1003", "degree": "B.Tech", "gpa": 3.1,
		}},
		{ID: "CRED-004", Issuer: issuer, IssuanceDate: issued, Subject: map[string]any{
			"name": "Dan Brown", "studentId": "S1004", "degree": "B.Sc", "gpa": 3.4,
		}},
		{ID: "CRED-005", Version: 2, Issuer: issuer, IssuanceDate: issued.AddDate(0, 1, 0), Subject: map[string]any{
			"name": "Dan Brown", "studentId": "S1004", "degree": "B.Sc", "gpa": 3.5,
		}},
	}
	for _, c := range seeds {
		if err := r.Issue(c); err != nil {
			return err
		}
	}
	if err := r.Revoke("CRED-003", "Academic misconduct", issued.AddDate(0, 2, 0)); err != nil {
		return err
	}
	return r.Supersede("CRED-004", "CRED-005", issued.AddDate(0, 1, 0))
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func hashValue(v any) string {
	var data []byte
	switch x := v.(type) {
	case string:
		data = []byte(x)
	default:
		data, _ = json.Marshal(x)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
