// Package id provides ULID-based identifier generation for panels and
// message subscriptions.
//
// Panel ids are caller-assigned at construction; the generators here exist
// for hosts that do not bring their own scheme. Prefixes keep logs readable
// (panel_*, sub_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// PanelID identifies an embedded content panel.
type PanelID string

// SubscriptionID identifies a message channel subscription.
type SubscriptionID string

const (
	PanelPrefix        = "panel"
	SubscriptionPrefix = "sub"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewPanelID generates a new panel id.
func NewPanelID() PanelID {
	return PanelID(Default().GenerateWithPrefix(PanelPrefix))
}

// NewSubscriptionID generates a new subscription id.
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().GenerateWithPrefix(SubscriptionPrefix))
}

func (id PanelID) String() string        { return string(id) }
func (id SubscriptionID) String() string { return string(id) }

// IsValid checks whether the payload after the prefix is a valid ULID.
func IsValid(id string) bool {
	for i := 0; i < len(id); i++ {
		if id[i] == '_' {
			id = id[i+1:]
			break
		}
	}
	_, err := ulid.Parse(id)
	return err == nil
}
