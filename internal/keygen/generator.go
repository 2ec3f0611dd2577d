package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultPrefix       = "TWITCH"
	DefaultSegmentBytes = 2
	MinSegmentBytes     = 2

	segmentCount = 3
	delimiter    = "-"
)

// Generator produces candidate license key strings of the form
// PREFIX-XXXX-XXXX-XXXX. It does not check uniqueness.
type Generator struct {
	random        io.Reader
	defaultPrefix string
	segmentBytes  int
}

type Option func(*Generator)

func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.random = r
		}
	}
}

func WithDefaultPrefix(prefix string) Option {
	return func(g *Generator) {
		if p := strings.TrimSpace(prefix); p != "" {
			g.defaultPrefix = p
		}
	}
}

func WithSegmentBytes(n int) Option {
	return func(g *Generator) {
		if n >= MinSegmentBytes {
			g.segmentBytes = n
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		random:        rand.Reader,
		defaultPrefix: DefaultPrefix,
		segmentBytes:  DefaultSegmentBytes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) DefaultPrefix() string {
	return g.defaultPrefix
}

// Generate returns a fresh candidate. An empty prefix selects the default one.
func (g *Generator) Generate(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = g.defaultPrefix
	}

	segments := make([]string, 0, segmentCount+1)
	segments = append(segments, prefix)
	for i := 0; i < segmentCount; i++ {
		b, err := g.randomBytes(g.segmentBytes)
		if err != nil {
			return "", fmt.Errorf("failed to generate key segment: %w", err)
		}
		segments = append(segments, strings.ToUpper(hex.EncodeToString(b)))
	}

	return strings.Join(segments, delimiter), nil
}

func (g *Generator) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return nil, err
	}
	return b, nil
}
