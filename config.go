package frps

import "math"

// Default limits. Length fields on the wire may be up to 8 octets; anything
// above 2^31-1 is rejected regardless of configuration.
const (
	DefaultMaxStringLen = math.MaxInt32
	DefaultMaxBinaryLen = math.MaxInt32
	DefaultMaxArrayLen  = math.MaxInt32
	DefaultMaxStructLen = math.MaxInt32
	DefaultMaxDepth     = 64
)

// Config controls decoder security limits
type Config struct {
	// MaxStringLen is the maximum allowed string length in bytes
	MaxStringLen int

	// MaxBinaryLen is the maximum allowed binary data length in bytes
	MaxBinaryLen int

	// MaxArrayLen is the maximum allowed array length (number of items)
	MaxArrayLen int

	// MaxStructLen is the maximum allowed struct length (number of members)
	MaxStructLen int

	// MaxDepth is the maximum allowed nesting depth for arrays and structs.
	// The decoder's frame stack is sized from this at construction.
	MaxDepth int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxStringLen: DefaultMaxStringLen,
		MaxBinaryLen: DefaultMaxBinaryLen,
		MaxArrayLen:  DefaultMaxArrayLen,
		MaxStructLen: DefaultMaxStructLen,
		MaxDepth:     DefaultMaxDepth,
	}
}

// WithMaxStringLen returns a new Config with the specified MaxStringLen
func (c Config) WithMaxStringLen(n int) Config {
	c.MaxStringLen = n
	return c
}

// WithMaxBinaryLen returns a new Config with the specified MaxBinaryLen
func (c Config) WithMaxBinaryLen(n int) Config {
	c.MaxBinaryLen = n
	return c
}

// WithMaxArrayLen returns a new Config with the specified MaxArrayLen
func (c Config) WithMaxArrayLen(n int) Config {
	c.MaxArrayLen = n
	return c
}

// WithMaxStructLen returns a new Config with the specified MaxStructLen
func (c Config) WithMaxStructLen(n int) Config {
	c.MaxStructLen = n
	return c
}

// WithMaxDepth returns a new Config with the specified MaxDepth
func (c Config) WithMaxDepth(n int) Config {
	c.MaxDepth = n
	return c
}
