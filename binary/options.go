package binary

// Default decoder limits. A length or block count above a limit is rejected
// with too_big before anything is allocated for it.
const (
	DefaultMaxBytesLength = 1 << 28
	DefaultMaxBlockItems  = 1 << 24
)

type config struct {
	maxBytesLength int64
	maxBlockItems  int64
}

func defaultConfig() config {
	return config{maxBytesLength: DefaultMaxBytesLength, maxBlockItems: DefaultMaxBlockItems}
}

// Option configures a Decoder.
type Option func(*config)

// WithMaxBytesLength caps the length of a single bytes or string value.
// n <= 0 disables the check.
func WithMaxBytesLength(n int64) Option {
	return func(c *config) { c.maxBytesLength = n }
}

// WithMaxBlockItems caps the item count of a single array or map block.
// n <= 0 disables the check.
func WithMaxBlockItems(n int64) Option {
	return func(c *config) { c.maxBlockItems = n }
}
