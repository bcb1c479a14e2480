package bulba

import "fmt"

// Option configures parsing, decoding and encoding.
type Option func(*options) error

type options struct {
	// maxDepth is 0 when unset. The lexer and parser then fall back to
	// their array nesting default and the decoder to defaultMaxDepth.
	maxDepth int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MaxDepth returns an Option that bounds nesting: arrays nested inside a
// value while parsing, and recursion while decoding into Go values. This
// helps prevent stack overflows on hostile input.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("bulba: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}
