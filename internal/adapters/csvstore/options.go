package csvstore

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithReservedPrefix sets the file name prefix that marks the combined
// yearly file and excludes it from period listings.
func WithReservedPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.reservedPrefix = prefix
		}
	}
}

// WithCombinedStem sets the combined file stem; the file is <stem>-<year>.csv.
func WithCombinedStem(stem string) Option {
	return func(s *Store) {
		if stem != "" {
			s.combinedStem = stem
		}
	}
}
