package state

// MergeProfile overlays ephemeral profile fields on top of persisted ones,
// field by field. Both sides may be nil. The inputs are never mutated and the
// merge is idempotent: MergeProfile(p, e) == MergeProfile(MergeProfile(p, e), e)
// field-wise, because ephemeral always wins.
func MergeProfile(persisted, ephemeral Profile) Profile {
	merged := make(Profile, len(persisted)+len(ephemeral))
	for name, field := range persisted {
		merged[name] = field
	}
	for name, field := range ephemeral {
		merged[name] = field
	}
	return merged
}

// MergeCollection concatenates persisted triples first, ephemeral triples
// after. No deduplication: the persistence stage resolves duplicates with full
// historical context.
func MergeCollection(persisted, ephemeral []Triple) []Triple {
	merged := make([]Triple, 0, len(persisted)+len(ephemeral))
	merged = append(merged, persisted...)
	merged = append(merged, ephemeral...)
	return merged
}
