package roommesh

// SoundRegistry maps engine sound indices to sample file names. The wire
// format stores only the index; a registry ties indices to the sounds the
// engine actually has, so that an encoder can refuse rooms referencing
// sounds that do not exist.
type SoundRegistry map[uint32]string

// Resolve returns the sample name registered for the given index.
func (reg SoundRegistry) Resolve(index uint32) (name string, ok bool) {
	name, ok = reg[index]
	return name, ok
}
