package wbuild

// Profile is the compilation target a build-style task runs against.
// It is selected per invocation and never persisted.
type Profile int

const (
	// Native builds the library and binaries for the host toolchain.
	Native Profile = iota
	// Web builds the WebAssembly module consumed by the browser example.
	Web
)

func (p Profile) String() string {
	switch p {
	case Native:
		return "native"
	case Web:
		return "web"
	default:
		return "unknown"
	}
}

// CommandsFor selects the command sequence the task runs under the given
// profile. Tasks without variants ignore the profile entirely. For tasks
// with variants, the shared Commands prefix runs first, followed by the
// profile-specific sequence; a profile with no defined variant yields
// *UnsupportedVariantError.
func (t *Task) CommandsFor(profile Profile) ([]Command, error) {
	if len(t.Variants) == 0 {
		return t.Commands, nil
	}
	variant, ok := t.Variants[profile]
	if !ok {
		return nil, &UnsupportedVariantError{Task: t.Name, Profile: profile}
	}
	if len(t.Commands) == 0 {
		return variant, nil
	}
	cmds := make([]Command, 0, len(t.Commands)+len(variant))
	cmds = append(cmds, t.Commands...)
	cmds = append(cmds, variant...)
	return cmds, nil
}
