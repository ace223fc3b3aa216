package updater

// Platform reports the versions of the host CMS and of the runtime it executes on.
type Platform interface {
	HostVersion() string
	RuntimeVersion() string
}

type StaticPlatform struct {
	Host    string
	Runtime string
}

func (p StaticPlatform) HostVersion() string {
	return p.Host
}

func (p StaticPlatform) RuntimeVersion() string {
	return p.Runtime
}
