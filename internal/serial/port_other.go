//go:build !linux

package serial

func Open(cfg Config) (*Port, error) {
	return nil, ErrUnsupportedPlatform
}

func (p *Port) Flush() error {
	return ErrUnsupportedPlatform
}
