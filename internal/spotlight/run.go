package spotlight

// Run builds Monitors, calls fn and always restores every display before
// returning, whether fn succeeds, fails or panics.
func Run(fn func(*Monitors) error, opts ...Option) (err error) {
	m, err := New(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(m)
}
