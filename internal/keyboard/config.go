package keyboard

type Config struct {
	// Monitor skips all device writes and only logs
	Monitor bool
	// LED class device name; autodetected when empty
	Device string
}

func DefaultConfig() Config {
	return Config{}
}

func (c Config) Validate() error {
	return nil
}
