package profiles

// GlobalProfile bundles one fan and one keyboard profile by name. The
// referenced entries live in their own stores; keeping the references valid
// across renames is the coordinator's job.
type GlobalProfile struct {
	Keyboard string `json:"keyboard"`
	Fan      string `json:"fan"`
}

// Applier receives a resolved profile payload and applies it to hardware.
// Implemented by the fan and keyboard engines.
type Applier interface {
	Apply(data []byte) error
}

// EncodeFunc serializes a profile payload for storage
type EncodeFunc[T any] func(T) ([]byte, error)

// DecodeFunc deserializes a stored profile payload
type DecodeFunc[T any] func([]byte) (T, error)
