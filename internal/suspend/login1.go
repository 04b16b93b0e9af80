package suspend

import (
	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"github.com/godbus/dbus/v5"
)

const (
	login1Interface = "org.freedesktop.login1.Manager"
	login1Path      = "/org/freedesktop/login1"
	sleepMember     = "PrepareForSleep"

	signalBuffer = 16
)

// Login1Source subscribes to logind's PrepareForSleep signal on the system
// bus. One Stream call is one connection; godbus closes the signal channel
// when the connection drops, which ends the stream cleanly.
type Login1Source struct{}

func NewLogin1Source() *Login1Source {
	return &Login1Source{}
}

func (s *Login1Source) Stream(publish func(entering bool)) error {
	errFactory := errors.New()

	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(dbus.NewSequentialSignalHandler()))
	if err != nil {
		return errFactory.Wrap(ErrSourceUnreachable, err)
	}
	defer conn.Close()

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(login1Interface),
		dbus.WithMatchMember(sleepMember),
		dbus.WithMatchObjectPath(login1Path),
	)
	if err != nil {
		return errFactory.Wrap(ErrSourceUnreachable, err)
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	conn.Signal(signals)

	logger.Info().Msg("Watching logind for sleep transitions")

	for sig := range signals {
		if sig.Name != login1Interface+"."+sleepMember || len(sig.Body) != 1 {
			continue
		}

		entering, ok := sig.Body[0].(bool)
		if !ok {
			logger.Warn().Str("signal", sig.Name).Msg("Unexpected sleep signal payload")
			continue
		}

		if entering {
			logger.Info().Msg("Received suspend notification")
		} else {
			logger.Info().Msg("Received wake notification")
		}

		publish(entering)
	}

	return nil
}
