package service

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/fan"
	"codeberg.org/voltshift/stitchd/internal/keyboard"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

const (
	BusName    = "org.voltshift.Stitch"
	ObjectPath = dbus.ObjectPath("/org/voltshift/Stitch")

	ProfilesInterface = "org.voltshift.Stitch.Profiles"
	FanInterface      = "org.voltshift.Stitch.Fan"
	KeyboardInterface = "org.voltshift.Stitch.Keyboard"
)

// Service owns the daemon's system bus presence. Method handlers run on
// godbus's dispatch goroutines; everything they touch is safe under
// concurrent callers.
type Service struct {
	conn *dbus.Conn
	log  logger.Logger
}

func New(coordinator *profiles.Coordinator, fanEngine *fan.Engine, keyboardEngine *keyboard.Engine, log logger.Logger) (*Service, error) {
	errFactory := errors.New()

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectBus, err)
	}

	profilesH := &profilesHandler{coordinator: coordinator, log: log}
	fanH := &fanHandler{coordinator: coordinator, engine: fanEngine, log: log}
	keyboardH := &keyboardHandler{coordinator: coordinator, engine: keyboardEngine, log: log}

	exports := []struct {
		handler interface{}
		iface   string
	}{
		{profilesH, ProfilesInterface},
		{fanH, FanInterface},
		{keyboardH, KeyboardInterface},
	}

	for _, export := range exports {
		if err := conn.Export(export.handler, ObjectPath, export.iface); err != nil {
			conn.Close()
			return nil, errFactory.Wrap(ErrExportFailed, err)
		}
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: ProfilesInterface, Methods: introspect.Methods(profilesH)},
			{Name: FanInterface, Methods: introspect.Methods(fanH)},
			{Name: KeyboardInterface, Methods: introspect.Methods(keyboardH)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, errFactory.Wrap(ErrExportFailed, err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, errFactory.Wrap(ErrConnectBus, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, errFactory.WithData(ErrNameTaken, BusName)
	}

	log.Info().Str("name", BusName).Msg("Listening on system bus")

	return &Service{conn: conn, log: log}, nil
}

func (s *Service) Close() error {
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.log.Debug().Err(err).Msg("Failed to release bus name")
	}

	return s.conn.Close()
}
