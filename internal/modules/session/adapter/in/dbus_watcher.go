package in

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	hclog "github.com/hashicorp/go-hclog"
)

const (
	login1Dest      = "org.freedesktop.login1"
	login1Manager   = "org.freedesktop.login1.Manager"
	login1Session   = "org.freedesktop.login1.Session"
	propsInterface  = "org.freedesktop.DBus.Properties"
	login1SessionNS = "/org/freedesktop/login1/session"
)

// DBusWatcher turns logind sleep and screen-lock signals into
// visibility-hidden events.
type DBusWatcher struct {
	conn *dbus.Conn
	env  *Environment
	log  hclog.Logger
}

func NewDBusWatcher(env *Environment, logger hclog.Logger) (*DBusWatcher, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DBusWatcher{conn: conn, env: env, log: logger}, nil
}

func (w *DBusWatcher) Run(ctx context.Context) error {
	defer w.conn.Close()
	if err := w.conn.AddMatchSignal(
		dbus.WithMatchInterface(login1Manager),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("match PrepareForSleep: %w", err)
	}
	if err := w.conn.AddMatchSignal(
		dbus.WithMatchSender(login1Dest),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchOption("path_namespace", login1SessionNS),
	); err != nil {
		return fmt.Errorf("match PropertiesChanged: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	w.conn.Signal(signals)
	defer w.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if hiddenSignal(sig) {
				w.log.Info("session hidden by logind", "signal", sig.Name)
				w.env.FireVisibilityHidden()
			}
		}
	}
}

// hiddenSignal reports PrepareForSleep(true) and LockedHint=true.
func hiddenSignal(sig *dbus.Signal) bool {
	if sig == nil {
		return false
	}
	switch sig.Name {
	case login1Manager + ".PrepareForSleep":
		if len(sig.Body) == 1 {
			sleeping, _ := sig.Body[0].(bool)
			return sleeping
		}
	case propsInterface + ".PropertiesChanged":
		if len(sig.Body) < 2 || !strings.HasPrefix(string(sig.Path), login1SessionNS) {
			return false
		}
		iface, _ := sig.Body[0].(string)
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		if iface != login1Session || changed == nil {
			return false
		}
		if v, ok := changed["LockedHint"]; ok {
			locked, _ := v.Value().(bool)
			return locked
		}
	}
	return false
}
