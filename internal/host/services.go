// services.go builds the Context each dock receives in Setup.
//
// Separated from host.go so the per-dock service values sit together. Every
// service is bound to the dock's identifier when the context is built; a
// dock cannot name another dock's storage, subscriptions or palette entries.
//
// Design: with strict capabilities on, a service the dock did not declare
// through RequiredCapabilities is replaced by a stand-in that fails every
// call with ErrCapabilityDenied. Without strict mode every dock gets every
// service and undeclared use is only visible in the audit log.

package host

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/bus"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/version"
)

// NewContext creates the context for a dock about to run Setup.
func (h *Host) NewContext(id extension.Identity, required []string) extension.Context {
	d := &dock{id: id.ID, required: slices.Clone(required)}
	h.mu.Lock()
	h.docks[id.ID] = d
	h.mu.Unlock()

	strict := h.cfg.StrictCapabilities()
	allowed := func(name string) bool {
		return !strict || slices.Contains(required, name)
	}

	s := extension.Services{
		ID:          id.ID,
		HostVersion: version.Short(),
		SDKVersion:  version.SDK,
		DevMode:     h.cfg.DevMode(),
		Navigation:  navigator{h: h},
		UI:          h.ui,
		Logger:      log.Source(id.ID),
		Palette:     &paletteService{h: h, d: d},
	}
	if allowed(extension.RequireStorage) {
		s.Storage = &kvService{h: h, dock: id.ID}
	} else {
		s.Storage = deniedStorage(extension.RequireStorage)
	}
	if allowed(extension.RequireSecrets) {
		s.Secrets = &kvService{h: h, dock: id.ID, secret: true}
	} else {
		s.Secrets = deniedStorage(extension.RequireSecrets)
	}
	s.Notifications = &notifier{h: h, d: d, denied: !allowed(extension.RequireNotifications)}
	if allowed(extension.RequireNetwork) {
		s.Net = h.net.For(id.ID)
	} else {
		s.Net = deniedFetcher{}
	}
	return extension.NewContext(s)
}

func denied(name string) error {
	return fmt.Errorf("%w: %s", ErrCapabilityDenied, name)
}

// kvService opens the shared store lazily so docks that never persist
// anything do not create a database.
type kvService struct {
	h      *Host
	dock   string
	secret bool
}

func (k *kvService) scope() (extension.Storage, error) {
	st, err := k.h.Storage()
	if err != nil {
		return nil, err
	}
	if k.secret {
		return st.Secrets(k.dock), nil
	}
	return st.Scope(k.dock), nil
}

func (k *kvService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s, err := k.scope()
	if err != nil {
		return nil, false, err
	}
	return s.Get(ctx, key)
}

func (k *kvService) Set(ctx context.Context, key string, value []byte) error {
	s, err := k.scope()
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value)
}

func (k *kvService) Delete(ctx context.Context, key string) error {
	s, err := k.scope()
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

func (k *kvService) Keys(ctx context.Context) ([]string, error) {
	s, err := k.scope()
	if err != nil {
		return nil, err
	}
	return s.Keys(ctx)
}

type deniedStorage string

func (d deniedStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, denied(string(d))
}
func (d deniedStorage) Set(context.Context, string, []byte) error { return denied(string(d)) }
func (d deniedStorage) Delete(context.Context, string) error      { return denied(string(d)) }
func (d deniedStorage) Keys(context.Context) ([]string, error)    { return nil, denied(string(d)) }

type deniedFetcher struct{}

func (deniedFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, denied(extension.RequireNetwork)
}

func (deniedFetcher) Do(context.Context, *http.Request) (*http.Response, error) {
	return nil, denied(extension.RequireNetwork)
}

func (deniedFetcher) FetchAsync(_ string, done func([]byte, error)) {
	if done != nil {
		done(nil, denied(extension.RequireNetwork))
	}
}

// notifier binds the bus to one dock. Once the dock is detached no new
// observation can be added, so nothing outlives the unload.
type notifier struct {
	h      *Host
	d      *dock
	denied bool
}

func (n *notifier) Post(name string, payload []byte) {
	if n.denied {
		log.Event("host", "post").Dock(n.d.id).Detail("topic", name).Write(denied(extension.RequireNotifications))
		return
	}
	n.h.bus.Publish(name, payload)
}

func (n *notifier) Observe(name string, handler func(payload []byte)) (string, error) {
	if n.denied {
		return "", denied(extension.RequireNotifications)
	}
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	if n.d.closed {
		return "", ErrDetached
	}
	tok, err := n.h.bus.Subscribe(n.d.id, name, bus.Handler(handler))
	return string(tok), err
}

func (n *notifier) Remove(token string) {
	n.h.bus.Unsubscribe(bus.Token(token))
}

// navigator runs navigation requests off the caller's runner, so a dock
// can ask to focus itself from inside one of its own hooks.
type navigator struct {
	h *Host
}

func (n navigator) Navigate(id string) {
	go func() {
		if err := n.h.Activate(context.Background(), id); err != nil {
			log.Message(log.LevelWarning, "host", fmt.Sprintf("navigate %s: %v", id, err))
		}
	}()
}

func (n navigator) OpenURL(rawURL string) {
	go func() {
		if err := n.h.OpenURL(context.Background(), rawURL); err != nil {
			log.Message(log.LevelWarning, "host", fmt.Sprintf("open %s: %v", rawURL, err))
		}
	}()
}

// ignoredUI stands in when no front end is attached.
type ignoredUI struct{}

func (ignoredUI) Toast(message string, style extension.ToastStyle) {
	log.Message(log.LevelInfo, "host", fmt.Sprintf("toast (%s) ignored - no handler wired: %s", style, message))
}

func (ignoredUI) Confirm(title, _, _ string) bool {
	log.Message(log.LevelInfo, "host", "confirm ignored - no handler wired: "+title)
	return false
}

func (ignoredUI) PresentSheet(extension.Surface) {
	log.Message(log.LevelInfo, "host", "sheet ignored - no handler wired")
}

func (ignoredUI) DismissSheet() {}
