package app

import (
	"fmt"

	"github.com/dshills/keystroke/internal/input/key"
	"github.com/dshills/keystroke/internal/input/keymap"
	"github.com/dshills/keystroke/internal/input/mode"
)

// builtin describes one compiled-in binding.
type builtin struct {
	keys    key.Sequence
	kind    keymap.Kind
	follow  keymap.Follow
	descr   string
	handler keymap.HandlerFunc
}

func action(keys key.Sequence, descr string, h keymap.HandlerFunc) builtin {
	return builtin{keys: keys, kind: keymap.KindAction, descr: descr, handler: h}
}

func selector(keys key.Sequence, descr string, h keymap.HandlerFunc) builtin {
	return builtin{keys: keys, kind: keymap.KindSelector, descr: descr, handler: h}
}

func (b builtin) then(f keymap.Follow) builtin {
	b.follow = f
	return b
}

func special(codes ...rune) key.Sequence {
	return key.Sequence(codes)
}

// registerBuiltins adds the compiled-in bindings of every mode.
func (a *App) registerBuiltins() error {
	sets := map[string][]builtin{
		mode.Normal:  a.normalKeys(),
		mode.Visual:  a.visualKeys(),
		mode.Cmdline: a.cmdlineKeys(),
		mode.View:    a.viewKeys(),
		mode.Menu:    a.menuKeys(),
	}
	selectors := a.paneSelectors()
	sets[mode.Normal] = append(sets[mode.Normal], selectors...)

	for m, set := range sets {
		for _, b := range set {
			err := a.store.AddBuiltin(m, keymap.Binding{
				Keys:        b.keys,
				Kind:        b.kind,
				Handler:     b.handler,
				Follow:      b.follow,
				Description: b.descr,
			})
			if err != nil {
				return fmt.Errorf("%s %s: %w", m, a.translator.Format(b.keys), err)
			}
		}
	}
	return a.dispatcher.SetDefault(mode.Cmdline, keymap.HandlerFunc(a.cmdlineInput))
}

// motionKeys move the cursor in normal and visual mode.
func (a *App) motionKeys() []builtin {
	down := func(info keymap.Info, _ *keymap.State) error {
		a.pane.Move(info.Count)
		return nil
	}
	up := func(info keymap.Info, _ *keymap.State) error {
		a.pane.Move(-info.Count)
		return nil
	}
	return []builtin{
		action(key.Seq("j"), "go to item below", down),
		action(special(key.KeyDown), "go to item below", down),
		action(key.Seq("k"), "go to item above", up),
		action(special(key.KeyUp), "go to item above", up),
		action(key.Seq("gg"), "go to first item", func(info keymap.Info, _ *keymap.State) error {
			a.pane.GoTo(info.Count - 1)
			return nil
		}),
		action(key.Seq("G"), "go to last item", func(info keymap.Info, _ *keymap.State) error {
			a.pane.GoTo(a.lineTarget(info, a.pane.Len()))
			return nil
		}),
	}
}

// lineTarget returns the index a count selects, or fallback-1 without one.
func (a *App) lineTarget(info keymap.Info, fallback int) int {
	if info.CountGiven {
		return info.Count - 1
	}
	return fallback - 1
}

func (a *App) normalKeys() []builtin {
	keys := a.motionKeys()
	return append(keys,
		action(key.Seq("dd"), "delete items", func(info keymap.Info, _ *keymap.State) error {
			n := a.pane.Delete(info.Register, a.pane.Span(a.pane.Cursor()+info.Count-1))
			a.report("%d items deleted", n)
			return nil
		}),
		action(key.Seq("d"), "delete selected items", func(info keymap.Info, st *keymap.State) error {
			n := a.pane.Delete(info.Register, st.Indexes)
			a.report("%d items deleted", n)
			return nil
		}).then(keymap.FollowSelector),
		action(key.Seq("yy"), "yank items", func(info keymap.Info, _ *keymap.State) error {
			n := a.pane.Yank(info.Register, a.pane.Span(a.pane.Cursor()+info.Count-1))
			a.report("%d items yanked", n)
			return nil
		}),
		action(key.Seq("y"), "yank selected items", func(info keymap.Info, st *keymap.State) error {
			n := a.pane.Yank(info.Register, st.Indexes)
			a.report("%d items yanked", n)
			return nil
		}).then(keymap.FollowSelector),
		action(key.Seq("p"), "put items", func(info keymap.Info, _ *keymap.State) error {
			n := a.pane.Put(info.Register, info.Count)
			if n == 0 {
				return fmt.Errorf("register %c is empty", register(info.Register))
			}
			a.report("%d items put", n)
			return nil
		}),
		action(key.Seq("m"), "set mark", func(info keymap.Info, _ *keymap.State) error {
			a.pane.SetMark(info.Multi)
			return nil
		}).then(keymap.FollowMultiKey),
		action(key.Seq("'"), "go to mark", func(info keymap.Info, _ *keymap.State) error {
			return a.pane.JumpToMark(info.Multi)
		}).then(keymap.FollowMultiKey),
		action(key.Seq("v"), "start visual selection", func(keymap.Info, *keymap.State) error {
			a.pane.StartSelection()
			return a.input.SwitchMode(mode.Visual)
		}),
		action(key.Seq(":"), "enter command line", func(keymap.Info, *keymap.State) error {
			a.setCmdline("")
			return a.input.SwitchMode(mode.Cmdline)
		}),
		action(key.Seq("e"), "view item", func(keymap.Info, *keymap.State) error {
			a.mu.Lock()
			a.viewOffset = 0
			a.mu.Unlock()
			return a.input.SwitchMode(mode.View)
		}),
		action(key.Seq("ZZ"), "quit", a.quitHandler),
		action(key.Seq("ZQ"), "quit", a.quitHandler),
	)
}

// paneSelectors pick the items between the cursor and a target.
func (a *App) paneSelectors() []builtin {
	return []builtin{
		selector(key.Seq("j"), "items below", func(_ keymap.Info, st *keymap.State) error {
			st.Indexes = a.pane.Span(a.pane.Cursor() + st.Count)
			return nil
		}),
		selector(key.Seq("k"), "items above", func(_ keymap.Info, st *keymap.State) error {
			st.Indexes = a.pane.Span(a.pane.Cursor() - st.Count)
			return nil
		}),
		selector(key.Seq("gg"), "items up to the first", func(info keymap.Info, st *keymap.State) error {
			st.Indexes = a.pane.Span(a.lineTarget(info, 1))
			return nil
		}),
		selector(key.Seq("G"), "items down to the last", func(info keymap.Info, st *keymap.State) error {
			st.Indexes = a.pane.Span(a.lineTarget(info, a.pane.Len()))
			return nil
		}),
	}
}

func (a *App) visualKeys() []builtin {
	leave := func(keymap.Info, *keymap.State) error {
		a.pane.ClearSelection()
		return a.input.SwitchMode(mode.Normal)
	}
	keys := a.motionKeys()
	return append(keys,
		action(key.Seq("d"), "delete selection", func(info keymap.Info, _ *keymap.State) error {
			n := a.pane.Delete(info.Register, a.pane.Selection())
			a.report("%d items deleted", n)
			return leave(info, nil)
		}),
		action(key.Seq("y"), "yank selection", func(info keymap.Info, _ *keymap.State) error {
			n := a.pane.Yank(info.Register, a.pane.Selection())
			a.report("%d items yanked", n)
			return leave(info, nil)
		}),
		action(key.Seq("v"), "leave visual mode", leave),
		action(special(key.KeyEscape), "leave visual mode", leave),
		action(special(key.KeyCtrlC), "leave visual mode", leave),
	)
}

func (a *App) cmdlineKeys() []builtin {
	cancel := func(keymap.Info, *keymap.State) error {
		a.setCmdline("")
		return a.input.SwitchMode(mode.Normal)
	}
	backspace := func(info keymap.Info, st *keymap.State) error {
		a.mu.Lock()
		line := []rune(a.cmdline)
		empty := len(line) == 0
		if !empty {
			a.cmdline = string(line[:len(line)-1])
		}
		a.mu.Unlock()
		if empty {
			return cancel(info, st)
		}
		return nil
	}
	return []builtin{
		action(special(key.KeyEnter), "run command", func(keymap.Info, *keymap.State) error {
			a.mu.Lock()
			line := a.cmdline
			a.cmdline = ""
			a.mu.Unlock()
			if err := a.input.SwitchMode(mode.Normal); err != nil {
				return err
			}
			return a.runCommand(line)
		}),
		action(special(key.KeyEscape), "cancel", cancel),
		action(special(key.KeyCtrlC), "cancel", cancel),
		action(special(key.KeyBackspace), "delete character", backspace),
		action(special(key.KeyDel), "delete character", backspace),
		action(special(0x08), "delete character", backspace),
		action(special(0x15), "clear line", func(keymap.Info, *keymap.State) error {
			a.setCmdline("")
			return nil
		}),
	}
}

// cmdlineInput appends keys that have no binding to the command line.
func (a *App) cmdlineInput(info keymap.Info, _ *keymap.State) error {
	if key.IsSpecial(info.Multi) || info.Multi < ' ' {
		return nil
	}
	a.mu.Lock()
	a.cmdline += string(info.Multi)
	a.mu.Unlock()
	return nil
}

func (a *App) viewKeys() []builtin {
	scroll := func(delta int) keymap.HandlerFunc {
		return func(info keymap.Info, _ *keymap.State) error {
			a.mu.Lock()
			a.viewOffset = max(a.viewOffset+delta*info.Count, 0)
			a.mu.Unlock()
			return nil
		}
	}
	leave := func(keymap.Info, *keymap.State) error {
		return a.input.SwitchMode(mode.Normal)
	}
	return []builtin{
		action(key.Seq("j"), "scroll down", scroll(1)),
		action(key.Seq("k"), "scroll up", scroll(-1)),
		action(key.Seq("q"), "leave view", leave),
		action(special(key.KeyEscape), "leave view", leave),
	}
}

func (a *App) menuKeys() []builtin {
	move := func(delta int) keymap.HandlerFunc {
		return func(info keymap.Info, _ *keymap.State) error {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.menu.move(delta * info.Count)
			return nil
		}
	}
	leave := func(keymap.Info, *keymap.State) error {
		a.mu.Lock()
		a.menu = menu{}
		a.mu.Unlock()
		return a.input.SwitchMode(mode.Normal)
	}
	return []builtin{
		action(key.Seq("j"), "next item", move(1)),
		action(key.Seq("k"), "previous item", move(-1)),
		action(special(key.KeyEnter), "pick item", func(info keymap.Info, st *keymap.State) error {
			a.mu.Lock()
			item := a.menu.current()
			a.mu.Unlock()
			if item != "" {
				a.setStatus(item, false)
			}
			return leave(info, st)
		}),
		action(key.Seq("q"), "close menu", leave),
		action(special(key.KeyEscape), "close menu", leave),
	}
}

func (a *App) quitHandler(keymap.Info, *keymap.State) error {
	a.Quit()
	return nil
}
