package api

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystroke/internal/input/keymap"
	plua "github.com/dshills/keystroke/internal/plugin/lua"
)

// KeysModule implements vifm.keys.
type KeysModule struct {
	ctx *Context
}

// NewKeysModule creates a new keys module.
func NewKeysModule(ctx *Context) *KeysModule {
	return &KeysModule{ctx: ctx}
}

// Name returns the module name.
func (m *KeysModule) Name() string {
	return "keys"
}

// Register creates the vifm.keys table.
func (m *KeysModule) Register(L *lua.LState) (*lua.LTable, error) {
	mod := L.NewTable()
	L.SetField(mod, "add", L.NewFunction(m.add))
	L.SetField(mod, "exists", L.NewFunction(m.exists))
	L.SetField(mod, "list", L.NewFunction(m.list))
	return mod, nil
}

// add{shortcut, modes, handler, description?, isselector?, followedby?}
// -> true | false, message
//
// followedby is "none", "selector" or "keyarg". Bad arguments raise an
// error; keys the store rejects return false and the reason.
func (m *KeysModule) add(L *lua.LState) int {
	opts := L.CheckTable(1)
	b := plua.NewBridge(L)

	shortcut, ok := b.GetTableString(opts, "shortcut")
	if !ok || shortcut == "" {
		L.ArgError(1, "shortcut must be a non-empty string")
		return 0
	}
	keys, err := m.ctx.Translator.ParseStrict(shortcut)
	if err != nil {
		L.ArgError(1, fmt.Sprintf("shortcut: %v", err))
		return 0
	}

	modesTbl, ok := b.GetTableTable(opts, "modes")
	if !ok {
		L.ArgError(1, "modes must be a table")
		return 0
	}
	modes, ok := b.Strings(modesTbl)
	if !ok || len(modes) == 0 {
		L.ArgError(1, "modes must list mode names")
		return 0
	}

	fn, ok := b.GetTableFunc(opts, "handler")
	if !ok {
		L.ArgError(1, "handler must be a function")
		return 0
	}

	description, _ := b.GetTableString(opts, "description")
	isSelector, _ := b.GetTableBool(opts, "isselector")

	follow := keymap.FollowNone
	if f, ok := b.GetTableString(opts, "followedby"); ok {
		switch f {
		case "none":
		case "selector":
			follow = keymap.FollowSelector
		case "keyarg":
			follow = keymap.FollowMultiKey
		default:
			L.ArgError(1, fmt.Sprintf("unknown followedby value %q", f))
			return 0
		}
	}

	binding := keymap.Binding{
		Keys:        keys,
		Handler:     &luaHandler{state: m.ctx.State, fn: fn, selector: isSelector},
		Follow:      follow,
		Description: description,
		Owner:       m.ctx.Owner,
	}

	// On failure the modes already done get back what they had before.
	type replaced struct {
		mode     string
		previous keymap.Binding
		existed  bool
	}
	var added []replaced
	for _, modeName := range modes {
		prev, existed := m.ctx.Store.Foreign(modeName, keys, isSelector)
		if err := m.ctx.Store.AddForeign(modeName, binding, isSelector); err != nil {
			for _, done := range added {
				if done.existed {
					_ = m.ctx.Store.AddForeign(done.mode, done.previous, isSelector)
				} else {
					_ = m.ctx.Store.RemoveForeign(done.mode, keys, isSelector)
				}
			}
			L.Push(lua.LFalse)
			L.Push(lua.LString(fmt.Sprintf("%s: %v", modeName, err)))
			return 2
		}
		added = append(added, replaced{mode: modeName, previous: prev, existed: existed})
	}

	L.Push(lua.LTrue)
	return 1
}

// exists(shortcut, mode?) -> bool
// Reports whether a user mapping or plugin key is bound to shortcut.
func (m *KeysModule) exists(L *lua.LState) int {
	shortcut := L.CheckString(1)
	modeName := L.OptString(2, "normal")

	keys := m.ctx.Translator.Parse(shortcut)
	L.Push(lua.LBool(len(keys) > 0 && m.ctx.Store.UserExists(modeName, keys)))
	return 1
}

// list(mode?) -> {{shortcut, description, isselector}, ...}
// Lists the keys this plugin registered in a mode.
func (m *KeysModule) list(L *lua.LState) int {
	modeName := L.OptString(1, "normal")

	bindings, err := m.ctx.Store.List(modeName, keymap.OriginForeign)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	result := L.NewTable()
	for _, bnd := range bindings {
		if bnd.Owner != m.ctx.Owner {
			continue
		}
		tbl := L.NewTable()
		L.SetField(tbl, "shortcut", lua.LString(m.ctx.Translator.Format(bnd.Keys)))
		L.SetField(tbl, "description", lua.LString(bnd.Description))
		L.SetField(tbl, "isselector", lua.LBool(bnd.Kind == keymap.KindSelector))
		result.Append(tbl)
	}
	L.Push(result)
	return 1
}

// luaHandler runs a Lua function for a plugin key.
type luaHandler struct {
	state    *plua.State
	fn       *lua.LFunction
	selector bool
}

// Handle calls the function with an info table:
//
//	{ count = n?, register = "x"?, keyarg = "c"?, mode = "normal",
//	  indexes = {...}?, selcount = n? }
//
// count and register are only present when typed. indexes and selcount
// describe the selector an action was combined with. A selector returns
// { indexes = {...} } or { count = n } to describe what it picked.
func (h *luaHandler) Handle(info keymap.Info, st *keymap.State) error {
	return h.state.Do(func(L *lua.LState) error {
		b := plua.NewBridge(L)

		tbl := L.NewTable()
		L.SetField(tbl, "mode", lua.LString(info.Mode))
		if info.CountGiven {
			L.SetField(tbl, "count", lua.LNumber(info.Count))
		}
		if info.Register != 0 {
			L.SetField(tbl, "register", lua.LString(string(info.Register)))
		}
		if info.Multi != 0 {
			L.SetField(tbl, "keyarg", lua.LString(string(info.Multi)))
		}
		if st != nil && st.Selector {
			L.SetField(tbl, "selcount", lua.LNumber(st.Count))
			if st.Indexes != nil {
				L.SetField(tbl, "indexes", b.IntTable(st.Indexes))
			}
		}

		if err := L.CallByParam(lua.P{Fn: h.fn, NRet: 1, Protect: true}, tbl); err != nil {
			return err
		}
		ret := L.Get(-1)
		L.Pop(1)

		if !h.selector || st == nil {
			return nil
		}
		return applySelection(b, ret, st)
	})
}

// errBadSelection is returned for selector results that are not
// understood.
var errBadSelection = errors.New("selector must return nil or a table with indexes or count")

func applySelection(b *plua.Bridge, ret lua.LValue, st *keymap.State) error {
	if ret == lua.LNil {
		return nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return errBadSelection
	}
	if idxTbl, ok := b.GetTableTable(tbl, "indexes"); ok {
		indexes, ok := b.Ints(idxTbl)
		if !ok {
			return fmt.Errorf("%w: indexes must be integers", errBadSelection)
		}
		st.Indexes = indexes
		st.Count = len(indexes)
		return nil
	}
	if n, ok := b.GetTableInt(tbl, "count"); ok {
		if n < 0 {
			return fmt.Errorf("%w: negative count", errBadSelection)
		}
		st.Count = n
	}
	return nil
}
