// Package lua runs plugin code on gopher-lua.
//
// A State is a sandboxed interpreter: only the base, package, table,
// string and math libraries are opened, functions loading code from disk
// are removed, require only returns built-in and preloaded modules, and
// print is redirected to a caller supplied function.
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(time.Second),
//	    lua.WithPrint(func(msg string) { status.Info(msg) }),
//	    lua.WithModule("vifm", loader),
//	)
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	if err := state.DoFile("init.lua"); err != nil {
//	    return err
//	}
//
// Every entry into Lua is serialized by the State and limited by the
// execution timeout, which interrupts runaway loops.
package lua
