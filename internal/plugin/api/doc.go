// Package api provides the Lua API exposed to plugins.
//
// Plugins reach the application through the global "vifm" table, also
// returned by require("vifm"):
//
//   - vifm.keys: register keys (add, exists, list)
//   - vifm.sb: status bar messages (info, error, quick)
//   - vifm.mode: mode queries (current, is)
//   - vifm.plugin: facts about the running plugin (name, path, id, file)
//
// Each part implements Module and is collected in a Registry, which
// installs the table into a Lua state:
//
//	ctx := &api.Context{Plugin: "fzf", Owner: id, Store: store, State: state}
//	reg := api.DefaultRegistry(ctx)
//	if err := state.Do(reg.Install); err != nil {
//	    return err
//	}
//
// # Keys
//
// vifm.keys.add registers a foreign key:
//
//	vifm.keys.add {
//	    shortcut = "<space>f",
//	    modes = { "normal", "visual" },
//	    description = "find files",
//	    followedby = "none",  -- or "selector", "keyarg"
//	    isselector = false,
//	    handler = function(info) ... end,
//	}
//
// Keys are tagged with the plugin's owner id, so unloading a plugin removes
// exactly the keys it added. Registering in several modes is all or
// nothing.
//
// Handlers run inside the plugin's State and receive an info table with
// mode, count, register and keyarg. Actions combined with a selector also
// get selcount and indexes. Selectors may return {indexes = {...}} or
// {count = n}.
package api
