// Package plugin loads Lua plugins that add keys to the key store.
//
// # Plugin Structure
//
// Plugins live in the plugins directory and are either a single file:
//
//	~/.config/keystroke/plugins/myplugin.lua
//
// or a directory:
//
//	~/.config/keystroke/plugins/myplugin/
//	├── plugin.toml      # Manifest (optional)
//	└── init.lua         # Entry point (or plugin.lua)
//
// # Manifest
//
//	name = "my-plugin"
//	version = "1.0.0"
//	description = "A helpful plugin"
//	main = "init.lua"
//
// # Lifecycle
//
// Each load of a plugin gets a fresh sandboxed Lua state and a new owner id
// (a UUID). The plugin's main file runs once and registers keys through
// vifm.keys.add; every key is tagged with the owner id, so Unload removes
// exactly the keys of that load before closing the state:
//
//	StateUnloaded -> Load() -> StateLoaded
//	StateUnloaded -> Load() -> StateError
//	StateLoaded -> Unload() -> StateUnloaded
//
// Plugins that fail stay in the Manager's list with their error, so they
// can be reported.
//
// # Example Plugin
//
//	-- init.lua
//	local vifm = require("vifm")
//
//	vifm.keys.add {
//	    shortcut = "<space>c",
//	    modes = { "normal" },
//	    description = "count",
//	    handler = function(info)
//	        vifm.sb.info("count is " .. (info.count or 1))
//	    end,
//	}
//
// print output and vifm.sb messages go to Env.Status. Status providers
// must not call back into the Host that is printing.
package plugin
